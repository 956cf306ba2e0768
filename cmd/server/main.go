// Command server accepts connections, pairs them two at a time, and drives
// each pair's match to completion (spec.md §4.7, §5).
package main

import (
	"flag"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/hailam/paintclash/internal/config"
	"github.com/hailam/paintclash/internal/monitor"
	"github.com/hailam/paintclash/internal/session"
	"github.com/hailam/paintclash/internal/store"
	"github.com/hailam/paintclash/internal/telemetry"
	"github.com/hailam/paintclash/internal/wire"
)

func main() {
	addr := flag.String("addr", ":7777", "address to accept game connections on")
	monitorAddr := flag.String("monitor-addr", "", "address to serve the debug websocket feed on; empty disables it")
	storeDir := flag.String("store", "", "directory for the match-result database; empty disables persistence")
	cardsPath := flag.String("cards", "testdata/cards.json", "path to the card catalog")
	boardPath := flag.String("board", "testdata/board.json", "path to the board template")
	decksPath := flag.String("decks", "testdata/decks.json", "path to the game-id-to-deck mapping")
	gameID := flag.Uint("game", 1, "game id offered to clients")
	timeLimitSeconds := flag.Uint("time-limit", 0, "per-action time limit in seconds; 0 means infinite")
	flag.Parse()

	log := telemetry.NewLogger("server")
	shutdownTracing := telemetry.InstallTracing()
	defer shutdownTracing(nil)

	ctx, err := config.LoadContext(*cardsPath, *boardPath, *decksPath)
	if err != nil {
		log.Error(err, "failed to load context")
		os.Exit(1)
	}

	var recorder session.ResultRecorder
	if *storeDir != "" {
		st, err := store.Open(*storeDir)
		if err != nil {
			log.Error(err, "failed to open store")
			os.Exit(1)
		}
		defer st.Close()
		recorder = matchRecorder{st}
	}

	var sink session.EventSink
	if *monitorAddr != "" {
		hub := monitor.NewHub(log.WithName("monitor"))
		sink = hub
		go func() {
			if err := http.ListenAndServe(*monitorAddr, hub); err != nil {
				log.Error(err, "monitor server stopped")
			}
		}()
	}

	listener, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Error(err, "failed to listen", "addr", *addr)
		os.Exit(1)
	}
	log.Info("listening", "addr", *addr)

	queue := session.NewPairingQueue()
	defer queue.Close()

	timeControl := wire.TimeControl{Infinite: *timeLimitSeconds == 0, TimeLimitInSeconds: uint32(*timeLimitSeconds)}

	go acceptLoop(listener, queue, log)

	var nextSessionID uint64
	for pair := range queue.Pairs() {
		id := atomic.AddUint64(&nextSessionID, 1)
		sess := session.NewServerSession(id, ctx, uint32(*gameID), timeControl, pair[0], pair[1], sink, recorder, log)
		go func(sess *session.ServerSession, id uint64) {
			scores, err := sess.Run()
			if err != nil {
				log.Error(err, "session ended with error", "session", id)
				return
			}
			log.Info("session complete", "session", id, "south_score", scores.SouthScore, "north_score", scores.NorthScore)
		}(sess, id)
	}
}

func acceptLoop(listener net.Listener, queue *session.PairingQueue, log logr.Logger) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Error(err, "accept failed")
			return
		}
		go func() {
			pc, err := session.Handshake(conn)
			if err != nil {
				log.Error(err, "handshake failed")
				conn.Close()
				return
			}
			queue.Push(pc)
		}()
	}
}

// matchRecorder adapts a *store.Store to session.ResultRecorder, converting
// the session-local MatchResult into store.MatchResult and stamping the
// completion time the session itself deliberately leaves unset.
type matchRecorder struct {
	store *store.Store
}

func (r matchRecorder) RecordMatch(result session.MatchResult) error {
	return r.store.RecordMatch(store.MatchResult{
		GameID:      result.GameID,
		SouthName:   result.SouthName,
		NorthName:   result.NorthName,
		SouthScore:  result.SouthScore,
		NorthScore:  result.NorthScore,
		Turns:       result.Turns,
		CompletedAt: time.Now().Unix(),
	})
}
