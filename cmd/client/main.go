// Command client connects to a server, plays a single game with an
// automated agent, and prints the final score (spec.md §4.6).
package main

import (
	"flag"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/hailam/paintclash/internal/agent"
	"github.com/hailam/paintclash/internal/config"
	"github.com/hailam/paintclash/internal/session"
	"github.com/hailam/paintclash/internal/telemetry"
	"github.com/hailam/paintclash/internal/wire"
)

func main() {
	addr := flag.String("addr", "localhost:7777", "server address to dial")
	name := flag.String("name", "player", "name announced to the server")
	strategy := flag.String("agent", "random", "agent strategy: random or mcts")
	iterations := flag.Int("mcts-iterations", 500, "IS-MCTS iterations per move")
	seed := flag.Int64("seed", time.Now().UnixNano(), "agent rng seed")
	format := flag.String("format", string(wire.FormatFlexbuffers), "preferred wire format: Json or Flexbuffers")
	cardsPath := flag.String("cards", "testdata/cards.json", "path to the card catalog")
	boardPath := flag.String("board", "testdata/board.json", "path to the board template")
	decksPath := flag.String("decks", "testdata/decks.json", "path to the game-id-to-deck mapping")
	deckGame := flag.Uint("deck-game", 1, "game id whose configured deck this client joins with")
	flag.Parse()

	log := telemetry.NewLogger("client")

	ctx, err := config.LoadContext(*cardsPath, *boardPath, *decksPath)
	if err != nil {
		log.Error(err, "failed to load context")
		os.Exit(1)
	}

	ag := buildAgent(*strategy, *iterations, rand.NewSource(*seed))

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Error(err, "failed to connect", "addr", *addr)
		os.Exit(1)
	}
	defer conn.Close()

	sess := session.NewClientSession(conn, ctx, ag, *name)

	pick := func(games []wire.GameInfo) (uint32, []uint32) {
		gameID := uint32(*deckGame)
		for _, g := range games {
			if g.GameID == gameID {
				return gameID, ctx.Decks[gameID]
			}
		}
		if len(games) > 0 {
			return games[0].GameID, ctx.Decks[games[0].GameID]
		}
		return gameID, ctx.Decks[gameID]
	}

	scores, err := sess.Play(wire.Format(*format), pick)
	if err != nil {
		log.Error(err, "session failed")
		os.Exit(1)
	}
	log.Info("game complete", "south_score", scores.SouthScore, "north_score", scores.NorthScore)
}

func buildAgent(strategy string, iterations int, src rand.Source) agent.Agent {
	switch strategy {
	case "mcts":
		return agent.NewMCTS(iterations, src)
	default:
		return agent.NewRandom(src)
	}
}
