package session

import (
	"fmt"
	"io"
	"math/rand"
	"sync"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/paintclash/internal/board"
	"github.com/hailam/paintclash/internal/card"
	"github.com/hailam/paintclash/internal/config"
	"github.com/hailam/paintclash/internal/rules"
	"github.com/hailam/paintclash/internal/wire"
)

// TurnEvent is the information internal/monitor is allowed to broadcast:
// action kinds and turn numbers, never hidden hand or deck contents.
type TurnEvent struct {
	SessionID       uint64
	Turn            int32
	SouthActionKind string
	NorthActionKind string
	Terminal        bool
}

// EventSink receives TurnEvents as a session plays. Implemented by
// internal/monitor's Hub; a nil EventSink is valid and simply discards
// events.
type EventSink interface {
	Publish(TurnEvent)
}

// ResultRecorder persists a finished match. cmd/server implements it with an
// adapter over internal/store's Store; nil is valid.
type ResultRecorder interface {
	RecordMatch(result MatchResult) error
}

// MatchResult is the subset of store.MatchResult a session can fill in
// without importing internal/store (which would make persistence a hard
// dependency of every session).
type MatchResult struct {
	GameID      uint32
	SouthName   string
	NorthName   string
	SouthScore  uint32
	NorthScore  uint32
	Turns       int32
	CompletedAt int64
}

// pendingClient is a connection that has finished the Manmenmi handshake and
// is waiting in the pairing queue for an opponent.
type pendingClient struct {
	codec wire.Codec
	name  string
}

// Handshake performs the bootstrap step of spec.md §4.6/§4.7: receive
// Manmenmi over a JSON codec, then switch to the client's preferred format.
// Callers run this once per accepted connection, before enqueueing the
// result onto a PairingQueue.
func Handshake(rw io.ReadWriter) (*pendingClient, error) {
	bootstrap := wire.NewJSONCodec(rw)
	req, err := bootstrap.RecvRequest()
	if err != nil {
		return nil, fmt.Errorf("session: recv manmenmi: %w", err)
	}
	manmenmi, ok := req.(wire.Manmenmi)
	if !ok {
		_ = bootstrap.SendResponse(wire.ErrorResponse{Code: wire.ErrBadRequest, Message: "expected Manmenmi as first message"})
		return nil, fmt.Errorf("session: expected Manmenmi, got %T", req)
	}
	codec := wire.NewCodec(manmenmi.PreferredFormat, rw)
	return &pendingClient{codec: codec, name: manmenmi.Name}, nil
}

// PairingQueue is the bounded handshake-to-session buffer of spec.md §5
// ("bounded channel of capacity 8"). Producers (the accept loop) push
// handshaken clients; Pairs emits them two at a time, South first (the
// client pushed earlier), North second.
type PairingQueue struct {
	in    chan *pendingClient
	pairs chan [2]*pendingClient
}

// NewPairingQueue starts the background pairing goroutine and returns the
// queue. Push blocks once 8 unpaired clients are already queued.
func NewPairingQueue() *PairingQueue {
	q := &PairingQueue{
		in:    make(chan *pendingClient, 8),
		pairs: make(chan [2]*pendingClient),
	}
	go q.run()
	return q
}

func (q *PairingQueue) run() {
	for first := range q.in {
		second, ok := <-q.in
		if !ok {
			return
		}
		q.pairs <- [2]*pendingClient{first, second}
	}
}

// Push enqueues a handshaken client, blocking if the queue is full.
func (q *PairingQueue) Push(p *pendingClient) { q.in <- p }

// Pairs is the channel of matched South/North pairs ready for a new
// ServerSession.
func (q *PairingQueue) Pairs() <-chan [2]*pendingClient { return q.pairs }

// Close stops accepting new clients. Any client already queued without a
// partner is dropped without its connection being closed; the caller retains
// the responsibility of closing pendingClient connections it created.
func (q *PairingQueue) Close() { close(q.in) }

// participant is the server's view of one side of a session: its codec and
// its authoritative (server-only-visible) hand and deck.
type participant struct {
	codec wire.Codec
	name  string
	side  board.Side
	cards rules.PlayerCardState
}

// ServerSession owns one paired match's authoritative State and drives both
// connections concurrently, per spec.md §4.7 and §5.
type ServerSession struct {
	id          uint64
	ctx         *config.Context
	gameID      uint32
	timeControl wire.TimeControl
	rng         *rand.Rand

	south, north *participant

	mu    sync.Mutex
	state *rules.State

	sink     EventSink
	recorder ResultRecorder
	log      logr.Logger
}

// NewServerSession pairs the two handshaken clients into a session. south
// was the first to reach the pairing queue and is assigned PlayerSide
// South, per spec.md §4.7.
func NewServerSession(
	id uint64,
	ctx *config.Context,
	gameID uint32,
	timeControl wire.TimeControl,
	south, north *pendingClient,
	sink EventSink,
	recorder ResultRecorder,
	log logr.Logger,
) *ServerSession {
	return &ServerSession{
		id:          id,
		ctx:         ctx,
		gameID:      gameID,
		timeControl: timeControl,
		rng:         rand.New(rand.NewSource(int64(id))),
		south:       &participant{codec: south.codec, name: south.name, side: board.South},
		north:       &participant{codec: north.codec, name: north.name, side: board.North},
		sink:        sink,
		recorder:    recorder,
		log:         log.WithValues("session", id),
	}
}

// Run drives the session to completion: parallel init, then the
// TURN_COUNT-bounded turn loop. It returns the final scores, or an error if
// either connection failed at the transport or protocol level (spec.md §7
// — the session is torn down on any such error).
func (s *ServerSession) Run() (wire.Scores, error) {
	if err := s.initBothSides(); err != nil {
		return wire.Scores{}, err
	}

	s.state = rules.NewState(s.ctx.Board)

	for !s.state.Terminal() {
		result, err := s.playTurn()
		if err != nil {
			return wire.Scores{}, err
		}
		if result != nil {
			s.recordIfConfigured(*result)
			return *result, nil
		}
	}

	south, north := rules.Score(s.state.Board)
	result := wire.ScoresToWire(south, north)
	s.recordIfConfigured(result)
	return result, nil
}

func (s *ServerSession) initBothSides() error {
	games := []wire.GameInfo{{GameID: s.gameID, TimeControl: s.timeControl, Board: wire.BoardToWire(s.ctx.Board)}}

	g := new(errgroup.Group)
	g.Go(func() error { return s.initSide(s.south, games) })
	g.Go(func() error { return s.initSide(s.north, games) })
	return g.Wait()
}

func (s *ServerSession) initSide(p *participant, games []wire.GameInfo) error {
	if err := p.codec.SendResponse(wire.ManmenmiResponse{AvailableGames: games}); err != nil {
		return fmt.Errorf("session: %s: send game list: %w", p.side, err)
	}

	req, err := p.codec.RecvRequest()
	if err != nil {
		return fmt.Errorf("session: %s: recv join game: %w", p.side, err)
	}
	join, ok := req.(wire.JoinGame)
	if !ok {
		_ = p.codec.SendResponse(wire.ErrorResponse{Code: wire.ErrBadRequest, Message: "expected JoinGame"})
		return fmt.Errorf("session: %s: expected JoinGame, got %T", p.side, req)
	}

	deck, err := s.resolveIDs(join.Deck)
	if err != nil {
		_ = p.codec.SendResponse(wire.ErrorResponse{Code: wire.ErrBadRequest, Message: err.Error()})
		return fmt.Errorf("session: %s: %w", p.side, err)
	}

	s.shuffle(deck)
	hand, remainder := dealHand(deck)

	if err := p.codec.SendResponse(wire.JoinGameResponse{
		PlayerID:     wire.SideToWire(p.side),
		InitialHands: idsOf(hand),
	}); err != nil {
		return fmt.Errorf("session: %s: send join game response: %w", p.side, err)
	}

	req, err = p.codec.RecvRequest()
	if err != nil {
		return fmt.Errorf("session: %s: recv accept hands: %w", p.side, err)
	}
	accept, ok := req.(wire.AcceptHands)
	if !ok {
		_ = p.codec.SendResponse(wire.ErrorResponse{Code: wire.ErrBadRequest, Message: "expected AcceptHands"})
		return fmt.Errorf("session: %s: expected AcceptHands, got %T", p.side, req)
	}

	if !accept.Accept {
		full := append(append([]*card.Card{}, hand...), remainder...)
		s.shuffle(full)
		hand, remainder = dealHand(full)
	}

	if err := p.codec.SendResponse(wire.AcceptHandsResponse{Hands: idsOf(hand)}); err != nil {
		return fmt.Errorf("session: %s: send accept hands response: %w", p.side, err)
	}

	p.cards = rules.PlayerCardState{Side: p.side, Hand: hand, Deck: remainder}
	return nil
}

func dealHand(deck []*card.Card) (hand, remainder []*card.Card) {
	n := rules.HandSize
	if n > len(deck) {
		n = len(deck)
	}
	return deck[:n], deck[n:]
}

func (s *ServerSession) shuffle(cards []*card.Card) {
	s.rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
}

func (s *ServerSession) resolveIDs(ids []uint32) ([]*card.Card, error) {
	cards := make([]*card.Card, 0, len(ids))
	for _, id := range ids {
		c, ok := s.ctx.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("unknown card id %d", id)
		}
		cards = append(cards, c)
	}
	return cards, nil
}

func idsOf(cards []*card.Card) []uint32 {
	ids := make([]uint32, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

// playTurn runs one iteration of the turn loop. It returns a non-nil result
// exactly when the game ends this turn, either by reaching TURN_COUNT or by
// a forfeit.
func (s *ServerSession) playTurn() (*wire.Scores, error) {
	var southAction, northAction wire.Action

	g := new(errgroup.Group)
	g.Go(func() error {
		a, err := recvSelectAction(s.south.codec)
		southAction = a
		return err
	})
	g.Go(func() error {
		a, err := recvSelectAction(s.north.codec)
		northAction = a
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	south, err := wire.ActionFromWire(southAction, s.ctx.Lookup)
	if err != nil {
		return s.forfeit(board.South, err.Error())
	}
	north, err := wire.ActionFromWire(northAction, s.ctx.Lookup)
	if err != nil {
		return s.forfeit(board.North, err.Error())
	}

	s.mu.Lock()
	next, updateErr := rules.Update(s.state, south, north)
	if updateErr == nil {
		s.state = next
	}
	s.mu.Unlock()

	if updateErr != nil {
		if illegal, ok := updateErr.(*rules.IllegalActionError); ok {
			return s.forfeit(illegal.Side, illegal.Reason)
		}
		return nil, fmt.Errorf("session: engine update: %w", updateErr)
	}

	rules.UpdateHand(&s.south.cards, south)
	rules.UpdateHand(&s.north.cards, north)

	var result *wire.Scores
	if s.state.Terminal() {
		southScore, northScore := rules.Score(s.state.Board)
		scores := wire.ScoresToWire(southScore, northScore)
		result = &scores
	}

	s.publishTurn(south.Kind, north.Kind, result != nil)

	g2 := new(errgroup.Group)
	g2.Go(func() error {
		return s.south.codec.SendResponse(wire.SelectActionResponse{
			OpponentAction: wire.ActionToWire(north),
			Hands:          idsOf(s.south.cards.Hand),
			GameResult:     result,
		})
	})
	g2.Go(func() error {
		return s.north.codec.SendResponse(wire.SelectActionResponse{
			OpponentAction: wire.ActionToWire(south),
			Hands:          idsOf(s.north.cards.Hand),
			GameResult:     result,
		})
	})
	if err := g2.Wait(); err != nil {
		return nil, fmt.Errorf("session: send select action response: %w", err)
	}

	return result, nil
}

// forfeit ends the session early: the offending side loses, per spec.md §7's
// documented (and here, actually implemented) forfeit rule.
func (s *ServerSession) forfeit(offender board.Side, reason string) (*wire.Scores, error) {
	offenderSession := s.south
	if offender == board.North {
		offenderSession = s.north
	}
	_ = offenderSession.codec.SendResponse(wire.ErrorResponse{Code: wire.ErrBadRequest, Message: reason})

	scores := wire.Scores{}
	if offender == board.South {
		scores = wire.Scores{SouthScore: 0, NorthScore: 1}
	} else {
		scores = wire.Scores{SouthScore: 1, NorthScore: 0}
	}

	// The offender has already been answered with the ErrorResponse above;
	// only the other side receives the final SelectActionResponse.
	other := s.north
	if offender == board.North {
		other = s.south
	}
	_ = other.codec.SendResponse(wire.SelectActionResponse{Hands: idsOf(other.cards.Hand), GameResult: &scores})

	s.publishTurn(wire.ActionPass, wire.ActionPass, true)
	return &scores, nil
}

func (s *ServerSession) publishTurn(southKind, northKind wire.ActionKind, terminal bool) {
	if s.sink == nil {
		return
	}
	s.mu.Lock()
	turn := s.state.Turn
	s.mu.Unlock()
	s.sink.Publish(TurnEvent{
		SessionID:       s.id,
		Turn:            turn,
		SouthActionKind: southKind.String(),
		NorthActionKind: northKind.String(),
		Terminal:        terminal,
	})
}

func (s *ServerSession) recordIfConfigured(scores wire.Scores) {
	if s.recorder == nil {
		return
	}
	err := s.recorder.RecordMatch(MatchResult{
		GameID:      s.gameID,
		SouthName:   s.south.name,
		NorthName:   s.north.name,
		SouthScore:  scores.SouthScore,
		NorthScore:  scores.NorthScore,
		Turns:       s.state.Turn,
	})
	if err != nil {
		s.log.Error(err, "failed to record match result")
	}
}

func recvSelectAction(codec wire.Codec) (wire.Action, error) {
	req, err := codec.RecvRequest()
	if err != nil {
		return wire.Action{}, fmt.Errorf("session: recv select action: %w", err)
	}
	sel, ok := req.(wire.SelectAction)
	if !ok {
		_ = codec.SendResponse(wire.ErrorResponse{Code: wire.ErrBadRequest, Message: "expected SelectAction"})
		return wire.Action{}, fmt.Errorf("session: expected SelectAction, got %T", req)
	}
	return sel.Action, nil
}
