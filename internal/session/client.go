// Package session implements the two halves of the wire protocol:
// ClientSession drives one connection from a player-agent's point of view
// (spec.md §4.6), ServerSession owns one paired match's authoritative state
// and drives both connections concurrently (spec.md §4.7).
package session

import (
	"fmt"
	"io"
	"time"

	"github.com/hailam/paintclash/internal/agent"
	"github.com/hailam/paintclash/internal/board"
	"github.com/hailam/paintclash/internal/card"
	"github.com/hailam/paintclash/internal/config"
	"github.com/hailam/paintclash/internal/rules"
	"github.com/hailam/paintclash/internal/wire"
)

// GamePicker chooses one of the offered games and the deck (card ids) to
// join it with. Supplied by the driver (cmd/client, or a test), not by
// this package, since the choice is a UI/strategy concern.
type GamePicker func(games []wire.GameInfo) (gameID uint32, deck []uint32)

// ClientSession drives a single connection end to end for one game.
type ClientSession struct {
	conn  io.ReadWriter
	ctx   *config.Context
	agent agent.Agent
	name  string
}

// NewClientSession builds a client session over conn, resolving wire card
// ids against ctx and delegating move choices to ag.
func NewClientSession(conn io.ReadWriter, ctx *config.Context, ag agent.Agent, name string) *ClientSession {
	return &ClientSession{conn: conn, ctx: ctx, agent: ag, name: name}
}

// Play runs the handshake, game selection, and full turn loop, returning
// the final scores from the server's point of view (south_score,
// north_score), not remapped to the local side.
func (s *ClientSession) Play(preferred wire.Format, pick GamePicker) (wire.Scores, error) {
	bootstrap := wire.NewJSONCodec(s.conn)
	if err := bootstrap.SendRequest(wire.Manmenmi{PreferredFormat: preferred, Name: s.name}); err != nil {
		return wire.Scores{}, fmt.Errorf("session: send manmenmi: %w", err)
	}

	codec := wire.NewCodec(preferred, s.conn)

	resp, err := codec.RecvResponse()
	if err != nil {
		return wire.Scores{}, fmt.Errorf("session: recv manmenmi response: %w", err)
	}
	manmenmi, err := expectManmenmiResponse(resp)
	if err != nil {
		return wire.Scores{}, err
	}

	gameID, deckIDs := pick(manmenmi.AvailableGames)
	timeLimit := timeLimitFor(manmenmi.AvailableGames, gameID)

	if err := codec.SendRequest(wire.JoinGame{GameID: gameID, Deck: deckIDs}); err != nil {
		return wire.Scores{}, fmt.Errorf("session: send join game: %w", err)
	}

	resp, err = codec.RecvResponse()
	if err != nil {
		return wire.Scores{}, fmt.Errorf("session: recv join game response: %w", err)
	}
	joined, err := expectJoinGameResponse(resp)
	if err != nil {
		return wire.Scores{}, err
	}
	side := wire.SideFromWire(joined.PlayerID)

	deckCards, err := s.resolveIDs(deckIDs)
	if err != nil {
		return wire.Scores{}, err
	}
	s.agent.InitGame(side, s.ctx.AllCards, deckCards)

	hand, err := s.resolveIDs(joined.InitialHands)
	if err != nil {
		return wire.Scores{}, err
	}
	needRedeal := s.agent.NeedsRedeal(hand)

	if err := codec.SendRequest(wire.AcceptHands{Accept: !needRedeal}); err != nil {
		return wire.Scores{}, fmt.Errorf("session: send accept hands: %w", err)
	}

	resp, err = codec.RecvResponse()
	if err != nil {
		return wire.Scores{}, fmt.Errorf("session: recv accept hands response: %w", err)
	}
	accepted, err := expectAcceptHandsResponse(resp)
	if err != nil {
		return wire.Scores{}, err
	}
	hand, err = s.resolveIDs(accepted.Hands)
	if err != nil {
		return wire.Scores{}, err
	}

	state := rules.NewState(s.ctx.Board)

	for {
		action := s.agent.ChooseAction(state, hand, timeLimit)

		if err := codec.SendRequest(wire.SelectAction{Action: wire.ActionToWire(action)}); err != nil {
			return wire.Scores{}, fmt.Errorf("session: send select action: %w", err)
		}

		resp, err = codec.RecvResponse()
		if err != nil {
			return wire.Scores{}, fmt.Errorf("session: recv select action response: %w", err)
		}
		turn, err := expectSelectActionResponse(resp)
		if err != nil {
			return wire.Scores{}, err
		}

		// A forfeit ends the game without necessarily resolving a normal
		// simultaneous turn (the losing side's action may not even decode);
		// check game_result before touching the local engine at all.
		if turn.GameResult != nil {
			return *turn.GameResult, nil
		}

		opponent, err := wire.ActionFromWire(turn.OpponentAction, s.ctx.Lookup)
		if err != nil {
			return wire.Scores{}, fmt.Errorf("session: decode opponent action: %w", err)
		}

		south, north := action, opponent
		if side == board.North {
			south, north = opponent, action
		}
		state, err = rules.Update(state, south, north)
		if err != nil {
			return wire.Scores{}, fmt.Errorf("session: local engine rejected server-confirmed turn: %w", err)
		}

		hand, err = s.resolveIDs(turn.Hands)
		if err != nil {
			return wire.Scores{}, err
		}
	}
}

func (s *ClientSession) resolveIDs(ids []uint32) ([]*card.Card, error) {
	cards := make([]*card.Card, 0, len(ids))
	for _, id := range ids {
		c, ok := s.ctx.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("session: unknown card id %d", id)
		}
		cards = append(cards, c)
	}
	return cards, nil
}

func timeLimitFor(games []wire.GameInfo, gameID uint32) time.Duration {
	for _, g := range games {
		if g.GameID != gameID {
			continue
		}
		if g.TimeControl.Infinite {
			return 0
		}
		return time.Duration(g.TimeControl.TimeLimitInSeconds) * time.Second
	}
	return 0
}

func expectManmenmiResponse(r wire.Response) (wire.ManmenmiResponse, error) {
	switch v := r.(type) {
	case wire.ManmenmiResponse:
		return v, nil
	case wire.ErrorResponse:
		return wire.ManmenmiResponse{}, v
	default:
		return wire.ManmenmiResponse{}, fmt.Errorf("session: unexpected response %T for manmenmi", r)
	}
}

func expectJoinGameResponse(r wire.Response) (wire.JoinGameResponse, error) {
	switch v := r.(type) {
	case wire.JoinGameResponse:
		return v, nil
	case wire.ErrorResponse:
		return wire.JoinGameResponse{}, v
	default:
		return wire.JoinGameResponse{}, fmt.Errorf("session: unexpected response %T for join game", r)
	}
}

func expectAcceptHandsResponse(r wire.Response) (wire.AcceptHandsResponse, error) {
	switch v := r.(type) {
	case wire.AcceptHandsResponse:
		return v, nil
	case wire.ErrorResponse:
		return wire.AcceptHandsResponse{}, v
	default:
		return wire.AcceptHandsResponse{}, fmt.Errorf("session: unexpected response %T for accept hands", r)
	}
}

func expectSelectActionResponse(r wire.Response) (wire.SelectActionResponse, error) {
	switch v := r.(type) {
	case wire.SelectActionResponse:
		return v, nil
	case wire.ErrorResponse:
		return wire.SelectActionResponse{}, v
	default:
		return wire.SelectActionResponse{}, fmt.Errorf("session: unexpected response %T for select action", r)
	}
}
