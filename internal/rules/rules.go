// Package rules implements the deterministic state-transition function for
// the board-filling, simultaneous-move card game: legality, the simultaneous
// update, and per-side hand maintenance.
package rules

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/hailam/paintclash/internal/board"
	"github.com/hailam/paintclash/internal/card"
)

// Constants from spec.md §6.5.
const (
	HandSize  = 4
	DeckSize  = 15
	TurnCount = 12
)

// ActionKind is the tag of an Action.
type ActionKind int8

const (
	Pass ActionKind = iota
	Place
	SpecialPlace
)

func (k ActionKind) String() string {
	switch k {
	case Pass:
		return "Pass"
	case Place:
		return "Place"
	case SpecialPlace:
		return "SpecialPlace"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// Action is the tagged union of the three move shapes a side may submit on a
// turn. Card is always the card being consumed; Position is meaningful only
// for Place and SpecialPlace.
type Action struct {
	Kind     ActionKind
	Card     *card.Card
	Position card.Position
}

// PassAction builds a Pass(card) action.
func PassAction(c *card.Card) Action { return Action{Kind: Pass, Card: c} }

// PlaceAction builds a Place(card, position) action.
func PlaceAction(c *card.Card, pos card.Position) Action {
	return Action{Kind: Place, Card: c, Position: pos}
}

// SpecialPlaceAction builds a SpecialPlace(card, position) action.
func SpecialPlaceAction(c *card.Card, pos card.Position) Action {
	return Action{Kind: SpecialPlace, Card: c, Position: pos}
}

// PlayerCardState is one side's view of its own cards: the playable hand and
// the remaining (hidden, to the opponent) deck.
type PlayerCardState struct {
	Side board.Side
	Hand []*card.Card
	Deck []*card.Card
}

// Consumed is an ordered history of ids played by one side.
type Consumed []uint32

// State is the public, authoritative game state: the board, the turn
// counter, each side's special-point balance, and each side's consumed-card
// history. Hands and decks are not part of State — they live in the
// per-side PlayerCardState, visible in full only to their owner.
type State struct {
	Board    *board.Board
	Turn     int32
	Special  [2]int
	Consumed [2]Consumed
}

// NewState starts a fresh game on the given board (cloned so the template
// board passed in is never mutated).
func NewState(b *board.Board) *State {
	return &State{Board: b.Clone()}
}

// Terminal reports whether the state has reached TurnCount.
func (s *State) Terminal() bool { return s.Turn >= TurnCount }

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := &State{Board: s.Board.Clone(), Turn: s.Turn, Special: s.Special}
	c.Consumed[0] = append(Consumed(nil), s.Consumed[0]...)
	c.Consumed[1] = append(Consumed(nil), s.Consumed[1]...)
	return c
}

// Fingerprint is a fast, non-cryptographic hash of the board cells, the turn
// counter and both special balances; the consumed histories are not hashed.
func (s *State) Fingerprint() uint64 {
	h := xxhash.New()
	for y := 0; y < s.Board.Height; y++ {
		for x := 0; x < s.Board.Width; x++ {
			c := s.Board.At(x, y)
			h.Write([]byte{byte(c.Kind), byte(c.Side)})
		}
	}
	var scratch [4]byte
	writeInt32 := func(v int32) {
		scratch[0] = byte(v)
		scratch[1] = byte(v >> 8)
		scratch[2] = byte(v >> 16)
		scratch[3] = byte(v >> 24)
		h.Write(scratch[:])
	}
	writeInt32(s.Turn)
	writeInt32(int32(s.Special[0]))
	writeInt32(int32(s.Special[1]))
	return h.Sum64()
}

// IllegalActionError reports that a side's submitted action was not legal
// against the state it was submitted for. Per the documented forfeit policy
// (spec.md §7, DESIGN.md open question 1), this is the trigger for a forfeit,
// never a panic.
type IllegalActionError struct {
	Side   board.Side
	Action Action
	Reason string
}

func (e *IllegalActionError) Error() string {
	return fmt.Sprintf("illegal action by %s (%s): %s", e.Side, e.Action.Kind, e.Reason)
}
