// Package agent defines the player-agent contract and its implementations
// (a uniformly-random baseline and an Information-Set MCTS searcher).
package agent

import (
	"time"

	"github.com/hailam/paintclash/internal/board"
	"github.com/hailam/paintclash/internal/card"
	"github.com/hailam/paintclash/internal/rules"
)

// Agent is the abstract capability every playing strategy implements.
// Implementations are single-threaded objects, mutated only by their owner
// (a session or a local driver), matching spec.md §4.2.
type Agent interface {
	// Name identifies the agent, e.g. for logging and statistics.
	Name() string

	// InitGame tells the agent its side, the read-only universe of every
	// card that exists (spec.md §4.2's "context"), and the full deck it
	// will draw from over the game (hand + deck combined, in no guaranteed
	// order).
	InitGame(side board.Side, allCards []*card.Card, deck []*card.Card)

	// NeedsRedeal is called once, after the first deal, with the initial
	// hand. Returning true asks the dealer for a fresh hand.
	NeedsRedeal(initialHand []*card.Card) bool

	// ChooseAction must return a legal action for state given hand.
	// timeLimit is advisory (spec.md §9 open question: TimeControl is not
	// enforced server-side); a zero value means no limit.
	ChooseAction(state *rules.State, hand []*card.Card, timeLimit time.Duration) rules.Action
}

// LegalActions enumerates every legal action for side given hand against
// state: one Pass per hand card, plus every (card, rotation, interior x, y)
// Place and SpecialPlace that IsValidAction accepts. Shared by Random and by
// IS-MCTS's expansion step (spec.md §4.3, §4.4.3).
func LegalActions(state *rules.State, side board.Side, hand []*card.Card) []rules.Action {
	var actions []rules.Action
	for _, c := range hand {
		actions = append(actions, rules.PassAction(c))
	}
	minX, maxX := state.Board.InteriorMinX, state.Board.InteriorMaxX
	minY, maxY := state.Board.InteriorMinY, state.Board.InteriorMaxY
	for _, c := range hand {
		for _, r := range card.Rotations {
			for y := minY; y <= maxY; y++ {
				for x := minX; x <= maxX; x++ {
					pos := card.Position{X: int32(x), Y: int32(y), Rotation: r}
					place := rules.PlaceAction(c, pos)
					if rules.IsValidAction(state, side, place) {
						actions = append(actions, place)
					}
					special := rules.SpecialPlaceAction(c, pos)
					if rules.IsValidAction(state, side, special) {
						actions = append(actions, special)
					}
				}
			}
		}
	}
	return actions
}
