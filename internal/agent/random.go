package agent

import (
	"math/rand"
	"time"

	"github.com/hailam/paintclash/internal/board"
	"github.com/hailam/paintclash/internal/card"
	"github.com/hailam/paintclash/internal/rules"
)

// Random picks a uniformly random legal action every turn and flips a fair
// coin on the redeal decision (spec.md §4.3).
type Random struct {
	side board.Side
	rng  *rand.Rand
}

// NewRandom builds a Random agent seeded from src. Passing a
// rand.NewSource(fixedSeed) makes its choices reproducible, as required by
// spec.md §8.3's determinism-under-seed property for any agent driving a
// test.
func NewRandom(src rand.Source) *Random {
	return &Random{rng: rand.New(src)}
}

func (a *Random) Name() string { return "random" }

func (a *Random) InitGame(side board.Side, allCards []*card.Card, deck []*card.Card) {
	a.side = side
}

func (a *Random) NeedsRedeal(initialHand []*card.Card) bool {
	return a.rng.Intn(2) == 0
}

func (a *Random) ChooseAction(state *rules.State, hand []*card.Card, timeLimit time.Duration) rules.Action {
	actions := LegalActions(state, a.side, hand)
	if len(actions) == 0 {
		// Pass is always available per spec.md §4.2; fall back to it if the
		// hand is somehow empty (should not happen under DeckSize/HandSize
		// invariants, but choose_action must never return nothing).
		if len(hand) > 0 {
			return rules.PassAction(hand[0])
		}
		panic("agent: Random asked to choose with an empty hand")
	}
	return actions[a.rng.Intn(len(actions))]
}
