package agent

import (
	"math/rand"
	"testing"
	"time"

	"github.com/hailam/paintclash/internal/board"
	"github.com/hailam/paintclash/internal/card"
	"github.com/hailam/paintclash/internal/rules"
)

// emptyBoard builds a w x h board with a Wall border and an otherwise empty
// interior, with no ink anywhere — every Place/SpecialPlace is illegal on
// it regardless of card shape, since the touching requirement can never be
// satisfied (spec.md §4.1.2).
func emptyBoard(w, h int) *board.Board {
	rows := make([][]board.Cell, h)
	for y := 0; y < h; y++ {
		rows[y] = make([]board.Cell, w)
		for x := 0; x < w; x++ {
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				rows[y][x] = board.WallCell
			} else {
				rows[y][x] = board.EmptyCell
			}
		}
	}
	return board.New("test", rows)
}

func threeWideCard(id uint32, priority int) *card.Card {
	return card.New(id, "bar", 0, []card.Cell{
		{X: 0, Y: 0, Type: card.Painted, Priority: priority},
		{X: 1, Y: 0, Type: card.Painted, Priority: priority},
		{X: 2, Y: 0, Type: card.Painted, Priority: priority},
	})
}

func sampleDeck(n int) []*card.Card {
	deck := make([]*card.Card, n)
	for i := range deck {
		deck[i] = threeWideCard(uint32(i+1), i%5)
	}
	return deck
}

func TestLegalActionsAlwaysIncludesPassPerHandCard(t *testing.T) {
	b := emptyBoard(8, 8)
	st := rules.NewState(b)
	hand := sampleDeck(rules.HandSize)

	actions := LegalActions(st, board.South, hand)
	passCount := 0
	for _, a := range actions {
		if a.Kind == rules.Pass {
			passCount++
		}
	}
	if passCount != len(hand) {
		t.Fatalf("expected %d Pass actions, got %d", len(hand), passCount)
	}
}

func TestLegalActionsOnEmptyBoardIsPassOnly(t *testing.T) {
	b := emptyBoard(8, 8)
	st := rules.NewState(b)
	hand := sampleDeck(rules.HandSize)

	actions := LegalActions(st, board.South, hand)
	if len(actions) != len(hand) {
		t.Fatalf("on an ink-free board only Pass should be legal, got %d actions for %d hand cards", len(actions), len(hand))
	}
	for _, a := range actions {
		if a.Kind != rules.Pass {
			t.Fatalf("expected only Pass actions, got %s", a.Kind)
		}
	}
}

func TestRandomChooseActionIsLegal(t *testing.T) {
	b := emptyBoard(8, 8)
	st := rules.NewState(b)
	deck := sampleDeck(rules.DeckSize)
	hand, rest := deck[:rules.HandSize], deck[rules.HandSize:]

	a := NewRandom(rand.NewSource(1))
	a.InitGame(board.South, deck, append(append([]*card.Card(nil), hand...), rest...))

	act := a.ChooseAction(st, hand, 0)
	if !rules.IsValidAction(st, board.South, act) {
		t.Fatalf("Random returned an illegal action: %+v", act)
	}
}

func TestRandomDeterministicUnderSeed(t *testing.T) {
	b := emptyBoard(8, 8)
	st := rules.NewState(b)
	deck := sampleDeck(rules.DeckSize)
	hand := deck[:rules.HandSize]

	a1 := NewRandom(rand.NewSource(42))
	a1.InitGame(board.South, deck, deck)
	act1 := a1.ChooseAction(st, hand, 0)

	a2 := NewRandom(rand.NewSource(42))
	a2.InitGame(board.South, deck, deck)
	act2 := a2.ChooseAction(st, hand, 0)

	if act1.Kind != act2.Kind || act1.Card.ID != act2.Card.ID {
		t.Fatalf("same seed produced different actions: %+v vs %+v", act1, act2)
	}
}

func TestMCTSChooseActionIsLegal(t *testing.T) {
	b := emptyBoard(8, 8)
	st := rules.NewState(b)
	st.Board.Set(3, 3, board.InkCell(board.South))
	deck := sampleDeck(rules.DeckSize)
	hand := deck[:rules.HandSize]

	a := NewMCTS(64, rand.NewSource(7))
	a.InitGame(board.South, deck, deck)

	act := a.ChooseAction(st, hand, 0)
	if !rules.IsValidAction(st, board.South, act) {
		t.Fatalf("MCTS returned an illegal action: %+v", act)
	}
}

func TestMCTSVisitMonotonicityUnderSinglePass(t *testing.T) {
	// An ink-free board forces every card's Place/SpecialPlace to fail the
	// touching requirement, so with a single-card hand the only legal
	// action is Pass(card); MCTS must expand and return it on every run
	// regardless of iteration count (spec.md §8.3). The hand card comes from
	// a full DeckSize deck, so the random playouts, which run to TurnCount,
	// always have cards left to draw.
	b := emptyBoard(8, 8)
	st := rules.NewState(b)
	deck := sampleDeck(rules.DeckSize)
	c := deck[0]
	hand := []*card.Card{c}

	a := NewMCTS(32, rand.NewSource(3))
	a.InitGame(board.South, deck, deck)

	act := a.ChooseAction(st, hand, 0)
	if act.Kind != rules.Pass || act.Card.ID != c.ID {
		t.Fatalf("expected the only legal action Pass(%d), got %+v", c.ID, act)
	}
}

func TestMCTSDeterministicUnderSeed(t *testing.T) {
	b := emptyBoard(8, 8)
	st := rules.NewState(b)
	st.Board.Set(3, 3, board.InkCell(board.South))
	deck := sampleDeck(rules.DeckSize)
	hand := deck[:rules.HandSize]

	a1 := NewMCTS(48, rand.NewSource(99))
	a1.InitGame(board.South, deck, deck)
	act1 := a1.ChooseAction(st, hand, 0)

	a2 := NewMCTS(48, rand.NewSource(99))
	a2.InitGame(board.South, deck, deck)
	act2 := a2.ChooseAction(st, hand, 0)

	if act1.Kind != act2.Kind || act1.Card.ID != act2.Card.ID || act1.Position != act2.Position {
		t.Fatalf("same seed produced different actions: %+v vs %+v", act1, act2)
	}
}

func TestMCTSRespectsTimeLimit(t *testing.T) {
	b := emptyBoard(8, 8)
	st := rules.NewState(b)
	st.Board.Set(3, 3, board.InkCell(board.South))
	deck := sampleDeck(rules.DeckSize)
	hand := deck[:rules.HandSize]

	a := NewMCTS(1_000_000, rand.NewSource(5))
	a.InitGame(board.South, deck, deck)

	start := time.Now()
	act := a.ChooseAction(st, hand, 20*time.Millisecond)
	if time.Since(start) > 2*time.Second {
		t.Fatalf("MCTS ignored its time limit")
	}
	if !rules.IsValidAction(st, board.South, act) {
		t.Fatalf("MCTS returned an illegal action under a time limit: %+v", act)
	}
}
