package rules

import (
	"testing"

	"github.com/hailam/paintclash/internal/board"
	"github.com/hailam/paintclash/internal/card"
)

// wallBorderedBoard builds an H x W board whose outer ring is Wall and whose
// interior is Empty, matching the implied file format border.
func wallBorderedBoard(name string, w, h int) *board.Board {
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
	return board.New(name, rows)
}

// threeWide returns a horizontal 1x3 card pattern "===" with priority p.
func threeWide(id uint32, p int) *card.Card {
	return threeWideCost(id, p, 0)
}

func threeWideCost(id uint32, p, specialCost int) *card.Card {
	return card.New(id, "bar", specialCost, []card.Cell{
		{X: 0, Y: 0, Type: card.Painted, Priority: p},
		{X: 1, Y: 0, Type: card.Painted, Priority: p},
		{X: 2, Y: 0, Type: card.Painted, Priority: p},
	})
}

func TestPassAlwaysLegal(t *testing.T) {
	b := wallBorderedBoard("empty", 5, 5)
	st := NewState(b)
	c := threeWide(1, 3)
	if !IsValidAction(st, board.South, PassAction(c)) {
		t.Fatal("Pass must always be legal")
	}
}

func TestPlaceRejectedWithoutTouch(t *testing.T) {
	b := wallBorderedBoard("empty", 8, 8)
	st := NewState(b)
	c := threeWide(1, 3)
	act := PlaceAction(c, card.Position{X: 3, Y: 3, Rotation: card.Up})
	if IsValidAction(st, board.South, act) {
		t.Fatal("Place far from any own ink must be rejected")
	}
}

func TestPlaceAcceptedAdjacentToOwnInk(t *testing.T) {
	b := wallBorderedBoard("empty", 8, 8)
	st := NewState(b)
	st.Board.Set(3, 3, board.InkCell(board.South))
	c := threeWide(1, 3)
	act := PlaceAction(c, card.Position{X: 4, Y: 4, Rotation: card.Up})
	if !IsValidAction(st, board.South, act) {
		t.Fatal("Place adjacent to own ink must be accepted")
	}
}

func TestPlaceRejectedAdjacentToOpponentInkOnly(t *testing.T) {
	b := wallBorderedBoard("empty", 8, 8)
	st := NewState(b)
	st.Board.Set(3, 3, board.InkCell(board.North))
	c := threeWide(1, 3)
	act := PlaceAction(c, card.Position{X: 4, Y: 4, Rotation: card.Up})
	if IsValidAction(st, board.South, act) {
		t.Fatal("Place adjacent only to opponent ink must be rejected")
	}
}

func TestSpecialPlaceAcceptedAdjacentToOwnSpecialInk(t *testing.T) {
	b := wallBorderedBoard("empty", 8, 8)
	st := NewState(b)
	st.Special[board.South.Index()] = 5
	st.Board.Set(3, 3, board.SpecialInkCell(board.South))
	c := threeWide(1, 3)
	act := SpecialPlaceAction(c, card.Position{X: 4, Y: 4, Rotation: card.Up})
	if !IsValidAction(st, board.South, act) {
		t.Fatal("SpecialPlace adjacent to own special ink, with sufficient cost, must be accepted")
	}
}

func TestSpecialPlaceRejectedInsufficientCost(t *testing.T) {
	b := wallBorderedBoard("empty", 8, 8)
	st := NewState(b)
	st.Board.Set(3, 3, board.SpecialInkCell(board.South))
	c := threeWideCost(1, 7, 3)
	act := SpecialPlaceAction(c, card.Position{X: 4, Y: 4, Rotation: card.Up})
	if IsValidAction(st, board.South, act) {
		t.Fatal("SpecialPlace with insufficient special balance must be rejected")
	}
}

func TestSpecialPlaceNeverOverwritesWallOrSpecialInk(t *testing.T) {
	b := wallBorderedBoard("empty", 8, 8)
	st := NewState(b)
	st.Special[board.South.Index()] = 5
	st.Board.Set(3, 3, board.SpecialInkCell(board.South))
	st.Board.Set(4, 4, board.SpecialInkCell(board.North))
	c := threeWide(1, 0)
	act := SpecialPlaceAction(c, card.Position{X: 4, Y: 4, Rotation: card.Up})
	if IsValidAction(st, board.South, act) {
		t.Fatal("SpecialPlace must never land on SpecialInk(_), including the opponent's")
	}
}

// scenario 1 from spec.md §8.5: conflict with wall.
func TestScenarioConflictWithWall(t *testing.T) {
	rows := [][]board.Cell{
		row("########"),
		row("#...P..#"),
		row("########"),
	}
	b := board.New("scenario1", rows)
	st := NewState(b)
	c := threeWide(1, 3)

	// (5,1,Up) would paint x=5,6,7 -> 7 is the wall column, rejected.
	rejected := PlaceAction(c, card.Position{X: 5, Y: 1, Rotation: card.Up})
	if IsValidAction(st, board.South, rejected) {
		t.Fatal("placement overlapping the wall column must be rejected")
	}

	accepted := PlaceAction(c, card.Position{X: 1, Y: 1, Rotation: card.Up})
	if !IsValidAction(st, board.South, accepted) {
		t.Fatal("placement touching own ink within bounds must be accepted")
	}
}

func row(s string) []board.Cell {
	out := make([]board.Cell, len(s))
	for i, r := range s {
		switch r {
		case '#':
			out[i] = board.WallCell
		case '.':
			out[i] = board.EmptyCell
		case 'p':
			out[i] = board.InkCell(board.South)
		case 'P':
			out[i] = board.SpecialInkCell(board.South)
		case 'o':
			out[i] = board.InkCell(board.North)
		case 'O':
			out[i] = board.SpecialInkCell(board.North)
		default:
			out[i] = board.EmptyCell
		}
	}
	return out
}

func TestPriorityTieBreakCancelsToWall(t *testing.T) {
	b := wallBorderedBoard("tie", 9, 9)
	st := NewState(b)
	st.Board.Set(4, 3, board.InkCell(board.South))
	st.Board.Set(4, 5, board.InkCell(board.North))

	south := threeWide(1, 5)
	north := threeWide(2, 5)
	southAct := PlaceAction(south, card.Position{X: 3, Y: 4, Rotation: card.Up})
	northAct := PlaceAction(north, card.Position{X: 3, Y: 4, Rotation: card.Up})

	next, err := Update(st, southAct, northAct)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	for x := 3; x <= 5; x++ {
		if next.Board.At(x, 4).Kind != board.Wall {
			t.Fatalf("cell (%d,4) should have cancelled to Wall on equal priority, got %v", x, next.Board.At(x, 4))
		}
	}
}

func TestPrioritySmallerWins(t *testing.T) {
	b := wallBorderedBoard("priowin", 9, 9)
	st := NewState(b)
	st.Board.Set(4, 3, board.InkCell(board.South))
	st.Board.Set(4, 5, board.InkCell(board.North))

	south := threeWide(1, 1) // stronger claim
	north := threeWide(2, 9) // weaker claim
	southAct := PlaceAction(south, card.Position{X: 3, Y: 4, Rotation: card.Up})
	northAct := PlaceAction(north, card.Position{X: 3, Y: 4, Rotation: card.Up})

	next, err := Update(st, southAct, northAct)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	for x := 3; x <= 5; x++ {
		if !next.Board.At(x, 4).IsInkOf(board.South) {
			t.Fatalf("cell (%d,4) should be south ink (smaller priority wins), got %v", x, next.Board.At(x, 4))
		}
	}
}

func TestPassGrantsSpecialPoint(t *testing.T) {
	b := wallBorderedBoard("pass", 8, 8)
	st := NewState(b)
	st.Board.Set(3, 3, board.InkCell(board.South))
	placeCard := threeWide(1, 3)
	passCard := threeWide(2, 3)

	southAct := PlaceAction(placeCard, card.Position{X: 4, Y: 4, Rotation: card.Up})
	northAct := PassAction(passCard)

	next, err := Update(st, southAct, northAct)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if next.Special[board.North.Index()] != 1 {
		t.Fatalf("passing side should gain exactly 1 special point (plus any surrounds), got %d", next.Special[board.North.Index()])
	}
}

func TestUniversalInvariantsAfterUpdate(t *testing.T) {
	b := wallBorderedBoard("inv", 8, 8)
	st := NewState(b)
	st.Board.Set(2, 2, board.InkCell(board.South))
	st.Board.Set(5, 5, board.InkCell(board.North))

	south := threeWide(1, 3)
	north := threeWide(2, 3)
	southAct := PlaceAction(south, card.Position{X: 2, Y: 3, Rotation: card.Up})
	northAct := PlaceAction(north, card.Position{X: 4, Y: 4, Rotation: card.Up})

	next, err := Update(st, southAct, northAct)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if next.Turn != 1 {
		t.Fatalf("turn should advance to 1, got %d", next.Turn)
	}
	if next.Special[0] < 0 || next.Special[1] < 0 {
		t.Fatalf("special balances must stay non-negative: %v", next.Special)
	}
	if len(next.Consumed[board.South.Index()]) != 1 || next.Consumed[board.South.Index()][0] != 1 {
		t.Fatalf("south consumed history should record card 1, got %v", next.Consumed[board.South.Index()])
	}
	if len(next.Consumed[board.North.Index()]) != 1 || next.Consumed[board.North.Index()][0] != 2 {
		t.Fatalf("north consumed history should record card 2, got %v", next.Consumed[board.North.Index()])
	}
	// wall cells never change.
	if next.Board.At(0, 0).Kind != board.Wall {
		t.Fatal("wall border must remain Wall")
	}
}

func TestUpdateHandDrawsAndShrinks(t *testing.T) {
	c1, c2, c3 := threeWide(1, 1), threeWide(2, 1), threeWide(3, 1)
	ps := &PlayerCardState{Side: board.South, Hand: []*card.Card{c1, c2}, Deck: []*card.Card{c3}}
	UpdateHand(ps, PassAction(c1))
	if len(ps.Hand) != 2 || ps.Hand[0].ID != 2 || ps.Hand[1].ID != 3 {
		t.Fatalf("expected hand [2,3], got %+v", ps.Hand)
	}
	if len(ps.Deck) != 0 {
		t.Fatalf("expected empty deck after draw, got %+v", ps.Deck)
	}
	UpdateHand(ps, PassAction(c2))
	if len(ps.Hand) != 1 || ps.Hand[0].ID != 3 {
		t.Fatalf("expected hand [3] after empty-deck consume, got %+v", ps.Hand)
	}
}

func TestIllegalActionReportsOffendingSide(t *testing.T) {
	b := wallBorderedBoard("illegal", 8, 8)
	st := NewState(b)
	badSouth := PlaceAction(threeWide(1, 1), card.Position{X: 3, Y: 3, Rotation: card.Up})
	pass := PassAction(threeWide(2, 1))
	_, err := Update(st, badSouth, pass)
	if err == nil {
		t.Fatal("expected an IllegalActionError")
	}
	iae, ok := err.(*IllegalActionError)
	if !ok {
		t.Fatalf("expected *IllegalActionError, got %T", err)
	}
	if iae.Side != board.South {
		t.Fatalf("expected South to be reported as offending, got %s", iae.Side)
	}
}
