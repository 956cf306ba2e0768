package rules

import (
	"github.com/hailam/paintclash/internal/board"
	"github.com/hailam/paintclash/internal/card"
)

// IsValidAction implements spec.md §4.1.2.
func IsValidAction(state *State, side board.Side, action Action) bool {
	switch action.Kind {
	case Pass:
		return true
	case Place:
		return isValidPlace(state, side, action)
	case SpecialPlace:
		return isValidSpecialPlace(state, side, action)
	default:
		return false
	}
}

func isValidPlace(state *State, side board.Side, action Action) bool {
	cells := action.Card.AbsoluteCells(action.Position)
	touching := false
	for _, cell := range cells {
		if state.Board.At(cell.X, cell.Y).Kind != board.Empty {
			return false
		}
		if !touching {
			state.Board.Neighbors8(cell.X, cell.Y, func(_, _ int, c board.Cell) {
				if c.IsInkOf(side) {
					touching = true
				}
			})
		}
	}
	return touching
}

func isValidSpecialPlace(state *State, side board.Side, action Action) bool {
	if state.Special[side.Index()] < action.Card.SpecialCost {
		return false
	}
	cells := action.Card.AbsoluteCells(action.Position)
	touching := false
	for _, cell := range cells {
		switch state.Board.At(cell.X, cell.Y).Kind {
		case board.Wall, board.SpecialInk:
			return false
		}
		if !touching {
			state.Board.Neighbors8(cell.X, cell.Y, func(_, _ int, c board.Cell) {
				if c.IsSpecialInkOf(side) {
					touching = true
				}
			})
		}
	}
	return touching
}

// paintCellType maps a card cell's type to the board cell it paints for side.
func paintCellType(t card.CellType, side board.Side) board.Cell {
	if t == card.SpecialPainted {
		return board.SpecialInkCell(side)
	}
	return board.InkCell(side)
}

// Update implements the simultaneous state update of spec.md §4.1.3. It
// returns an *IllegalActionError identifying the first offending side found
// (south is checked before north) instead of mutating state or panicking;
// the caller (internal/session) is responsible for turning that into the
// forfeit policy of spec.md §7.
func Update(state *State, southAction, northAction Action) (*State, error) {
	if !IsValidAction(state, board.South, southAction) {
		return nil, &IllegalActionError{Side: board.South, Action: southAction, Reason: "action is not legal for the current state"}
	}
	if !IsValidAction(state, board.North, northAction) {
		return nil, &IllegalActionError{Side: board.North, Action: northAction, Reason: "action is not legal for the current state"}
	}

	next := state.Clone()

	surroundedBefore := CountSurroundedSpecials(next.Board)

	applyConflicts(next.Board, southAction, northAction)

	surroundedAfter := CountSurroundedSpecials(next.Board)

	for _, side := range [2]board.Side{board.South, board.North} {
		i := side.Index()
		next.Special[i] += surroundedAfter[i] - surroundedBefore[i]
	}
	if southAction.Kind == Pass {
		next.Special[board.South.Index()]++
	}
	if northAction.Kind == Pass {
		next.Special[board.North.Index()]++
	}
	if southAction.Kind == SpecialPlace {
		next.Special[board.South.Index()] -= southAction.Card.SpecialCost
	}
	if northAction.Kind == SpecialPlace {
		next.Special[board.North.Index()] -= northAction.Card.SpecialCost
	}
	for _, side := range [2]board.Side{board.South, board.North} {
		if next.Special[side.Index()] < 0 {
			panic("rules: special balance went negative, this is a bug in legality checking")
		}
	}

	next.Consumed[board.South.Index()] = append(next.Consumed[board.South.Index()], southAction.Card.ID)
	next.Consumed[board.North.Index()] = append(next.Consumed[board.North.Index()], northAction.Card.ID)

	next.Turn++

	return next, nil
}

func cellsFor(action Action) []card.AbsoluteCell {
	if action.Kind == Pass {
		return nil
	}
	return action.Card.AbsoluteCells(action.Position)
}

// applyConflicts performs the actual painting with tie-break, per spec.md
// §4.1.3 step 3: cells contested by both sides resolve by priority (smaller
// wins; equal priority cancels to Wall); cells painted by only one side
// apply unconditionally.
func applyConflicts(b *board.Board, southAction, northAction Action) {
	south := cellsFor(southAction)
	north := cellsFor(northAction)

	type key struct{ x, y int }
	southByPos := make(map[key]card.AbsoluteCell, len(south))
	for _, c := range south {
		southByPos[key{c.X, c.Y}] = c
	}
	northByPos := make(map[key]card.AbsoluteCell, len(north))
	for _, c := range north {
		northByPos[key{c.X, c.Y}] = c
	}

	applied := make(map[key]bool, len(south)+len(north))

	resolve := func(k key) {
		if applied[k] {
			return
		}
		applied[k] = true
		sc, hasSouth := southByPos[k]
		nc, hasNorth := northByPos[k]
		switch {
		case hasSouth && hasNorth:
			switch {
			case sc.Priority < nc.Priority:
				b.Set(k.x, k.y, paintCellType(sc.Type, board.South))
			case nc.Priority < sc.Priority:
				b.Set(k.x, k.y, paintCellType(nc.Type, board.North))
			default:
				b.Set(k.x, k.y, board.WallCell)
			}
		case hasSouth:
			b.Set(k.x, k.y, paintCellType(sc.Type, board.South))
		case hasNorth:
			b.Set(k.x, k.y, paintCellType(nc.Type, board.North))
		}
	}

	for _, c := range south {
		resolve(key{c.X, c.Y})
	}
	for _, c := range north {
		resolve(key{c.X, c.Y})
	}
}

// CountSurroundedSpecials counts, per side, the SpecialInk(side) cells whose
// eight neighbors are all non-Empty (spec.md §4.1.3, GLOSSARY "Surrounded
// special").
func CountSurroundedSpecials(b *board.Board) [2]int {
	var counts [2]int
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c := b.At(x, y)
			if c.Kind != board.SpecialInk {
				continue
			}
			surrounded := true
			b.Neighbors8(x, y, func(_, _ int, n board.Cell) {
				if n.Kind == board.Empty {
					surrounded = false
				}
			})
			if surrounded {
				counts[c.Side.Index()]++
			}
		}
	}
	return counts
}

// UpdateHand implements spec.md §4.1.4: remove the consumed card from hand,
// then draw from the front of the deck if the deck is non-empty.
func UpdateHand(ps *PlayerCardState, action Action) {
	if action.Card == nil {
		return
	}
	for i, c := range ps.Hand {
		if c.ID == action.Card.ID {
			ps.Hand = append(ps.Hand[:i], ps.Hand[i+1:]...)
			break
		}
	}
	if len(ps.Deck) > 0 {
		ps.Hand = append(ps.Hand, ps.Deck[0])
		ps.Deck = ps.Deck[1:]
	}
}

// Score computes each side's board-control score: the count of cells it
// holds, Ink and SpecialInk alike. This is what spec.md §8.3's MCTS
// "score the terminal board" step and the server's final Scores message
// both report.
func Score(b *board.Board) (south, north uint32) {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c := b.At(x, y)
			switch {
			case c.Kind == board.Ink || c.Kind == board.SpecialInk:
				if c.Side == board.South {
					south++
				} else {
					north++
				}
			}
		}
	}
	return south, north
}
