package wire

import (
	"fmt"

	"github.com/hailam/paintclash/internal/board"
	"github.com/hailam/paintclash/internal/card"
	"github.com/hailam/paintclash/internal/rules"
)

// SideToWire converts a board.Side to its wire PlayerSide.
func SideToWire(s board.Side) PlayerSide {
	if s == board.South {
		return South
	}
	return North
}

// SideFromWire converts a wire PlayerSide to a board.Side.
func SideFromWire(p PlayerSide) board.Side {
	if p == South {
		return board.South
	}
	return board.North
}

// RotationToWire converts a card.Rotation to its wire Rotation. The integer
// values already agree (spec.md §6.2); this exists so callers never need to
// know that.
func RotationToWire(r card.Rotation) Rotation { return Rotation(r) }

// RotationFromWire is the inverse of RotationToWire.
func RotationFromWire(r Rotation) card.Rotation { return card.Rotation(r) }

// PositionToWire converts a card.Position.
func PositionToWire(p card.Position) CardPosition {
	return CardPosition{X: p.X, Y: p.Y, Rotation: RotationToWire(p.Rotation)}
}

// PositionFromWire is the inverse of PositionToWire.
func PositionFromWire(p CardPosition) card.Position {
	return card.Position{X: p.X, Y: p.Y, Rotation: RotationFromWire(p.Rotation)}
}

// CellToWire converts a board.Cell to its signed wire encoding.
func CellToWire(c board.Cell) BoardCell {
	switch c.Kind {
	case board.Empty:
		return CellNone
	case board.Wall:
		return CellWall
	case board.Ink:
		if c.Side == board.South {
			return CellInkSouth
		}
		return CellInkNorth
	case board.SpecialInk:
		if c.Side == board.South {
			return CellSpecialSouth
		}
		return CellSpecialNorth
	default:
		return CellNone
	}
}

// CellFromWire is the inverse of CellToWire.
func CellFromWire(c BoardCell) board.Cell {
	switch c {
	case CellNone:
		return board.EmptyCell
	case CellWall:
		return board.WallCell
	case CellInkSouth:
		return board.InkCell(board.South)
	case CellInkNorth:
		return board.InkCell(board.North)
	case CellSpecialSouth:
		return board.SpecialInkCell(board.South)
	case CellSpecialNorth:
		return board.SpecialInkCell(board.North)
	default:
		return board.EmptyCell
	}
}

// BoardToWire flattens a board.Board into its wire snapshot, row-major.
func BoardToWire(b *board.Board) Board {
	cells := make([]BoardCell, 0, b.Width*b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			cells = append(cells, CellToWire(b.At(x, y)))
		}
	}
	return Board{Name: b.Name, Width: b.Width, Height: b.Height, Cells: cells}
}

// BoardFromWire rebuilds a board.Board from its wire snapshot.
func BoardFromWire(wb Board) (*board.Board, error) {
	if len(wb.Cells) != wb.Width*wb.Height {
		return nil, fmt.Errorf("wire: board %q: got %d cells, want %d", wb.Name, len(wb.Cells), wb.Width*wb.Height)
	}
	rows := make([][]board.Cell, wb.Height)
	for y := 0; y < wb.Height; y++ {
		rows[y] = make([]board.Cell, wb.Width)
		for x := 0; x < wb.Width; x++ {
			rows[y][x] = CellFromWire(wb.Cells[y*wb.Width+x])
		}
	}
	return board.New(wb.Name, rows), nil
}

// ScoresToWire converts a (south, north) score pair.
func ScoresToWire(south, north uint32) Scores {
	return Scores{SouthScore: south, NorthScore: north}
}

// ActionToWire converts a rules.Action to its wire form. The card universe
// is not needed in this direction: only the id travels on the wire.
func ActionToWire(a rules.Action) Action {
	var kind ActionKind
	switch a.Kind {
	case rules.Pass:
		kind = ActionPass
	case rules.Place:
		kind = ActionPut
	case rules.SpecialPlace:
		kind = ActionSpecial
	}
	return Action{Kind: kind, CardID: a.Card.ID, Position: PositionToWire(a.Position)}
}

// CardLookup resolves a card id to its definition, for decoding wire actions
// back into rules.Action. Both internal/session and internal/agent-backed
// drivers already hold the full card.Context needed to satisfy this.
type CardLookup func(id uint32) (*card.Card, bool)

// ActionFromWire is the inverse of ActionToWire, resolving CardID through
// lookup. It returns an error (never panics) on an unknown id or kind, since
// a malformed or stale id is client input, not a programming bug.
func ActionFromWire(a Action, lookup CardLookup) (rules.Action, error) {
	c, ok := lookup(a.CardID)
	if !ok {
		return rules.Action{}, fmt.Errorf("wire: unknown card id %d", a.CardID)
	}
	pos := PositionFromWire(a.Position)
	switch a.Kind {
	case ActionPass:
		return rules.PassAction(c), nil
	case ActionPut:
		return rules.PlaceAction(c, pos), nil
	case ActionSpecial:
		return rules.SpecialPlaceAction(c, pos), nil
	default:
		return rules.Action{}, fmt.Errorf("wire: unknown action kind %d", a.Kind)
	}
}
