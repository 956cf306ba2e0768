// Package card defines card patterns, rotations, and placement geometry.
package card

import "fmt"

// Rotation is the orientation a card is placed with.
type Rotation int8

const (
	Up Rotation = iota
	Right
	Down
	Left
)

// Rotations lists the fixed enumeration order used wherever all rotations
// must be iterated (e.g. the random agent's action enumeration).
var Rotations = [4]Rotation{Up, Right, Down, Left}

func (r Rotation) String() string {
	switch r {
	case Up:
		return "Up"
	case Right:
		return "Right"
	case Down:
		return "Down"
	case Left:
		return "Left"
	default:
		return fmt.Sprintf("Rotation(%d)", int(r))
	}
}

// CellType is the tag of a pattern cell.
type CellType int8

const (
	Painted CellType = iota
	SpecialPainted
)

// Cell is one cell of a card's pattern, at local coordinates relative to the
// card's top-left corner under Rotation Up.
type Cell struct {
	X, Y     int
	Type     CellType
	Priority int
}

// Card is a stable, read-only card definition. Patterns and bounding boxes
// for every rotation are cached at construction time from the Up pattern.
type Card struct {
	ID          uint32
	Name        string
	SpecialCost int

	basePattern []Cell
	patterns    [4][]Cell
	widths      [4]int
	heights     [4]int
}

// New builds a Card from its Up-rotation pattern, caching rotated patterns
// and bounding boxes for all four rotations.
func New(id uint32, name string, specialCost int, pattern []Cell) *Card {
	c := &Card{ID: id, Name: name, SpecialCost: specialCost, basePattern: append([]Cell(nil), pattern...)}
	w, h := bbox(pattern)
	for _, r := range Rotations {
		rp, rw, rh := rotatePattern(pattern, r, w, h)
		c.patterns[r] = rp
		c.widths[r] = rw
		c.heights[r] = rh
	}
	return c
}

// PaintedCount returns the number of cells the base pattern paints
// (Painted + SpecialPainted, each counted once).
func (c *Card) PaintedCount() int { return len(c.basePattern) }

// Pattern returns the cached pattern for the given rotation.
func (c *Card) Pattern(r Rotation) []Cell { return c.patterns[r] }

// Width returns calculate_width(rotation): the pattern's bounding width.
func (c *Card) Width(r Rotation) int { return c.widths[r] }

// Height returns calculate_height(rotation): the pattern's bounding height.
func (c *Card) Height(r Rotation) int { return c.heights[r] }

func bbox(pattern []Cell) (w, h int) {
	for _, cell := range pattern {
		if cell.X+1 > w {
			w = cell.X + 1
		}
		if cell.Y+1 > h {
			h = cell.Y + 1
		}
	}
	return w, h
}

// rotatePattern rotates a Cell pattern 0/90/180/270 degrees clockwise and
// translates it back so its bounding box starts again at (0,0).
func rotatePattern(pattern []Cell, r Rotation, w, h int) ([]Cell, int, int) {
	out := make([]Cell, len(pattern))
	var rw, rh int
	switch r {
	case Up:
		rw, rh = w, h
		copy(out, pattern)
	case Right:
		rw, rh = h, w
		for i, cell := range pattern {
			out[i] = Cell{X: h - 1 - cell.Y, Y: cell.X, Type: cell.Type, Priority: cell.Priority}
		}
	case Down:
		rw, rh = w, h
		for i, cell := range pattern {
			out[i] = Cell{X: w - 1 - cell.X, Y: h - 1 - cell.Y, Type: cell.Type, Priority: cell.Priority}
		}
	case Left:
		rw, rh = h, w
		for i, cell := range pattern {
			out[i] = Cell{X: cell.Y, Y: w - 1 - cell.X, Type: cell.Type, Priority: cell.Priority}
		}
	}
	return out, rw, rh
}

// Position locates a card's top-left corner, in its rotated frame, onto
// absolute board coordinates.
type Position struct {
	X, Y     int32
	Rotation Rotation
}

// AbsoluteCells returns the card's painted cells under pos, translated to
// absolute board coordinates.
func (c *Card) AbsoluteCells(pos Position) []AbsoluteCell {
	pattern := c.patterns[pos.Rotation]
	out := make([]AbsoluteCell, len(pattern))
	for i, cell := range pattern {
		out[i] = AbsoluteCell{
			X:        int(pos.X) + cell.X,
			Y:        int(pos.Y) + cell.Y,
			Type:     cell.Type,
			Priority: cell.Priority,
		}
	}
	return out
}

// AbsoluteCell is a pattern cell already translated to board coordinates.
type AbsoluteCell struct {
	X, Y     int
	Type     CellType
	Priority int
}
