package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/hailam/paintclash/internal/wire"
)

// Theme is the flat color palette a BoardRenderer paints with.
type Theme struct {
	Empty        color.RGBA
	Wall         color.RGBA
	Grid         color.RGBA
	SouthInk     color.RGBA
	SouthSpecial color.RGBA
	NorthInk     color.RGBA
	NorthSpecial color.RGBA
	Text         color.RGBA
}

// DefaultTheme is a readable light-background palette: South paints warm
// colors, North cool ones, matching the South=+1/North=-1 wire convention
// with a "warm is positive" mnemonic rather than anything the protocol
// requires.
func DefaultTheme() Theme {
	return Theme{
		Empty:        color.RGBA{245, 245, 240, 255},
		Wall:         color.RGBA{60, 60, 64, 255},
		Grid:         color.RGBA{200, 200, 195, 255},
		SouthInk:     color.RGBA{217, 87, 57, 255},
		SouthSpecial: color.RGBA{250, 160, 60, 255},
		NorthInk:     color.RGBA{57, 119, 217, 255},
		NorthSpecial: color.RGBA{60, 200, 220, 255},
		Text:         color.RGBA{30, 30, 30, 255},
	}
}

// BoardRenderer draws a wire.Board (a finished-turn snapshot, as stored in a
// matchlog.Match) into an ebiten.Image. Ink and special-ink cells are
// rounded rects rendered once at startup from a tiny generated SVG
// document and cached as ebiten.Images, the same
// parse-then-rasterize-then-cache pipeline as a sprite atlas — only the
// "sprite" is a flat color instead of artwork, since a card cell has no
// shape beyond its color and side.
type BoardRenderer struct {
	theme    Theme
	cellSize int
	icons    map[wire.BoardCell]*ebiten.Image
}

// NewBoardRenderer builds a renderer drawing each cell at cellSize pixels.
func NewBoardRenderer(cellSize int) *BoardRenderer {
	r := &BoardRenderer{theme: DefaultTheme(), cellSize: cellSize}
	r.icons = map[wire.BoardCell]*ebiten.Image{
		wire.CellInkSouth:     r.roundRectIcon(r.theme.SouthInk),
		wire.CellSpecialSouth: r.roundRectIcon(r.theme.SouthSpecial),
		wire.CellInkNorth:     r.roundRectIcon(r.theme.NorthInk),
		wire.CellSpecialNorth: r.roundRectIcon(r.theme.NorthSpecial),
	}
	return r
}

func (r *BoardRenderer) roundRectIcon(c color.RGBA) *ebiten.Image {
	const renderScale = 3 // render at higher resolution, then scale down when drawn
	size := r.cellSize * renderScale
	radius := size / 5

	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect x="1" y="1" width="%d" height="%d" rx="%d" ry="%d" fill="rgb(%d,%d,%d)" fill-opacity="%.3f"/></svg>`,
		size, size, size-2, size-2, radius, radius, c.R, c.G, c.B, float64(c.A)/255,
	)

	icon, err := oksvg.ReadIconStream(bytes.NewReader([]byte(svg)))
	if err != nil {
		log.Printf("render: generated svg failed to parse: %v", err)
		return ebiten.NewImage(r.cellSize, r.cellSize)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	rgba := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	full := ebiten.NewImageFromImage(rgba)
	out := ebiten.NewImage(r.cellSize, r.cellSize)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(1.0/renderScale, 1.0/renderScale)
	op.Filter = ebiten.FilterLinear
	out.DrawImage(full, op)
	return out
}

// Draw paints b at (originX, originY), cell by cell.
func (r *BoardRenderer) Draw(screen *ebiten.Image, b wire.Board, originX, originY int) {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			cell := b.Cells[y*b.Width+x]
			px := float32(originX + x*r.cellSize)
			py := float32(originY + y*r.cellSize)

			switch cell {
			case wire.CellWall:
				vector.DrawFilledRect(screen, px, py, float32(r.cellSize), float32(r.cellSize), r.theme.Wall, false)
			case wire.CellNone:
				vector.DrawFilledRect(screen, px, py, float32(r.cellSize), float32(r.cellSize), r.theme.Empty, false)
			default:
				vector.DrawFilledRect(screen, px, py, float32(r.cellSize), float32(r.cellSize), r.theme.Empty, false)
				if icon, ok := r.icons[cell]; ok {
					op := &ebiten.DrawImageOptions{}
					op.GeoM.Translate(float64(px), float64(py))
					screen.DrawImage(icon, op)
				}
			}
			vector.StrokeRect(screen, px, py, float32(r.cellSize), float32(r.cellSize), 1, r.theme.Grid, false)
		}
	}
}

// Size returns the pixel dimensions Draw needs for a board of the given
// cell dimensions.
func (r *BoardRenderer) Size(b wire.Board) (width, height int) {
	return b.Width * r.cellSize, b.Height * r.cellSize
}

// DefaultBackground is the color a viewer should clear its screen with
// before calling Draw, matching the renderer's theme.
func (r *BoardRenderer) DefaultBackground() color.RGBA {
	return r.theme.Empty
}

// DrawLabel draws a single line of text at (x, y) in the theme's text color.
// Used for the turn counter and the two most recent action summaries.
func (r *BoardRenderer) DrawLabel(screen *ebiten.Image, s string, x, y int) {
	if labelFace == nil {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(r.theme.Text)
	text.Draw(screen, s, labelFace, op)
}
