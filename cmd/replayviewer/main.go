// Command replayviewer steps through a matchlog.Match file one turn at a
// time, drawing the board as it stood after each turn.
//
// Usage: replayviewer <path-to-match.json>
//
// Left/Right arrows (or A/D) step between turns.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/hailam/paintclash/internal/matchlog"
	"github.com/hailam/paintclash/internal/render"
)

const (
	cellSize     = 56
	windowMargin = 24
	labelGap     = 28
)

type viewer struct {
	match    matchlog.Match
	renderer *render.BoardRenderer
	turn     int // -1 shows InitialBoard, 0..len(Turns)-1 shows that turn's result
}

func newViewer(m matchlog.Match) *viewer {
	return &viewer{
		match:    m,
		renderer: render.NewBoardRenderer(cellSize),
		turn:     -1,
	}
}

func (v *viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyRight) || inpututil.IsKeyJustPressed(ebiten.KeyD) {
		if v.turn < len(v.match.Turns)-1 {
			v.turn++
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyLeft) || inpututil.IsKeyJustPressed(ebiten.KeyA) {
		if v.turn > -1 {
			v.turn--
		}
	}
	return nil
}

func (v *viewer) currentBoard() (board matchlog.Turn, ok bool) {
	if v.turn < 0 {
		return matchlog.Turn{Board: v.match.InitialBoard}, true
	}
	return v.match.Turns[v.turn], true
}

func (v *viewer) Draw(screen *ebiten.Image) {
	screen.Fill(v.renderer.DefaultBackground())

	t, _ := v.currentBoard()
	v.renderer.Draw(screen, t.Board, windowMargin, windowMargin+labelGap)

	header := fmt.Sprintf("%s vs %s — game %d", v.match.SouthName, v.match.NorthName, v.match.GameID)
	v.renderer.DrawLabel(screen, header, windowMargin, windowMargin-4)

	if v.turn == -1 {
		v.renderer.DrawLabel(screen, "initial deal", windowMargin, windowMargin+labelGap+cellSize*t.Board.Height+20)
	} else {
		summary := fmt.Sprintf("turn %d   south: %s   north: %s", t.Turn, t.SouthAction.Kind, t.NorthAction.Kind)
		v.renderer.DrawLabel(screen, summary, windowMargin, windowMargin+labelGap+cellSize*t.Board.Height+20)
	}

	if v.turn == len(v.match.Turns)-1 {
		result := fmt.Sprintf("final score  south %d - north %d", v.match.FinalScore.SouthScore, v.match.FinalScore.NorthScore)
		v.renderer.DrawLabel(screen, result, windowMargin, windowMargin+labelGap+cellSize*t.Board.Height+44)
	}

	ebitenutil.DebugPrintAt(screen, "←/→ step turns", windowMargin, windowMargin+labelGap+cellSize*t.Board.Height+70)
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := v.renderer.Size(v.match.InitialBoard)
	return w + windowMargin*2, h + windowMargin*2 + labelGap + 100
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("usage: replayviewer <path-to-match.json>")
	}

	m, err := matchlog.Load(flag.Arg(0))
	if err != nil {
		log.Fatalf("replayviewer: %v", err)
	}

	v := newViewer(m)
	ebiten.SetWindowSize(v.Layout(0, 0))
	ebiten.SetWindowTitle("paintclash replay")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}
