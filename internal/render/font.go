// Package render draws a matchlog.Match turn-by-turn onto an ebiten.Image,
// for cmd/replayviewer.
package render

import (
	"bytes"
	"log"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

const labelFontSize = 16.0

var labelFace *text.GoTextFace

func init() {
	source, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		log.Printf("render: failed to load label font: %v", err)
		return
	}
	labelFace = &text.GoTextFace{Source: source, Size: labelFontSize}
}
