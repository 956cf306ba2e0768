// Package config loads the card catalog, board template, and decks a server
// or local driver needs at startup. Their on-disk syntax is this project's
// own choice (spec.md §6.4 leaves it unspecified, calling it an external
// collaborator's concern): small JSON documents, read once.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hailam/paintclash/internal/board"
	"github.com/hailam/paintclash/internal/card"
)

// Context is the read-only universe of cards and the board template a
// session is played on. It is shared by every session and agent; nothing
// mutates it after LoadContext returns (spec.md §9 "global mutable state:
// none").
type Context struct {
	AllCards []*card.Card
	CardByID map[uint32]*card.Card
	Board    *board.Board
	Decks    map[uint32][]uint32 // game id -> ordered card ids
}

// Lookup resolves a card id, satisfying wire.CardLookup.
func (c *Context) Lookup(id uint32) (*card.Card, bool) {
	card, ok := c.CardByID[id]
	return card, ok
}

type cardFile struct {
	ID          uint32     `json:"id"`
	Name        string     `json:"name"`
	SpecialCost int        `json:"special_cost"`
	Pattern     []cellFile `json:"pattern"`
}

type cellFile struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Type     string `json:"type"`
	Priority int    `json:"priority"`
}

type boardFile struct {
	Name string   `json:"name"`
	Rows []string `json:"rows"`
}

type decksFile struct {
	Decks map[string][]uint32 `json:"decks"`
}

// LoadContext reads the card catalog from cardsPath, the board template from
// boardPath, and the game-id-to-deck mapping from decksPath.
func LoadContext(cardsPath, boardPath, decksPath string) (*Context, error) {
	cards, byID, err := loadCards(cardsPath)
	if err != nil {
		return nil, fmt.Errorf("config: cards: %w", err)
	}
	b, err := loadBoard(boardPath)
	if err != nil {
		return nil, fmt.Errorf("config: board: %w", err)
	}
	decks, err := loadDecks(decksPath)
	if err != nil {
		return nil, fmt.Errorf("config: decks: %w", err)
	}
	return &Context{AllCards: cards, CardByID: byID, Board: b, Decks: decks}, nil
}

func loadCards(path string) ([]*card.Card, map[uint32]*card.Card, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var files []cardFile
	if err := json.Unmarshal(raw, &files); err != nil {
		return nil, nil, err
	}
	cards := make([]*card.Card, 0, len(files))
	byID := make(map[uint32]*card.Card, len(files))
	for _, f := range files {
		pattern := make([]card.Cell, len(f.Pattern))
		for i, cf := range f.Pattern {
			t := card.Painted
			if cf.Type == "special" {
				t = card.SpecialPainted
			}
			pattern[i] = card.Cell{X: cf.X, Y: cf.Y, Type: t, Priority: cf.Priority}
		}
		c := card.New(f.ID, f.Name, f.SpecialCost, pattern)
		cards = append(cards, c)
		byID[c.ID] = c
	}
	return cards, byID, nil
}

func loadBoard(path string) (*board.Board, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f boardFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	rows := make([][]board.Cell, len(f.Rows))
	for y, line := range f.Rows {
		rows[y] = make([]board.Cell, len(line))
		for x, r := range line {
			rows[y][x] = parseBoardGlyph(r)
		}
	}
	return board.New(f.Name, rows), nil
}

func parseBoardGlyph(r rune) board.Cell {
	switch r {
	case '#':
		return board.WallCell
	case 'p':
		return board.InkCell(board.South)
	case 'P':
		return board.SpecialInkCell(board.South)
	case 'o':
		return board.InkCell(board.North)
	case 'O':
		return board.SpecialInkCell(board.North)
	default:
		return board.EmptyCell
	}
}

func loadDecks(path string) (map[uint32][]uint32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f decksFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	out := make(map[uint32][]uint32, len(f.Decks))
	for k, ids := range f.Decks {
		var gameID uint32
		if _, err := fmt.Sscanf(k, "%d", &gameID); err != nil {
			return nil, fmt.Errorf("config: deck key %q is not a game id: %w", k, err)
		}
		out[gameID] = ids
	}
	return out, nil
}
