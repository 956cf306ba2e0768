// Package matchlog is the on-disk record of one finished game, written by
// cmd/local and read back by
// cmd/replayviewer. It stores a resulting board snapshot per turn rather
// than card definitions, so a viewer can step through a match without
// loading the card catalog that produced it.
package matchlog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hailam/paintclash/internal/wire"
)

// Turn is one completed turn: both sides' actions and the board as it stood
// immediately after applying them.
type Turn struct {
	Turn        int32      `json:"turn"`
	SouthAction wire.Action `json:"south_action"`
	NorthAction wire.Action `json:"north_action"`
	Board       wire.Board  `json:"board"`
}

// Match is a full game log.
type Match struct {
	GameID     uint32      `json:"game_id"`
	SouthName  string      `json:"south_name"`
	NorthName  string      `json:"north_name"`
	InitialBoard wire.Board `json:"initial_board"`
	Turns      []Turn      `json:"turns"`
	FinalScore wire.Scores `json:"final_score"`
}

// Save writes m as indented JSON to path.
func Save(path string, m Match) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("matchlog: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("matchlog: write %s: %w", path, err)
	}
	return nil
}

// Load reads a match log from path.
func Load(path string) (Match, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Match{}, fmt.Errorf("matchlog: read %s: %w", path, err)
	}
	var m Match
	if err := json.Unmarshal(data, &m); err != nil {
		return Match{}, fmt.Errorf("matchlog: unmarshal %s: %w", path, err)
	}
	return m, nil
}
