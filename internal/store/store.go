// Package store persists completed-match results in a small embedded
// key-value database, recording per-agent win/loss/draw statistics
// alongside each match.
package store

import (
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/hailam/paintclash/internal/board"
)

// MatchResult records one completed game's outcome.
type MatchResult struct {
	GameID      uint32 `json:"game_id"`
	SouthName   string `json:"south_name"`
	NorthName   string `json:"north_name"`
	SouthScore  uint32 `json:"south_score"`
	NorthScore  uint32 `json:"north_score"`
	Turns       int32  `json:"turns"`
	CompletedAt int64  `json:"completed_at_unix"`
}

// Winner reports which side scored higher. On a tie it returns ok=false;
// the returned side is then meaningless and must not be used.
func (r MatchResult) Winner() (side board.Side, ok bool) {
	switch {
	case r.SouthScore > r.NorthScore:
		return board.South, true
	case r.NorthScore > r.SouthScore:
		return board.North, true
	default:
		return board.South, false
	}
}

// Stats summarizes every recorded result for one agent name.
type Stats struct {
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Draws  int    `json:"draws"`
}

func (s Stats) Played() int { return s.Wins + s.Losses + s.Draws }

// Store wraps a badger.DB with typed accessors for match results and
// derived per-agent stats.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) a badger database rooted at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func matchKey(gameID uint32, completedAt int64) []byte {
	return []byte(fmt.Sprintf("match:%010d:%020d", gameID, completedAt))
}

func statsKey(name string) []byte {
	return []byte("stats:" + name)
}

// RecordMatch persists result and updates both players' running Stats in a
// single transaction.
func (s *Store) RecordMatch(result MatchResult) error {
	return s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("store: marshal match: %w", err)
		}
		if err := txn.Set(matchKey(result.GameID, result.CompletedAt), data); err != nil {
			return err
		}

		winner, decisive := result.Winner()
		southOutcome, northOutcome := draw, draw
		if decisive {
			if winner == board.South {
				southOutcome, northOutcome = win, loss
			} else {
				southOutcome, northOutcome = loss, win
			}
		}
		if err := applyOutcome(txn, result.SouthName, southOutcome); err != nil {
			return err
		}
		return applyOutcome(txn, result.NorthName, northOutcome)
	})
}

type outcome int

const (
	win outcome = iota
	loss
	draw
)

func applyOutcome(txn *badger.Txn, name string, o outcome) error {
	var stats Stats
	item, err := txn.Get(statsKey(name))
	switch err {
	case nil:
		if copyErr := item.Value(func(v []byte) error { return json.Unmarshal(v, &stats) }); copyErr != nil {
			return fmt.Errorf("store: unmarshal stats for %s: %w", name, copyErr)
		}
	case badger.ErrKeyNotFound:
		stats = Stats{Name: name}
	default:
		return fmt.Errorf("store: read stats for %s: %w", name, err)
	}

	switch o {
	case win:
		stats.Wins++
	case loss:
		stats.Losses++
	case draw:
		stats.Draws++
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("store: marshal stats for %s: %w", name, err)
	}
	return txn.Set(statsKey(name), data)
}

// StatsFor returns the recorded Stats for name, or a zero Stats if it has
// never played.
func (s *Store) StatsFor(name string) (Stats, error) {
	stats := Stats{Name: name}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(statsKey(name))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error { return json.Unmarshal(v, &stats) })
	})
	if err != nil {
		return Stats{}, fmt.Errorf("store: StatsFor %s: %w", name, err)
	}
	return stats, nil
}
