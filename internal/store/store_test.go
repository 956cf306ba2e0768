package store

import (
	"testing"

	badger "github.com/dgraph-io/badger/v4"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open in-memory badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Store{db: db}
}

func TestRecordMatchUpdatesBothSidesStats(t *testing.T) {
	s := openTestStore(t)

	err := s.RecordMatch(MatchResult{
		GameID: 1, SouthName: "random", NorthName: "mcts",
		SouthScore: 20, NorthScore: 30, Turns: 12, CompletedAt: 1000,
	})
	if err != nil {
		t.Fatalf("RecordMatch: %v", err)
	}

	south, err := s.StatsFor("random")
	if err != nil {
		t.Fatal(err)
	}
	if south.Losses != 1 || south.Wins != 0 || south.Draws != 0 {
		t.Fatalf("south stats: %+v", south)
	}

	north, err := s.StatsFor("mcts")
	if err != nil {
		t.Fatal(err)
	}
	if north.Wins != 1 || north.Losses != 0 {
		t.Fatalf("north stats: %+v", north)
	}
}

func TestRecordMatchTieCountsAsDraw(t *testing.T) {
	s := openTestStore(t)

	err := s.RecordMatch(MatchResult{
		GameID: 2, SouthName: "a", NorthName: "b",
		SouthScore: 10, NorthScore: 10, Turns: 12, CompletedAt: 2000,
	})
	if err != nil {
		t.Fatalf("RecordMatch: %v", err)
	}

	a, _ := s.StatsFor("a")
	b, _ := s.StatsFor("b")
	if a.Draws != 1 || b.Draws != 1 {
		t.Fatalf("expected a draw for both sides, got a=%+v b=%+v", a, b)
	}
}

func TestStatsForUnknownNameIsZeroValue(t *testing.T) {
	s := openTestStore(t)
	stats, err := s.StatsFor("nobody")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Played() != 0 {
		t.Fatalf("expected zero stats for an unplayed name, got %+v", stats)
	}
}

func TestStatsAccumulateAcrossMultipleMatches(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 3; i++ {
		err := s.RecordMatch(MatchResult{
			GameID: uint32(i), SouthName: "veteran", NorthName: "rookie",
			SouthScore: 15, NorthScore: 5, Turns: 12, CompletedAt: int64(i) * 1000,
		})
		if err != nil {
			t.Fatalf("RecordMatch %d: %v", i, err)
		}
	}
	veteran, _ := s.StatsFor("veteran")
	if veteran.Wins != 3 || veteran.Played() != 3 {
		t.Fatalf("expected 3 wins across 3 matches, got %+v", veteran)
	}
}
