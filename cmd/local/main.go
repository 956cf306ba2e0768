// Command local runs matches directly against the rules engine, with no
// network in between — two agents self-play a batch of games, each logged
// for cmd/replayviewer and optionally recorded to a store.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hailam/paintclash/internal/agent"
	"github.com/hailam/paintclash/internal/board"
	"github.com/hailam/paintclash/internal/card"
	"github.com/hailam/paintclash/internal/config"
	"github.com/hailam/paintclash/internal/matchlog"
	"github.com/hailam/paintclash/internal/rules"
	"github.com/hailam/paintclash/internal/store"
	"github.com/hailam/paintclash/internal/telemetry"
	"github.com/hailam/paintclash/internal/wire"
)

func main() {
	games := flag.Int("games", 100, "number of games to self-play")
	southStrategy := flag.String("south", "random", "south agent: random or mcts")
	northStrategy := flag.String("north", "mcts", "north agent: random or mcts")
	mctsIterations := flag.Int("mcts-iterations", 500, "IS-MCTS iterations per move")
	seed := flag.Int64("seed", time.Now().UnixNano(), "base rng seed for the agents; game i seeds south with seed+2i and north with seed+2i+1")
	gameID := flag.Uint("game", 1, "game id recorded in match logs")
	cardsPath := flag.String("cards", "testdata/cards.json", "path to the card catalog")
	boardPath := flag.String("board", "testdata/board.json", "path to the board template")
	decksPath := flag.String("decks", "testdata/decks.json", "path to the game-id-to-deck mapping")
	logDir := flag.String("log-dir", "", "directory to write per-game matchlog.Match files; empty disables logging")
	storeDir := flag.String("store", "", "directory for the match-result database; empty disables persistence")
	flag.Parse()

	log := telemetry.NewLogger("local")

	ctx, err := config.LoadContext(*cardsPath, *boardPath, *decksPath)
	if err != nil {
		log.Error(err, "failed to load context")
		os.Exit(1)
	}

	deckIDs := ctx.Decks[uint32(*gameID)]

	var st *store.Store
	if *storeDir != "" {
		st, err = store.Open(*storeDir)
		if err != nil {
			log.Error(err, "failed to open store")
			os.Exit(1)
		}
		defer st.Close()
	}

	if *logDir != "" {
		if err := os.MkdirAll(*logDir, 0o755); err != nil {
			log.Error(err, "failed to create log directory")
			os.Exit(1)
		}
	}

	var southWins, northWins, draws int
	start := time.Now()

	for i := 0; i < *games; i++ {
		south := buildAgent(*southStrategy, *mctsIterations, rand.NewSource(*seed+int64(i)*2))
		north := buildAgent(*northStrategy, *mctsIterations, rand.NewSource(*seed+int64(i)*2+1))

		result, err := playGame(ctx, deckIDs, south, north, uint32(*gameID))
		if err != nil {
			log.Error(err, "game failed", "game", i)
			continue
		}

		switch {
		case result.FinalScore.SouthScore > result.FinalScore.NorthScore:
			southWins++
		case result.FinalScore.NorthScore > result.FinalScore.SouthScore:
			northWins++
		default:
			draws++
		}

		if *logDir != "" {
			path := filepath.Join(*logDir, fmt.Sprintf("game-%04d.json", i))
			if err := matchlog.Save(path, result); err != nil {
				log.Error(err, "failed to save matchlog", "game", i)
			}
		}

		if st != nil {
			if err := st.RecordMatch(store.MatchResult{
				GameID:      result.GameID,
				SouthName:   result.SouthName,
				NorthName:   result.NorthName,
				SouthScore:  result.FinalScore.SouthScore,
				NorthScore:  result.FinalScore.NorthScore,
				Turns:       int32(len(result.Turns)),
				CompletedAt: time.Now().Unix(),
			}); err != nil {
				log.Error(err, "failed to record match", "game", i)
			}
		}
	}

	elapsed := time.Since(start)
	log.Info("self-play complete",
		"games", *games,
		"south_wins", southWins,
		"north_wins", northWins,
		"draws", draws,
		"elapsed", humanize.RelTime(start, time.Now(), "", ""),
		"elapsed_exact", elapsed,
	)
}

func buildAgent(strategy string, iterations int, src rand.Source) agent.Agent {
	switch strategy {
	case "mcts":
		return agent.NewMCTS(iterations, src)
	default:
		return agent.NewRandom(src)
	}
}

// playGame runs one game to completion against the rules engine directly,
// dealing each side a hand from deckIDs and handling the one-shot redeal
// decision exactly as a ServerSession would.
func playGame(ctx *config.Context, deckIDs []uint32, south, north agent.Agent, gameID uint32) (matchlog.Match, error) {
	deck, err := resolveIDs(ctx, deckIDs)
	if err != nil {
		return matchlog.Match{}, err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	southDeck := append([]*card.Card{}, deck...)
	northDeck := append([]*card.Card{}, deck...)
	rng.Shuffle(len(southDeck), func(i, j int) { southDeck[i], southDeck[j] = southDeck[j], southDeck[i] })
	rng.Shuffle(len(northDeck), func(i, j int) { northDeck[i], northDeck[j] = northDeck[j], northDeck[i] })

	south.InitGame(board.South, ctx.AllCards, southDeck)
	north.InitGame(board.North, ctx.AllCards, northDeck)

	southCards := dealAndRedeal(south, southDeck, rng)
	northCards := dealAndRedeal(north, northDeck, rng)

	state := rules.NewState(ctx.Board)
	match := matchlog.Match{
		GameID:       gameID,
		SouthName:    south.Name(),
		NorthName:    north.Name(),
		InitialBoard: wire.BoardToWire(state.Board),
	}

	for !state.Terminal() {
		southAction := south.ChooseAction(state, southCards.Hand, 0)
		northAction := north.ChooseAction(state, northCards.Hand, 0)

		next, err := rules.Update(state, southAction, northAction)
		if err != nil {
			return matchlog.Match{}, fmt.Errorf("local: engine rejected self-play turn: %w", err)
		}
		state = next
		rules.UpdateHand(&southCards, southAction)
		rules.UpdateHand(&northCards, northAction)

		match.Turns = append(match.Turns, matchlog.Turn{
			Turn:        state.Turn,
			SouthAction: wire.ActionToWire(southAction),
			NorthAction: wire.ActionToWire(northAction),
			Board:       wire.BoardToWire(state.Board),
		})
	}

	southScore, northScore := rules.Score(state.Board)
	match.FinalScore = wire.ScoresToWire(southScore, northScore)
	return match, nil
}

func dealAndRedeal(ag agent.Agent, deck []*card.Card, rng *rand.Rand) rules.PlayerCardState {
	hand, remainder := deck[:rules.HandSize], deck[rules.HandSize:]
	if ag.NeedsRedeal(hand) {
		full := append(append([]*card.Card{}, hand...), remainder...)
		rng.Shuffle(len(full), func(i, j int) { full[i], full[j] = full[j], full[i] })
		hand, remainder = full[:rules.HandSize], full[rules.HandSize:]
	}
	return rules.PlayerCardState{Hand: hand, Deck: remainder}
}

func resolveIDs(ctx *config.Context, ids []uint32) ([]*card.Card, error) {
	cards := make([]*card.Card, 0, len(ids))
	for _, id := range ids {
		c, ok := ctx.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("local: unknown card id %d", id)
		}
		cards = append(cards, c)
	}
	return cards, nil
}
