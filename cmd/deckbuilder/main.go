// Command deckbuilder is a mechanically simple genetic-algorithm driver
// over deck composition: generate random decks, self-play candidates
// against each other with the random agent, keep the top performers,
// mutate, repeat. It consumes internal/rules and internal/agent purely as
// libraries; it adds no rules-engine surface of its own.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/hailam/paintclash/internal/agent"
	"github.com/hailam/paintclash/internal/board"
	"github.com/hailam/paintclash/internal/card"
	"github.com/hailam/paintclash/internal/config"
	"github.com/hailam/paintclash/internal/rules"
	"github.com/hailam/paintclash/internal/telemetry"
)

func main() {
	population := flag.Int("population", 20, "number of candidate decks per generation")
	generations := flag.Int("generations", 10, "number of generations to evolve")
	keep := flag.Int("keep", 4, "number of top performers kept as parents each generation")
	seed := flag.Int64("seed", time.Now().UnixNano(), "rng seed")
	cardsPath := flag.String("cards", "testdata/cards.json", "path to the card catalog")
	boardPath := flag.String("board", "testdata/board.json", "path to the board template")
	decksPath := flag.String("decks", "testdata/decks.json", "path to the game-id-to-deck mapping")
	flag.Parse()

	log := telemetry.NewLogger("deckbuilder")

	ctx, err := config.LoadContext(*cardsPath, *boardPath, *decksPath)
	if err != nil {
		log.Error(err, "failed to load context")
		os.Exit(1)
	}
	if len(ctx.AllCards) < rules.DeckSize {
		log.Error(fmt.Errorf("card catalog has %d cards, need at least %d", len(ctx.AllCards), rules.DeckSize), "catalog too small")
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	pool := make([]deck, *population)
	for i := range pool {
		pool[i] = randomDeck(ctx.AllCards, rng)
	}

	for gen := 0; gen < *generations; gen++ {
		fitness := evaluate(ctx, pool, rng)
		sort.Sort(sort.Reverse(byFitness{pool, fitness}))

		best := fitness[0]
		log.Info("generation complete", "generation", gen, "best_fitness", best)

		parents := pool[:min(*keep, len(pool))]
		pool = nextGeneration(parents, ctx.AllCards, *population, rng)
	}

	log.Info("deck evolution complete", "final_population", len(pool))
}

// deck is a candidate set of rules.DeckSize card ids.
type deck []uint32

func randomDeck(all []*card.Card, rng *rand.Rand) deck {
	indices := rng.Perm(len(all))[:rules.DeckSize]
	d := make(deck, rules.DeckSize)
	for i, idx := range indices {
		d[i] = all[idx].ID
	}
	return d
}

// evaluate plays each candidate deck against every other once with the
// random agent and returns each deck's total wins-minus-losses score.
func evaluate(ctx *config.Context, pool []deck, rng *rand.Rand) []int {
	fitness := make([]int, len(pool))
	for i := range pool {
		for j := range pool {
			if i == j {
				continue
			}
			south, north := playOneOff(ctx, pool[i], pool[j], rng)
			switch {
			case south > north:
				fitness[i]++
			case north > south:
				fitness[i]--
			}
		}
	}
	return fitness
}

func playOneOff(ctx *config.Context, southDeckIDs, northDeckIDs deck, rng *rand.Rand) (south, north uint32) {
	southDeck := resolve(ctx, southDeckIDs)
	northDeck := resolve(ctx, northDeckIDs)
	rng.Shuffle(len(southDeck), func(i, j int) { southDeck[i], southDeck[j] = southDeck[j], southDeck[i] })
	rng.Shuffle(len(northDeck), func(i, j int) { northDeck[i], northDeck[j] = northDeck[j], northDeck[i] })

	southAgent := agent.NewRandom(rng)
	northAgent := agent.NewRandom(rng)
	southAgent.InitGame(board.South, ctx.AllCards, southDeck)
	northAgent.InitGame(board.North, ctx.AllCards, northDeck)

	southCards := rules.PlayerCardState{Hand: southDeck[:rules.HandSize], Deck: southDeck[rules.HandSize:]}
	northCards := rules.PlayerCardState{Hand: northDeck[:rules.HandSize], Deck: northDeck[rules.HandSize:]}

	state := rules.NewState(ctx.Board)
	for !state.Terminal() {
		southAction := southAgent.ChooseAction(state, southCards.Hand, 0)
		northAction := northAgent.ChooseAction(state, northCards.Hand, 0)
		next, err := rules.Update(state, southAction, northAction)
		if err != nil {
			return 0, 0
		}
		state = next
		rules.UpdateHand(&southCards, southAction)
		rules.UpdateHand(&northCards, northAction)
	}
	return rules.Score(state.Board)
}

func resolve(ctx *config.Context, ids deck) []*card.Card {
	cards := make([]*card.Card, 0, len(ids))
	for _, id := range ids {
		if c, ok := ctx.Lookup(id); ok {
			cards = append(cards, c)
		}
	}
	return cards
}

// nextGeneration fills a new population of size n from parents by crossover
// and single-card mutation.
func nextGeneration(parents []deck, all []*card.Card, n int, rng *rand.Rand) []deck {
	next := make([]deck, 0, n)
	next = append(next, parents...)
	for len(next) < n {
		a := parents[rng.Intn(len(parents))]
		b := parents[rng.Intn(len(parents))]
		child := crossover(a, b, rng)
		mutate(&child, all, rng)
		next = append(next, child)
	}
	return next[:n]
}

func crossover(a, b deck, rng *rand.Rand) deck {
	seen := make(map[uint32]bool, rules.DeckSize)
	child := make(deck, 0, rules.DeckSize)
	// Single-point crossover: a's ids before point, b's from point on, then
	// the rest of both parents to make up for any duplicates.
	point := rng.Intn(min(len(a), len(b)) + 1)
	genes := append(append(deck{}, a[:point]...), b[point:]...)
	genes = append(append(genes, b[:point]...), a[point:]...)
	for _, id := range genes {
		if !seen[id] && len(child) < rules.DeckSize {
			seen[id] = true
			child = append(child, id)
		}
	}
	rng.Shuffle(len(child), func(i, j int) { child[i], child[j] = child[j], child[i] })
	return child
}

func mutate(d *deck, all []*card.Card, rng *rand.Rand) {
	if rng.Float64() > 0.2 || len(*d) == 0 {
		return
	}
	i := rng.Intn(len(*d))
	(*d)[i] = all[rng.Intn(len(all))].ID
}

type byFitness struct {
	decks    []deck
	fitness_ []int
}

func (b byFitness) Len() int           { return len(b.decks) }
func (b byFitness) Less(i, j int) bool { return b.fitness_[i] < b.fitness_[j] }
func (b byFitness) Swap(i, j int) {
	b.decks[i], b.decks[j] = b.decks[j], b.decks[i]
	b.fitness_[i], b.fitness_[j] = b.fitness_[j], b.fitness_[i]
}

