package agent

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/hailam/paintclash/internal/board"
	"github.com/hailam/paintclash/internal/card"
	"github.com/hailam/paintclash/internal/rules"
)

var tracer = otel.Tracer("github.com/hailam/paintclash/internal/agent")

// DefaultIterations is the iteration budget NewMCTS uses when it is given a
// non-positive iteration count.
const DefaultIterations = 800

// explorationConstant is UCB1's exploration weight (spec.md §4.4.5).
const explorationConstant = math.Sqrt2

// MCTS is an Information-Set Monte Carlo Tree Search agent (spec.md §4.4): it
// resamples a determinization of the hidden state every iteration, descends
// the public tree by UCB1 filtered to determinization-consistent children,
// expands one untried action, finishes the game with uniformly random play,
// and backs up the south-minus-north score differential.
type MCTS struct {
	side        board.Side
	allCards    []*card.Card
	initialDeck []*card.Card
	iterations  int
	rng         *rand.Rand
}

// NewMCTS builds an agent that runs iterations search iterations per
// decision, seeded from src for reproducible play (spec.md §8.3).
func NewMCTS(iterations int, src rand.Source) *MCTS {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &MCTS{iterations: iterations, rng: rand.New(src)}
}

func (a *MCTS) Name() string { return "mcts" }

func (a *MCTS) InitGame(side board.Side, allCards []*card.Card, deck []*card.Card) {
	a.side = side
	a.allCards = allCards
	a.initialDeck = deck
}

// NeedsRedeal flips a fair coin, matching the baseline random-agent policy;
// the initial hand is not evaluated.
func (a *MCTS) NeedsRedeal(initialHand []*card.Card) bool {
	return a.rng.Intn(2) == 0
}

func (a *MCTS) ChooseAction(state *rules.State, hand []*card.Card, timeLimit time.Duration) rules.Action {
	ctx := context.Background()
	var cancel context.CancelFunc
	if timeLimit > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeLimit)
		defer cancel()
	}
	ctx, span := tracer.Start(ctx, "mcts.Search")
	defer span.End()

	root := newRootNode(state)

	for i := 0; i < a.iterations; i++ {
		if ctx.Err() != nil {
			break
		}
		det := a.determinize(state, hand)
		a.runIteration(root, det)
	}

	best := mostVisitedChild(root)
	if best == nil {
		// Pathological: no child was ever expanded (e.g. the time limit
		// expired before the first iteration). Fall back to any legal action
		// (spec.md §4.4.4).
		actions := LegalActions(state, a.side, hand)
		if len(actions) == 0 {
			if len(hand) > 0 {
				return rules.PassAction(hand[0])
			}
			panic("agent: MCTS asked to choose with an empty hand")
		}
		return actions[0]
	}
	return best.incoming.action
}

func mostVisitedChild(root *node) *node {
	var best *node
	for _, c := range root.children {
		if best == nil || c.stat.visits > best.stat.visits {
			best = c
		}
	}
	return best
}

// determinization is a sampled, fully-visible view of both sides' hidden
// cards for one search iteration (spec.md §4.4.3 step 1).
type determinization struct {
	south, north rules.PlayerCardState
}

func (d determinization) cards(side board.Side) rules.PlayerCardState {
	if side == board.South {
		return d.south
	}
	return d.north
}

// determinize samples self's deck (known hand, remaining initial deck minus
// consumed cards, shuffled) and the opponent's hidden cards (a fresh shuffle
// of the whole card universe minus the opponent's consumed list, split into
// hand and deck).
func (a *MCTS) determinize(state *rules.State, hand []*card.Card) determinization {
	self := rules.PlayerCardState{
		Side: a.side,
		Hand: hand,
		Deck: a.determinizeSelfDeck(state, hand),
	}
	opponent := a.determinizeOpponent(state)

	if a.side == board.South {
		return determinization{south: self, north: opponent}
	}
	return determinization{south: opponent, north: self}
}

func (a *MCTS) determinizeSelfDeck(state *rules.State, hand []*card.Card) []*card.Card {
	deck := excludeCards(a.initialDeck, handIDs(hand))
	deck = excludeIDs(deck, state.Consumed[a.side.Index()])
	shuffled := append([]*card.Card(nil), deck...)
	a.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled
}

func (a *MCTS) determinizeOpponent(state *rules.State) rules.PlayerCardState {
	opponent := a.side.Other()
	pool := excludeIDs(a.allCards, state.Consumed[opponent.Index()])
	shuffled := append([]*card.Card(nil), pool...)
	a.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	handSize := rules.HandSize
	if handSize > len(shuffled) {
		handSize = len(shuffled)
	}
	return rules.PlayerCardState{Side: opponent, Hand: shuffled[:handSize], Deck: shuffled[handSize:]}
}

func handIDs(hand []*card.Card) []uint32 {
	ids := make([]uint32, len(hand))
	for i, c := range hand {
		ids[i] = c.ID
	}
	return ids
}

func excludeCards(cards []*card.Card, ids []uint32) []*card.Card {
	out := make([]*card.Card, 0, len(cards))
	for _, c := range cards {
		excluded := false
		for _, id := range ids {
			if c.ID == id {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, c)
		}
	}
	return out
}

func excludeIDs(cards []*card.Card, consumed rules.Consumed) []*card.Card {
	return excludeCards(cards, []uint32(consumed))
}

// runIteration performs one selection/expansion/simulation/backpropagation
// pass (spec.md §4.4.3).
func (a *MCTS) runIteration(root *node, det determinization) {
	leaf, history := a.selectLeaf(root, det)

	if !leaf.state.Terminal() {
		if child := a.expand(leaf, det); child != nil {
			history = append(history, child)
			leaf = child
		}
	}

	south, north := a.simulate(leaf, det)

	root.stat.update(south, north)
	for _, n := range history {
		n.stat.update(south, north)
	}
}

// selectLeaf descends from root while the current node is neither terminal
// nor a leaf, at each step filtering children to those consistent with det
// and choosing the UCB1-maximizing one (spec.md §4.4.3 step 2). If no child
// is consistent with det, the descent stops early and the current node is
// treated as this iteration's expansion point — the tree may still contain
// children, but none of them represent a hand the sampled determinization
// could have produced.
func (a *MCTS) selectLeaf(root *node, det determinization) (*node, []*node) {
	var history []*node
	n := root
	for {
		if n.state.Terminal() || n.isLeaf() {
			return n, history
		}
		next := a.selectChild(n, det)
		if next == nil {
			return n, history
		}
		n = next
		history = append(history, n)
	}
}

func (a *MCTS) selectChild(n *node, det determinization) *node {
	filtered := make([]*node, 0, len(n.children))
	for _, c := range n.children {
		hand := det.cards(c.incoming.side).Hand
		if containsCard(hand, c.incoming.action.Card.ID) {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return nil
	}

	var nSum int
	for _, c := range filtered {
		nSum += c.stat.visits
	}
	logNSum := math.Log(float64(nSum))

	var best *node
	bestScore := math.Inf(-1)
	for _, c := range filtered {
		score := ucb1(logNSum, c)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best
}

func containsCard(cards []*card.Card, id uint32) bool {
	for _, c := range cards {
		if c.ID == id {
			return true
		}
	}
	return false
}

// ucb1 scores a child for selection. mean is the south-minus-north value
// averaged over the child's visits; sign flips it into "favorable to the
// side that chose this child's action" terms: south-acting children want the
// raw differential maximized, north-acting children want it minimized. This
// is equivalent, for either self-side, to maximizing value from the acting
// side's own perspective (DESIGN.md open question 5).
func ucb1(logNSum float64, c *node) float64 {
	sign := 1.0
	if c.incoming.side == board.North {
		sign = -1.0
	}
	explore := math.Sqrt(logNSum / float64(c.stat.visits))
	return sign*c.stat.mean() + explorationConstant*explore
}

// expand lazily computes n's legal-action set against the acting side's
// determinized cards, then creates the next untried child in that list
// (spec.md §4.4.3 step 3). For the opponent, legal actions are enumerated
// over hand and deck together, so a later iteration's differently-sampled
// opponent hand can still land on an already-expanded child.
func (a *MCTS) expand(n *node, det determinization) *node {
	if !n.expanded {
		side := n.actingSide(a.side)
		cards := det.cards(side)
		pool := cards.Hand
		if side != a.side {
			pool = append(append([]*card.Card(nil), cards.Hand...), cards.Deck...)
		}
		n.legalActions = LegalActions(n.state, side, pool)
		n.expanded = true
	}
	if len(n.children) >= len(n.legalActions) {
		return nil
	}
	act := n.legalActions[len(n.children)]
	side := n.actingSide(a.side)
	child := a.createChild(n, side, act)
	n.children = append(n.children, child)
	return child
}

func (a *MCTS) createChild(n *node, side board.Side, act rules.Action) *node {
	na := nodeAction{kind: playerAction, side: side, action: act}
	newPending := n.pending.with(side, act)
	if newPending.both() {
		next, err := rules.Update(n.state, *newPending.south, *newPending.north)
		if err != nil {
			// The tree only ever offers actions that IsValidAction accepted
			// against the state each side actually has, so Update cannot
			// legitimately reject them; treat it as a programming error.
			panic(err)
		}
		return &node{state: next, incoming: na}
	}
	return &node{state: n.state, pending: newPending, incoming: na}
}

// simulate finishes the game from n's state with uniformly random legal
// actions for both sides (spec.md §4.4.3 step 4), honoring any action n
// already has pending for the in-progress turn.
func (a *MCTS) simulate(n *node, det determinization) (south, north uint32) {
	state := n.state.Clone()
	southCards := cloneCardState(det.cards(board.South))
	northCards := cloneCardState(det.cards(board.North))

	southPending, northPending := n.pending.south, n.pending.north

	for !state.Terminal() {
		southAction := southPending
		northAction := northPending
		southPending, northPending = nil, nil

		if southAction == nil {
			act := a.randomAction(state, board.South, southCards.Hand)
			southAction = &act
		}
		if northAction == nil {
			act := a.randomAction(state, board.North, northCards.Hand)
			northAction = &act
		}

		next, err := rules.Update(state, *southAction, *northAction)
		if err != nil {
			panic(err)
		}
		rules.UpdateHand(&southCards, *southAction)
		rules.UpdateHand(&northCards, *northAction)
		state = next
	}
	return rules.Score(state.Board)
}

func cloneCardState(ps rules.PlayerCardState) rules.PlayerCardState {
	return rules.PlayerCardState{
		Side: ps.Side,
		Hand: append([]*card.Card(nil), ps.Hand...),
		Deck: append([]*card.Card(nil), ps.Deck...),
	}
}

func (a *MCTS) randomAction(state *rules.State, side board.Side, hand []*card.Card) rules.Action {
	actions := LegalActions(state, side, hand)
	if len(actions) == 0 {
		// LegalActions yields a Pass for every held card, so this is reached
		// only with an empty hand, which DeckSize/HandSize bookkeeping never
		// produces mid-game; indexing hand[0] then panics.
		return rules.PassAction(hand[0])
	}
	return actions[a.rng.Intn(len(actions))]
}
