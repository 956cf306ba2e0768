package agent

import (
	"github.com/hailam/paintclash/internal/board"
	"github.com/hailam/paintclash/internal/rules"
)

// nodeActionKind tags what produced a tree node: the synthetic root, or one
// side's committed action on the way down (spec.md §4.4.2's NodeAction).
type nodeActionKind int8

const (
	rootAction nodeActionKind = iota
	playerAction
)

// nodeAction is the edge label from a node's parent.
type nodeAction struct {
	kind   nodeActionKind
	side   board.Side
	action rules.Action
}

// statistic accumulates one node's search outcomes. value is kept as a
// signed south-minus-north differential summed over every playout that
// passed through the node; mean is computed on demand in floating point
// (spec.md §4.4.5).
type statistic struct {
	visits int
	value  int64
	wins   int
	draws  int
	losses int
}

func (s *statistic) update(south, north uint32) {
	s.visits++
	s.value += int64(south) - int64(north)
	switch {
	case south > north:
		s.wins++
	case south < north:
		s.losses++
	default:
		s.draws++
	}
}

func (s *statistic) mean() float64 {
	return float64(s.value) / float64(s.visits)
}

// pending tracks the half-committed simultaneous-move state of a node: the
// action each side has locked in for the in-progress turn, if any.
type pending struct {
	south, north *rules.Action
}

func (p pending) filled(side board.Side) bool {
	if side == board.South {
		return p.south != nil
	}
	return p.north != nil
}

func (p pending) both() bool { return p.south != nil && p.north != nil }

// with returns a copy of p with side's slot set to action.
func (p pending) with(side board.Side, action rules.Action) pending {
	if side == board.South {
		p.south = &action
	} else {
		p.north = &action
	}
	return p
}

// node is one position in the IS-MCTS tree. legalActions is populated lazily,
// on first expansion, against whichever determinization reaches the node
// first (spec.md §4.4.3 step 3); later iterations may see a node whose
// legalActions no longer match their own determinized hand, which is why
// selection filters children for consistency with the current
// determinization. Expansion does not filter: it creates the next untried
// action from legalActions as computed.
type node struct {
	state   *rules.State
	pending pending
	incoming nodeAction

	stat statistic

	legalActions []rules.Action
	expanded     bool
	children     []*node
}

func newRootNode(state *rules.State) *node {
	return &node{state: state, incoming: nodeAction{kind: rootAction}}
}

// actingSide reports which side chooses the next action at this node: the
// side whose pending slot is still empty, defaulting to self when both are
// empty (spec.md §4.4.2, §4.4.3 step 3).
func (n *node) actingSide(self board.Side) board.Side {
	if !n.pending.filled(self) {
		return self
	}
	return self.Other()
}

// isLeaf reports whether n has no fully-expanded child set yet: either it is
// terminal, or legalActions has not been computed, or there remain untried
// actions (spec.md §4.4.2's is_leaf).
func (n *node) isLeaf() bool {
	if n.state.Terminal() {
		return true
	}
	if !n.expanded {
		return true
	}
	return len(n.legalActions) > len(n.children)
}
