package forkchoice

import (
	"fmt"

	"github.com/geanlabs/lmdghost/types"
)

// none marks an absent arena index.
const none = -1

// blockNode is a block in the fork choice tree. Links are arena indices.
type blockNode struct {
	slot   types.Slot
	root   types.Root
	weight types.Gwei // weight of all votes for this block and its descendants

	parent     int
	children   []int
	bestChild  int // heaviest child by betterThan
	bestTarget int // leaf reached by following bestChild from here
}

// blockTree stores nodes in an arena indexed by block root. A parent is always
// inserted before any child that links to it, so parent index < child index.
type blockTree struct {
	nodes   []*blockNode
	indices map[types.Root]int
}

func newBlockTree() *blockTree {
	return &blockTree{
		indices: make(map[types.Root]int),
	}
}

func (t *blockTree) len() int { return len(t.nodes) }

func (t *blockTree) index(root types.Root) (int, bool) {
	i, ok := t.indices[root]
	return i, ok
}

func (t *blockTree) node(root types.Root) (*blockNode, bool) {
	i, ok := t.indices[root]
	if !ok {
		return nil, false
	}
	return t.nodes[i], true
}

// betterThan reports whether node a beats node b: more weight, or equal weight
// and a lexicographically greater root.
func (t *blockTree) betterThan(a, b int) bool {
	na, nb := t.nodes[a], t.nodes[b]
	if na.weight != nb.weight {
		return na.weight > nb.weight
	}
	return na.root.Compare(nb.root) > 0
}

// insert adds a block. If parentRoot is known the block is linked under it,
// otherwise it becomes a parentless node. It returns the node's index and
// whether it was newly created.
func (t *blockTree) insert(slot types.Slot, root, parentRoot types.Root) (int, bool) {
	if i, ok := t.indices[root]; ok {
		return i, false
	}
	i := len(t.nodes)
	t.nodes = append(t.nodes, &blockNode{
		slot:       slot,
		root:       root,
		parent:     none,
		bestChild:  none,
		bestTarget: i,
	})
	t.indices[root] = i
	if p, ok := t.indices[parentRoot]; ok && parentRoot != root {
		t.addChild(p, i)
	}
	return i, true
}

// addChild registers child under parent. The child takes over as best child
// when it is the first child or beats the current one, and the new best target
// is pushed up through every ancestor whose best path ran through parent.
func (t *blockTree) addChild(parent, child int) {
	p := t.nodes[parent]
	t.nodes[child].parent = parent
	p.children = append(p.children, child)

	if p.bestChild == none || t.betterThan(child, p.bestChild) {
		p.bestChild = child
		t.refreshBestTargets(parent)
	}
}

// refreshBestTargets recomputes bestTarget at i and walks up while i is its
// parent's best child.
func (t *blockTree) refreshBestTargets(i int) {
	for i != none {
		n := t.nodes[i]
		if n.bestChild == none {
			n.bestTarget = i
		} else {
			n.bestTarget = t.nodes[n.bestChild].bestTarget
		}
		if n.parent == none || t.nodes[n.parent].bestChild != i {
			return
		}
		i = n.parent
	}
}

// propagateWeightChange applies delta to node i and all of its ancestors,
// re-evaluating the best child of every parent on the way up.
func (t *blockTree) propagateWeightChange(i int, delta int64) {
	if delta == 0 {
		return
	}
	for i != none {
		n := t.nodes[i]
		n.weight = applyDelta(n.weight, delta, n.root)
		if n.parent == none {
			return
		}
		p := t.nodes[n.parent]
		if delta > 0 {
			t.onAddWeight(i)
		} else {
			t.onRemoveWeight(i)
		}
		p.bestTarget = t.nodes[p.bestChild].bestTarget
		i = n.parent
	}
}

// onAddWeight lets node i overtake its parent's best child.
func (t *blockTree) onAddWeight(i int) {
	p := t.nodes[t.nodes[i].parent]
	if p.bestChild != i && t.betterThan(i, p.bestChild) {
		p.bestChild = i
	}
}

// onRemoveWeight rescans the siblings when the best child lost weight.
func (t *blockTree) onRemoveWeight(i int) {
	p := t.nodes[t.nodes[i].parent]
	if p.bestChild != i {
		return
	}
	best := i
	for _, c := range p.children {
		if t.betterThan(c, best) {
			best = c
		}
	}
	p.bestChild = best
}

func applyDelta(w types.Gwei, delta int64, root types.Root) types.Gwei {
	if delta < 0 && types.Gwei(-delta) > w {
		panic(fmt.Sprintf("forkchoice: weight underflow at %s: %d%+d", root.Short(), w, delta))
	}
	return types.Gwei(int64(w) + delta)
}

// prune keeps only the node at finalized and its descendants, which also
// drops every node at an earlier slot. finalized becomes the root of the tree.
// It returns the roots that were removed.
func (t *blockTree) prune(finalized int) []types.Root {
	remap := make([]int, len(t.nodes))
	kept := make([]*blockNode, 0, len(t.nodes)-finalized)
	var removed []types.Root

	for i, n := range t.nodes {
		if i == finalized || (i > finalized && n.parent != none && remap[n.parent] != none) {
			remap[i] = len(kept)
			kept = append(kept, n)
			continue
		}
		remap[i] = none
		removed = append(removed, n.root)
		delete(t.indices, n.root)
	}

	for i, n := range kept {
		if i == 0 {
			n.parent = none
		} else {
			n.parent = remap[n.parent]
		}
		for j, c := range n.children {
			n.children[j] = remap[c]
		}
		if n.bestChild != none {
			n.bestChild = remap[n.bestChild]
		}
		n.bestTarget = remap[n.bestTarget]
		t.indices[n.root] = i
	}
	t.nodes = kept
	return removed
}

// ancestor walks up from i to the node at exactly slot.
func (t *blockTree) ancestor(i int, slot types.Slot) (int, bool) {
	for i != none {
		n := t.nodes[i]
		if n.slot == slot {
			return i, true
		}
		if n.slot < slot {
			return none, false
		}
		i = n.parent
	}
	return none, false
}
