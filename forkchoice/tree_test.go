package forkchoice

import (
	"testing"

	"github.com/geanlabs/lmdghost/types"
	"github.com/stretchr/testify/require"
)

// root builds a readable test root; roots compare in the order of their names.
func root(name string) types.Root {
	var r types.Root
	copy(r[:], name)
	return r
}

func mustIndex(t *testing.T, tr *blockTree, name string) int {
	t.Helper()
	i, ok := tr.index(root(name))
	require.True(t, ok, "missing node %s", name)
	return i
}

func bestTargetOf(t *testing.T, tr *blockTree, name string) types.Root {
	t.Helper()
	return tr.root(tr.nodes[mustIndex(t, tr, name)].bestTarget)
}

func (t *blockTree) root(i int) types.Root { return t.nodes[i].root }

func TestBlockTree_FirstChildExtendsBestTarget(t *testing.T) {
	tr := newBlockTree()
	tr.insert(0, root("a"), types.Root{})
	tr.insert(1, root("b"), root("a"))
	tr.insert(2, root("c"), root("b"))

	require.Equal(t, root("c"), bestTargetOf(t, tr, "a"))
	require.Equal(t, root("c"), bestTargetOf(t, tr, "b"))
	require.Equal(t, root("c"), bestTargetOf(t, tr, "c"))
	require.Equal(t, mustIndex(t, tr, "b"), tr.nodes[mustIndex(t, tr, "a")].bestChild)
}

func TestBlockTree_SiblingTieBreakByRoot(t *testing.T) {
	tr := newBlockTree()
	tr.insert(0, root("a"), types.Root{})
	tr.insert(1, root("c"), root("a"))

	// Lower root at equal weight does not take over.
	tr.insert(1, root("b"), root("a"))
	require.Equal(t, root("c"), bestTargetOf(t, tr, "a"))

	// Higher root does.
	tr.insert(1, root("d"), root("a"))
	require.Equal(t, root("d"), bestTargetOf(t, tr, "a"))
}

func TestBlockTree_InsertIsIdempotent(t *testing.T) {
	tr := newBlockTree()
	tr.insert(0, root("a"), types.Root{})
	i, created := tr.insert(1, root("b"), root("a"))
	require.True(t, created)

	j, created := tr.insert(5, root("b"), root("zzz"))
	require.False(t, created)
	require.Equal(t, i, j)
	require.Equal(t, types.Slot(1), tr.nodes[j].slot)
	require.Len(t, tr.nodes[mustIndex(t, tr, "a")].children, 1)
}

func TestBlockTree_OrphanHasNoParent(t *testing.T) {
	tr := newBlockTree()
	tr.insert(0, root("a"), types.Root{})
	i, _ := tr.insert(3, root("x"), root("missing"))

	require.Equal(t, none, tr.nodes[i].parent)
	require.Equal(t, root("a"), bestTargetOf(t, tr, "a"))
}

func TestBlockTree_PropagateIncrease(t *testing.T) {
	tr := newBlockTree()
	tr.insert(0, root("a"), types.Root{})
	tr.insert(1, root("b"), root("a"))
	tr.insert(1, root("c"), root("a"))
	tr.insert(2, root("d"), root("b"))

	require.Equal(t, root("c"), bestTargetOf(t, tr, "a"))

	tr.propagateWeightChange(mustIndex(t, tr, "d"), 5)
	require.Equal(t, types.Gwei(5), tr.nodes[mustIndex(t, tr, "d")].weight)
	require.Equal(t, types.Gwei(5), tr.nodes[mustIndex(t, tr, "b")].weight)
	require.Equal(t, types.Gwei(5), tr.nodes[mustIndex(t, tr, "a")].weight)
	require.Equal(t, root("d"), bestTargetOf(t, tr, "a"))
}

func TestBlockTree_PropagateDecreaseRescansSiblings(t *testing.T) {
	tr := newBlockTree()
	tr.insert(0, root("a"), types.Root{})
	tr.insert(1, root("b"), root("a"))
	tr.insert(1, root("c"), root("a"))
	tr.insert(1, root("d"), root("a"))

	tr.propagateWeightChange(mustIndex(t, tr, "b"), 10)
	tr.propagateWeightChange(mustIndex(t, tr, "c"), 6)
	require.Equal(t, root("b"), bestTargetOf(t, tr, "a"))

	tr.propagateWeightChange(mustIndex(t, tr, "b"), -7)
	require.Equal(t, root("c"), bestTargetOf(t, tr, "a"))
	require.Equal(t, types.Gwei(9), tr.nodes[mustIndex(t, tr, "a")].weight)

	// A non-best child losing weight changes nothing.
	tr.propagateWeightChange(mustIndex(t, tr, "b"), -3)
	require.Equal(t, root("c"), bestTargetOf(t, tr, "a"))
}

func TestBlockTree_DecreaseDeepInBestPathUpdatesTargets(t *testing.T) {
	tr := newBlockTree()
	tr.insert(0, root("a"), types.Root{})
	tr.insert(1, root("b"), root("a"))
	tr.insert(2, root("c"), root("b"))
	tr.insert(2, root("d"), root("b"))

	tr.propagateWeightChange(mustIndex(t, tr, "c"), 4)
	tr.propagateWeightChange(mustIndex(t, tr, "d"), 2)
	require.Equal(t, root("c"), bestTargetOf(t, tr, "a"))

	tr.propagateWeightChange(mustIndex(t, tr, "c"), -4)
	require.Equal(t, root("d"), bestTargetOf(t, tr, "b"))
	require.Equal(t, root("d"), bestTargetOf(t, tr, "a"))
}

func TestBlockTree_UnderflowPanics(t *testing.T) {
	tr := newBlockTree()
	tr.insert(0, root("a"), types.Root{})
	require.Panics(t, func() {
		tr.propagateWeightChange(mustIndex(t, tr, "a"), -1)
	})
}

func TestBlockTree_Prune(t *testing.T) {
	tr := newBlockTree()
	tr.insert(0, root("a"), types.Root{})
	tr.insert(1, root("b"), root("a"))
	tr.insert(1, root("x"), root("a"))
	tr.insert(2, root("c"), root("b"))
	tr.insert(2, root("y"), root("x"))
	tr.insert(3, root("d"), root("c"))
	tr.insert(3, root("e"), root("c"))
	tr.insert(9, root("orphan"), root("missing"))

	tr.propagateWeightChange(mustIndex(t, tr, "d"), 3)

	removed := tr.prune(mustIndex(t, tr, "b"))
	require.ElementsMatch(t, []types.Root{root("a"), root("x"), root("y"), root("orphan")}, removed)
	require.Equal(t, 4, tr.len())

	for _, name := range []string{"a", "x", "y", "orphan"} {
		_, ok := tr.index(root(name))
		require.False(t, ok, name)
	}
	b := tr.nodes[mustIndex(t, tr, "b")]
	require.Equal(t, 0, mustIndex(t, tr, "b"))
	require.Equal(t, none, b.parent)
	require.Equal(t, root("d"), bestTargetOf(t, tr, "b"))
	require.Equal(t, mustIndex(t, tr, "c"), b.bestChild)

	c := tr.nodes[mustIndex(t, tr, "c")]
	require.Equal(t, mustIndex(t, tr, "b"), c.parent)
	require.ElementsMatch(t, []int{mustIndex(t, tr, "d"), mustIndex(t, tr, "e")}, c.children)
	for i, n := range tr.nodes {
		if n.parent != none {
			require.Less(t, n.parent, i)
		}
	}

	// Tree keeps working after the remap.
	tr.propagateWeightChange(mustIndex(t, tr, "e"), 5)
	require.Equal(t, root("e"), bestTargetOf(t, tr, "b"))
	require.Equal(t, types.Gwei(8), b.weight)
}

func TestBlockTree_Ancestor(t *testing.T) {
	tr := newBlockTree()
	tr.insert(1, root("a"), types.Root{})
	tr.insert(2, root("b"), root("a"))
	tr.insert(5, root("c"), root("b"))

	c := mustIndex(t, tr, "c")
	i, ok := tr.ancestor(c, 2)
	require.True(t, ok)
	require.Equal(t, root("b"), tr.root(i))

	i, ok = tr.ancestor(c, 5)
	require.True(t, ok)
	require.Equal(t, root("c"), tr.root(i))

	// Skipped slot.
	_, ok = tr.ancestor(c, 3)
	require.False(t, ok)

	// Below the tree.
	_, ok = tr.ancestor(c, 0)
	require.False(t, ok)
}
