package node

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geanlabs/lmdghost/types"
)

func parked(slot types.Slot, parent types.Root, tag byte) (types.Root, *types.BlockInfo) {
	return types.Root{tag}, &types.BlockInfo{Header: types.BeaconBlockHeader{Slot: slot, ParentRoot: parent}}
}

func TestPendingBlocks_TakeChildren(t *testing.T) {
	p, err := newPendingBlocks(8)
	require.NoError(t, err)

	parent := types.Root{0xaa}
	r1, b1 := parked(3, parent, 3)
	r2, b2 := parked(2, parent, 2)
	r3, b3 := parked(2, parent, 1)
	r4, b4 := parked(4, types.Root{0xbb}, 4)
	for _, e := range []struct {
		r types.Root
		b *types.BlockInfo
	}{{r1, b1}, {r2, b2}, {r3, b3}, {r4, b4}} {
		p.add(e.r, e.b)
	}
	require.Equal(t, 4, p.len())

	children := p.takeChildren(parent)
	require.Len(t, children, 3)
	require.Equal(t, r3, children[0].root)
	require.Equal(t, r2, children[1].root)
	require.Equal(t, r1, children[2].root)

	require.Equal(t, 1, p.len())
	require.True(t, p.has(r4))
	require.False(t, p.has(r1))
	require.Empty(t, p.takeChildren(parent))
}

func TestPendingBlocks_Bounded(t *testing.T) {
	p, err := newPendingBlocks(2)
	require.NoError(t, err)

	r1, b1 := parked(1, types.Root{}, 1)
	r2, b2 := parked(2, types.Root{}, 2)
	r3, b3 := parked(3, types.Root{}, 3)
	p.add(r1, b1)
	p.add(r2, b2)
	p.add(r3, b3)

	require.Equal(t, 2, p.len())
	require.False(t, p.has(r1))
	require.True(t, p.has(r3))
}
