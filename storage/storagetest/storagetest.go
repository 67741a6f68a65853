// Package storagetest holds behaviour tests shared by every storage.Store
// implementation.
package storagetest

import (
	"errors"
	"testing"

	"github.com/geanlabs/lmdghost/storage"
	"github.com/geanlabs/lmdghost/types"
	"github.com/stretchr/testify/require"
)

func testBlock(slot types.Slot, parent types.Root) (types.Root, *types.BlockInfo) {
	b := &types.BlockInfo{
		Header: types.BeaconBlockHeader{
			Slot:          slot,
			ProposerIndex: types.ValidatorIndex(slot % 7),
			ParentRoot:    parent,
		},
		Justified: types.Checkpoint{Epoch: 1, Root: parent},
	}
	r, err := b.Root()
	if err != nil {
		panic(err)
	}
	return r, b
}

// Run exercises a fresh store returned by open.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	t.Run("BlockRoundTrip", func(t *testing.T) {
		s := open(t)
		root, block := testBlock(3, types.Root{1})

		require.False(t, s.HasBlock(root))
		_, err := s.GetBlock(root)
		require.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, s.PutBlock(root, block))
		require.True(t, s.HasBlock(root))
		got, err := s.GetBlock(root)
		require.NoError(t, err)
		require.Equal(t, block, got)
	})

	t.Run("ForEachAndDelete", func(t *testing.T) {
		s := open(t)
		want := map[types.Root]*types.BlockInfo{}
		parent := types.Root{}
		for slot := types.Slot(0); slot < 5; slot++ {
			root, block := testBlock(slot, parent)
			require.NoError(t, s.PutBlock(root, block))
			want[root] = block
			parent = root
		}

		got := map[types.Root]*types.BlockInfo{}
		require.NoError(t, s.ForEachBlock(func(root types.Root, block *types.BlockInfo) error {
			got[root] = block
			return nil
		}))
		require.Equal(t, want, got)

		var doomed []types.Root
		for root, block := range want {
			if block.Header.Slot < 2 {
				doomed = append(doomed, root)
			}
		}
		require.NoError(t, s.DeleteBlocks(doomed))
		require.NoError(t, s.DeleteBlocks(nil))

		count := 0
		require.NoError(t, s.ForEachBlock(func(_ types.Root, block *types.BlockInfo) error {
			require.GreaterOrEqual(t, block.Header.Slot, types.Slot(2))
			count++
			return nil
		}))
		require.Equal(t, 3, count)
		for _, r := range doomed {
			require.False(t, s.HasBlock(r))
		}
	})

	t.Run("ForEachStopsOnError", func(t *testing.T) {
		s := open(t)
		for slot := types.Slot(0); slot < 3; slot++ {
			root, block := testBlock(slot, types.Root{})
			require.NoError(t, s.PutBlock(root, block))
		}
		stop := errors.New("stop")
		calls := 0
		err := s.ForEachBlock(func(types.Root, *types.BlockInfo) error {
			calls++
			return stop
		})
		require.ErrorIs(t, err, stop)
		require.Equal(t, 1, calls)
	})

	t.Run("Checkpoints", func(t *testing.T) {
		s := open(t)
		_, _, err := s.Checkpoints()
		require.ErrorIs(t, err, storage.ErrNotFound)

		j := types.Checkpoint{Epoch: 4, Root: types.Root{4}}
		f := types.Checkpoint{Epoch: 3, Root: types.Root{3}}
		require.NoError(t, s.PutCheckpoints(j, f))
		gotJ, gotF, err := s.Checkpoints()
		require.NoError(t, err)
		require.Equal(t, j, gotJ)
		require.Equal(t, f, gotF)

		j.Epoch = 5
		require.NoError(t, s.PutCheckpoints(j, f))
		gotJ, _, err = s.Checkpoints()
		require.NoError(t, err)
		require.Equal(t, types.Epoch(5), gotJ.Epoch)
	})
}
