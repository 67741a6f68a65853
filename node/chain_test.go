package node

import (
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/geanlabs/lmdghost/clock"
	"github.com/geanlabs/lmdghost/config"
	"github.com/geanlabs/lmdghost/forkchoice"
	"github.com/geanlabs/lmdghost/storage/memory"
	"github.com/geanlabs/lmdghost/types"
)

const testGenesisTime = 1_000_000

// testBlocks builds named blocks and remembers their roots.
type testBlocks struct {
	t      *testing.T
	roots  map[string]types.Root
	blocks map[string]*types.BlockInfo
}

func newTestBlocks(t *testing.T) *testBlocks {
	return &testBlocks{
		t:      t,
		roots:  make(map[string]types.Root),
		blocks: make(map[string]*types.BlockInfo),
	}
}

// block makes a block at slot under parent ("" for none). Its post-state
// justifies and finalizes fin at epoch ("" for the block itself).
func (b *testBlocks) block(slot types.Slot, name, parent string, epoch types.Epoch, fin string) *types.BlockInfo {
	b.t.Helper()
	info := &types.BlockInfo{
		Header: types.BeaconBlockHeader{
			Slot:      slot,
			StateRoot: sha256.Sum256([]byte(name)),
		},
	}
	if parent != "" {
		info.Header.ParentRoot = b.roots[parent]
	}
	r, err := info.Root()
	require.NoError(b.t, err)
	b.roots[name] = r
	b.blocks[name] = info

	cpRoot := r
	if fin != "" {
		cpRoot = b.roots[fin]
	}
	info.Justified = types.Checkpoint{Epoch: epoch, Root: cpRoot}
	info.Finalized = info.Justified
	return info
}

func newTestChain(t *testing.T, store *memory.Store, slot types.Slot) *Chain {
	t.Helper()
	cfg := config.MinimalChainConfig()
	now := time.Unix(int64(testGenesisTime+uint64(slot)*cfg.SecondsPerSlot), 0)
	fc := forkchoice.New(forkchoice.Config{
		Chain: cfg,
		Clock: clock.NewWithTimeFunc(testGenesisTime, cfg, func() time.Time { return now }),
	})
	c, err := NewChain(ChainConfig{
		Chain:         cfg,
		ForkChoice:    fc,
		Store:         store,
		PendingBlocks: 16,
	})
	require.NoError(t, err)
	return c
}

func requireImport(t *testing.T, c *Chain, block *types.BlockInfo) ImportResult {
	t.Helper()
	res, err := c.ImportBlock(block)
	require.NoError(t, err)
	return res
}

func TestImportBlock_Anchor(t *testing.T) {
	store := memory.New()
	c := newTestChain(t, store, 0)
	b := newTestBlocks(t)

	res := requireImport(t, c, b.block(0, "g", "", 0, ""))
	require.Equal(t, b.roots["g"], res.Root)
	require.Equal(t, 1, res.Imported)
	require.False(t, res.MissingParent)
	require.True(t, store.HasBlock(b.roots["g"]))

	justified, finalized, err := store.Checkpoints()
	require.NoError(t, err)
	require.Equal(t, b.roots["g"], justified.Root)
	require.Equal(t, b.roots["g"], finalized.Root)

	head, err := c.OnSlot(0)
	require.NoError(t, err)
	require.Equal(t, b.roots["g"], head)
}

func TestImportBlock_Known(t *testing.T) {
	c := newTestChain(t, memory.New(), 0)
	b := newTestBlocks(t)
	g := b.block(0, "g", "", 0, "")

	requireImport(t, c, g)
	res := requireImport(t, c, g)
	require.True(t, res.Known)
	require.Zero(t, res.Imported)
}

func TestImportBlock_FirstBlockNeedsZeroParent(t *testing.T) {
	c := newTestChain(t, memory.New(), 0)
	b := newTestBlocks(t)
	b.block(0, "g", "", 0, "")

	res := requireImport(t, c, b.block(1, "a", "g", 0, "g"))
	require.True(t, res.MissingParent)
	require.Equal(t, b.roots["g"], res.Parent)
	require.True(t, c.IsPending(b.roots["a"]))
	require.Zero(t, c.ForkChoice().NodeCount())
}

func TestImportBlock_DrainsParkedDescendants(t *testing.T) {
	store := memory.New()
	c := newTestChain(t, store, 0)
	b := newTestBlocks(t)
	g := b.block(0, "g", "", 0, "")
	a := b.block(1, "a", "g", 0, "g")
	bb := b.block(2, "b", "a", 0, "g")
	x := b.block(2, "x", "a", 0, "g")
	c2 := b.block(3, "c", "b", 0, "g")

	requireImport(t, c, g)
	for _, blk := range []*types.BlockInfo{c2, x, bb} {
		res := requireImport(t, c, blk)
		require.True(t, res.MissingParent)
	}
	require.True(t, c.IsPending(b.roots["c"]))

	res := requireImport(t, c, a)
	require.Equal(t, 4, res.Imported)
	for _, name := range []string{"a", "b", "x", "c"} {
		require.True(t, c.ForkChoice().HasNode(b.roots[name]), name)
		require.True(t, store.HasBlock(b.roots[name]), name)
		require.False(t, c.IsPending(b.roots[name]), name)
	}

	require.True(t, c.OnVote(&types.Vote{ValidatorIndex: 1, Target: b.roots["c"], Weight: 1}))
	head, err := c.OnSlot(3)
	require.NoError(t, err)
	require.Equal(t, b.roots["c"], head)
}

func TestOnVote_MovesHead(t *testing.T) {
	c := newTestChain(t, memory.New(), 0)
	b := newTestBlocks(t)
	requireImport(t, c, b.block(0, "g", "", 0, ""))
	requireImport(t, c, b.block(1, "a", "g", 0, "g"))
	requireImport(t, c, b.block(1, "x", "g", 0, "g"))

	require.True(t, c.OnVote(&types.Vote{ValidatorIndex: 1, Target: b.roots["a"], Weight: 10}))
	head, err := c.OnSlot(1)
	require.NoError(t, err)
	require.Equal(t, b.roots["a"], head)

	require.True(t, c.OnVote(&types.Vote{ValidatorIndex: 2, Target: b.roots["x"], Weight: 20}))
	head, err = c.OnSlot(2)
	require.NoError(t, err)
	require.Equal(t, b.roots["x"], head)
}

func TestImportBlock_FinalizationDeletesPruned(t *testing.T) {
	store := memory.New()
	c := newTestChain(t, store, 0)
	b := newTestBlocks(t)
	requireImport(t, c, b.block(0, "g", "", 0, ""))
	requireImport(t, c, b.block(1, "a", "g", 0, "g"))
	requireImport(t, c, b.block(1, "x", "g", 0, "g"))
	requireImport(t, c, b.block(8, "b", "a", 1, "a"))

	fc := c.ForkChoice()
	finalized, ok := fc.FinalizedCheckpoint()
	require.True(t, ok)
	require.Equal(t, types.Checkpoint{Epoch: 1, Root: b.roots["a"]}, finalized)

	require.False(t, fc.HasNode(b.roots["g"]))
	require.False(t, fc.HasNode(b.roots["x"]))
	require.False(t, store.HasBlock(b.roots["g"]))
	require.False(t, store.HasBlock(b.roots["x"]))
	require.True(t, store.HasBlock(b.roots["a"]))
	require.True(t, store.HasBlock(b.roots["b"]))

	_, stored, err := store.Checkpoints()
	require.NoError(t, err)
	require.Equal(t, finalized, stored)
}

func TestReplay(t *testing.T) {
	store := memory.New()
	c := newTestChain(t, store, 0)
	b := newTestBlocks(t)
	requireImport(t, c, b.block(0, "g", "", 0, ""))
	requireImport(t, c, b.block(1, "a", "g", 0, "g"))
	requireImport(t, c, b.block(2, "b", "a", 0, "g"))
	requireImport(t, c, b.block(2, "x", "a", 0, "g"))
	head, err := c.OnSlot(2)
	require.NoError(t, err)

	// An orphan written by an earlier run is dropped on replay.
	orphan := &types.BlockInfo{Header: types.BeaconBlockHeader{Slot: 5, ParentRoot: types.Root{0xff}}}
	orphanRoot, err := orphan.Root()
	require.NoError(t, err)
	require.NoError(t, store.PutBlock(orphanRoot, orphan))

	restarted := newTestChain(t, store, 2)
	n, err := restarted.Replay()
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, 4, restarted.ForkChoice().NodeCount())
	require.False(t, store.HasBlock(orphanRoot))

	got, err := restarted.OnSlot(2)
	require.NoError(t, err)
	require.Equal(t, head, got)

	finalized, ok := restarted.ForkChoice().FinalizedCheckpoint()
	require.True(t, ok)
	require.Equal(t, b.roots["g"], finalized.Root)
}

func TestReplay_AfterFinalization(t *testing.T) {
	store := memory.New()
	c := newTestChain(t, store, 0)
	b := newTestBlocks(t)
	requireImport(t, c, b.block(0, "g", "", 0, ""))
	requireImport(t, c, b.block(1, "a", "g", 0, "g"))
	requireImport(t, c, b.block(8, "b", "a", 1, "a"))
	requireImport(t, c, b.block(9, "c", "b", 1, "a"))

	restarted := newTestChain(t, store, 9)
	n, err := restarted.Replay()
	require.NoError(t, err)
	require.Equal(t, 3, n)

	fc := restarted.ForkChoice()
	require.False(t, fc.HasNode(b.roots["g"]))
	finalized, ok := fc.FinalizedCheckpoint()
	require.True(t, ok)
	require.Equal(t, types.Checkpoint{Epoch: 1, Root: b.roots["a"]}, finalized)

	head, err := restarted.OnSlot(9)
	require.NoError(t, err)
	require.Equal(t, b.roots["c"], head)
}

func TestReplay_EmptyStore(t *testing.T) {
	c := newTestChain(t, memory.New(), 0)
	n, err := c.Replay()
	require.NoError(t, err)
	require.Zero(t, n)
	require.Zero(t, c.ForkChoice().NodeCount())
}

func TestImportBlock_DropsPrunedFork(t *testing.T) {
	store := memory.New()
	c := newTestChain(t, store, 0)
	b := newTestBlocks(t)
	g := b.block(0, "g", "", 0, "")
	x := b.block(1, "x", "g", 0, "g")
	requireImport(t, c, g)
	requireImport(t, c, b.block(1, "a", "g", 0, "g"))
	requireImport(t, c, x)
	requireImport(t, c, b.block(8, "b", "a", 1, "a"))
	require.False(t, c.ForkChoice().HasNode(b.roots["x"]))

	// Re-gossiped blocks from before finalization are dropped, not parked.
	for _, blk := range []*types.BlockInfo{x, g} {
		res := requireImport(t, c, blk)
		require.True(t, res.Stale)
		require.False(t, res.MissingParent)
		require.Zero(t, res.Imported)
		require.False(t, c.IsPending(res.Root))
		require.False(t, store.HasBlock(res.Root))
	}

	// So is any new block at or below the finalized slot.
	res := requireImport(t, c, b.block(1, "y", "g", 0, "g"))
	require.True(t, res.Stale)
	require.False(t, c.IsPending(res.Root))
}

func TestImportBlock_DropsSecondGenesis(t *testing.T) {
	c := newTestChain(t, memory.New(), 0)
	b := newTestBlocks(t)
	requireImport(t, c, b.block(0, "g", "", 0, ""))

	res := requireImport(t, c, b.block(3, "other", "", 0, ""))
	require.True(t, res.Stale)
	require.False(t, res.MissingParent)
	require.False(t, c.IsPending(b.roots["other"]))
	require.Equal(t, 1, c.ForkChoice().NodeCount())
}

func TestImportBlock_ParksAboveFinalized(t *testing.T) {
	c := newTestChain(t, memory.New(), 0)
	b := newTestBlocks(t)
	requireImport(t, c, b.block(0, "g", "", 0, ""))
	requireImport(t, c, b.block(1, "a", "g", 0, "g"))
	requireImport(t, c, b.block(8, "b", "a", 1, "a"))

	b.block(9, "c", "b", 1, "a")
	res := requireImport(t, c, b.block(10, "d", "c", 1, "a"))
	require.False(t, res.Stale)
	require.True(t, res.MissingParent)
	require.True(t, c.IsPending(res.Root))
}
