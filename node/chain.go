package node

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/geanlabs/lmdghost/config"
	"github.com/geanlabs/lmdghost/forkchoice"
	"github.com/geanlabs/lmdghost/storage"
	"github.com/geanlabs/lmdghost/types"
)

const defaultPendingBlocks = 256

// ChainConfig holds Chain dependencies.
type ChainConfig struct {
	Chain         config.ChainConfig
	ForkChoice    *forkchoice.ForkChoice
	Store         storage.Store
	PendingBlocks int
	Logger        *slog.Logger
}

// Chain keeps fork choice and block storage in step. Blocks are persisted
// after fork choice accepts them, and blocks pruned by finalization are
// deleted from storage.
type Chain struct {
	mu sync.Mutex

	chain   config.ChainConfig
	fc      *forkchoice.ForkChoice
	store   storage.Store
	pending *pendingBlocks
	logger  *slog.Logger
}

// ImportResult describes what ImportBlock did with a block.
type ImportResult struct {
	Root types.Root
	// Known is set when the block was already in fork choice.
	Known bool
	// Stale is set when the block cannot join the tree: it is at or below
	// the finalized slot, or it claims to be a genesis block of a chain that
	// already has one. Stale blocks are dropped.
	Stale bool
	// Imported counts blocks added to fork choice, including parked
	// descendants that could be imported after this block.
	Imported int
	// MissingParent is set when the block was parked; Parent should be
	// fetched from the network.
	MissingParent bool
	Parent        types.Root
}

// NewChain creates a Chain.
func NewChain(cfg ChainConfig) (*Chain, error) {
	size := cfg.PendingBlocks
	if size <= 0 {
		size = defaultPendingBlocks
	}
	pending, err := newPendingBlocks(size)
	if err != nil {
		return nil, fmt.Errorf("create pending pool: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		chain:   cfg.Chain,
		fc:      cfg.ForkChoice,
		store:   cfg.Store,
		pending: pending,
		logger:  logger,
	}, nil
}

// Replay rebuilds fork choice from storage. The lowest-slot stored block is
// the anchor (the finalized block when the store was last written); every
// other block is replayed in slot order.
func (c *Chain) Replay() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var blocks []pendingBlock
	err := c.store.ForEachBlock(func(root types.Root, block *types.BlockInfo) error {
		blocks = append(blocks, pendingBlock{root: root, block: block})
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("load blocks: %w", err)
	}
	if len(blocks) == 0 {
		return 0, nil
	}
	slices.SortFunc(blocks, func(a, b pendingBlock) int {
		if c := cmp.Compare(a.block.Header.Slot, b.block.Header.Slot); c != 0 {
			return c
		}
		return a.root.Compare(b.root)
	})

	anchor := blocks[0]
	c.fc.AddBlock(anchor.block.Header.Slot, anchor.root, anchor.block.Header.ParentRoot)

	justified, finalized, err := c.store.Checkpoints()
	switch {
	case errors.Is(err, storage.ErrNotFound):
		justified = types.Checkpoint{Epoch: anchor.block.Finalized.Epoch, Root: anchor.root}
		finalized = justified
	case err != nil:
		return 0, fmt.Errorf("load checkpoints: %w", err)
	}
	if finalized.Root != anchor.root {
		c.logger.Warn("stored finalized checkpoint is not the anchor",
			"finalized", finalized.Root.Short(),
			"anchor", anchor.root.Short(),
		)
		finalized = types.Checkpoint{Epoch: finalized.Epoch, Root: anchor.root}
	}
	if err := c.fc.SetFinalized(finalized); err != nil {
		return 0, fmt.Errorf("restore finalized: %w", err)
	}
	if err := c.fc.SetJustified(finalized); err != nil {
		return 0, fmt.Errorf("restore justified: %w", err)
	}

	replayed := 1
	var stale []types.Root
	for _, b := range blocks[1:] {
		if !c.fc.HasNode(b.block.Header.ParentRoot) {
			stale = append(stale, b.root)
			continue
		}
		_, pruned, err := c.fc.ProcessBlock(b.block)
		if err != nil {
			return replayed, fmt.Errorf("replay block %s: %w", b.root.Short(), err)
		}
		stale = append(stale, pruned...)
		replayed++
	}

	// Justified may sit above the anchor; it is only known now.
	if justified.Root != finalized.Root {
		if err := c.fc.SetJustified(justified); err != nil {
			c.logger.Warn("stored justified checkpoint not in replayed tree",
				"epoch", justified.Epoch,
				"root", justified.Root.Short(),
			)
		}
	}
	if len(stale) > 0 {
		if err := c.store.DeleteBlocks(stale); err != nil {
			return replayed, fmt.Errorf("delete stale blocks: %w", err)
		}
	}

	c.logger.Info("replayed blocks from storage",
		"blocks", replayed,
		"deleted", len(stale),
		"anchor_slot", anchor.block.Header.Slot,
		"anchor", anchor.root.Short(),
	)
	return replayed, nil
}

// ImportBlock adds a block to fork choice and storage. A block whose parent
// is unknown is parked; parked descendants are imported as soon as their
// parent is. The very first block of an empty chain must have a zero parent
// root and becomes the anchor. Blocks that can no longer join the tree are
// reported as Stale and neither parked nor stored.
func (c *Chain) ImportBlock(block *types.BlockInfo) (ImportResult, error) {
	root, err := block.Root()
	if err != nil {
		return ImportResult{}, fmt.Errorf("hash block: %w", err)
	}
	res := ImportResult{Root: root, Parent: block.Header.ParentRoot}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fc.HasNode(root) {
		res.Known = true
		return res, nil
	}
	if c.isStale(block) {
		staleBlockCount.Inc()
		res.Stale = true
		return res, nil
	}
	if !c.parentKnown(block) {
		c.pending.add(root, block)
		pendingBlockCount.Set(float64(c.pending.len()))
		res.MissingParent = true
		return res, nil
	}

	if err := c.importLocked(root, block); err != nil {
		return res, err
	}
	res.Imported = 1

	queue := []types.Root{root}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, child := range c.pending.takeChildren(parent) {
			if err := c.importLocked(child.root, child.block); err != nil {
				c.logger.Warn("dropping parked block",
					"slot", child.block.Header.Slot,
					"root", child.root.Short(),
					"error", err,
				)
				continue
			}
			res.Imported++
			queue = append(queue, child.root)
		}
	}
	pendingBlockCount.Set(float64(c.pending.len()))
	return res, nil
}

// isStale reports whether block can never be linked into the tree.
func (c *Chain) isStale(block *types.BlockInfo) bool {
	if c.fc.NodeCount() == 0 {
		return false
	}
	if block.Header.ParentRoot.IsZero() {
		return true
	}
	finalized, ok := c.fc.FinalizedCheckpoint()
	if !ok {
		return false
	}
	finalizedSlot, err := c.fc.Slot(finalized.Root)
	if err != nil {
		return false
	}
	return block.Header.Slot <= finalizedSlot
}

func (c *Chain) parentKnown(block *types.BlockInfo) bool {
	parent := block.Header.ParentRoot
	if c.fc.HasNode(parent) {
		return true
	}
	return parent.IsZero() && c.fc.NodeCount() == 0
}

// importLocked runs one block through fork choice and persists the result.
func (c *Chain) importLocked(root types.Root, block *types.BlockInfo) error {
	if _, pruned, err := c.fc.ProcessBlock(block); err != nil {
		return fmt.Errorf("process block: %w", err)
	} else if len(pruned) > 0 {
		if err := c.store.DeleteBlocks(pruned); err != nil {
			return fmt.Errorf("delete pruned blocks: %w", err)
		}
	}
	if err := c.store.PutBlock(root, block); err != nil {
		return fmt.Errorf("store block: %w", err)
	}

	justified, jok := c.fc.JustifiedCheckpoint()
	finalized, fok := c.fc.FinalizedCheckpoint()
	if jok && fok {
		if err := c.store.PutCheckpoints(justified, finalized); err != nil {
			return fmt.Errorf("store checkpoints: %w", err)
		}
	}

	importedBlockCount.Inc()
	c.logger.Info("imported block",
		"slot", block.Header.Slot,
		"root", root.Short(),
		"parent", block.Header.ParentRoot.Short(),
	)
	return nil
}

// IsPending reports whether root is parked waiting for its parent.
func (c *Chain) IsPending(root types.Root) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending.has(root)
}

// OnVote records a latest-message vote. It reports whether fork choice
// accepted it.
func (c *Chain) OnVote(vote *types.Vote) bool {
	return c.fc.AddAttestation(vote.Target, vote.ValidatorIndex, vote.Weight)
}

// OnSlot runs the per-slot fork choice duties: the epoch tick at epoch
// boundaries, then a head update.
func (c *Chain) OnSlot(slot types.Slot) (types.Root, error) {
	if types.SlotsSinceEpochStart(slot, c.chain.SlotsPerEpoch) == 0 {
		c.fc.OnTick()
	}
	head, err := c.fc.Head()
	if err != nil {
		return types.Root{}, err
	}
	headSlot, _ := c.fc.Slot(head)
	justified, _ := c.fc.JustifiedCheckpoint()
	finalized, _ := c.fc.FinalizedCheckpoint()
	c.logger.Info("slot",
		"slot", slot,
		"head", head.Short(),
		"head_slot", headSlot,
		"justified_epoch", justified.Epoch,
		"finalized_epoch", finalized.Epoch,
		"nodes", c.fc.NodeCount(),
	)
	return head, nil
}

// ForkChoice returns the underlying fork choice.
func (c *Chain) ForkChoice() *forkchoice.ForkChoice { return c.fc }
