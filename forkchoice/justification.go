package forkchoice

import (
	"fmt"

	"github.com/geanlabs/lmdghost/types"
)

// ProcessBlock adds a block that passed the state transition and applies the
// justified and finalized checkpoints of its post-state. It returns the block
// root and, when the block advanced finality, the roots pruned from the tree.
func (f *ForkChoice) ProcessBlock(info *types.BlockInfo) (types.Root, []types.Root, error) {
	root, err := info.Root()
	if err != nil {
		return types.Root{}, nil, fmt.Errorf("hash block header: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.addBlockLocked(info.Header.Slot, root, info.Header.ParentRoot)

	jcp := info.Justified
	if f.justified == nil || jcp.Epoch > f.justified.epoch {
		if f.bestJustified == nil || f.justified == nil || jcp.Epoch > f.bestJustified.Epoch {
			f.checkAndSetJustified(jcp)
		}
	}

	var pruned []types.Root
	fcp := info.Finalized
	if f.finalized == nil || fcp.Epoch > f.finalized.epoch {
		pruned, err = f.setFinalizedLocked(fcp)
		if err != nil {
			f.logger.Warn("ignoring finalized checkpoint",
				"epoch", fcp.Epoch,
				"root", fcp.Root.Short(),
				"error", err,
			)
		}
	}
	return root, pruned, nil
}

// checkAndSetJustified records cp as the best justified checkpoint seen and
// applies it right away when that is safe. Caller must hold the lock.
func (f *ForkChoice) checkAndSetJustified(cp types.Checkpoint) {
	best := cp
	f.bestJustified = &best
	if !f.shouldUpdateJustifiedLocked(cp.Root) {
		f.logger.Debug("deferring justified checkpoint to next epoch",
			"epoch", cp.Epoch,
			"root", cp.Root.Short(),
		)
		return
	}
	if err := f.setJustifiedLocked(cp); err != nil {
		f.logger.Warn("ignoring justified checkpoint",
			"epoch", cp.Epoch,
			"root", cp.Root.Short(),
			"error", err,
		)
	}
}

// ShouldUpdateJustified guards against the bouncing attack: a conflicting
// justified checkpoint is only adopted in the first slots of an epoch.
func (f *ForkChoice) ShouldUpdateJustified(root types.Root) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shouldUpdateJustifiedLocked(root)
}

func (f *ForkChoice) shouldUpdateJustifiedLocked(root types.Root) bool {
	if f.justified == nil {
		return true
	}
	if f.clock != nil &&
		types.SlotsSinceEpochStart(f.clock.CurrentSlot(), f.chain.SlotsPerEpoch) < f.chain.SafeSlotsToUpdateJustified {
		return true
	}

	newJustified, ok := f.tree.index(root)
	if !ok {
		return false
	}
	current, ok := f.tree.node(f.justified.root)
	if !ok {
		return true
	}
	if f.tree.nodes[newJustified].slot <= current.slot {
		return false
	}
	anc, ok := f.tree.ancestor(newJustified, current.slot)
	return ok && f.tree.nodes[anc].root == current.root
}

// OnTick is called at the start of every epoch. It adopts the best justified
// checkpoint that was deferred by ShouldUpdateJustified.
func (f *ForkChoice) OnTick() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bestJustified == nil {
		return
	}
	if f.justified != nil && f.bestJustified.Epoch <= f.justified.epoch {
		return
	}
	if err := f.setJustifiedLocked(*f.bestJustified); err != nil {
		f.logger.Warn("cannot apply best justified checkpoint",
			"epoch", f.bestJustified.Epoch,
			"error", err,
		)
	}
}

// Ancestor returns the ancestor of root at exactly slot. ok is false when no
// block in root's chain sits at that slot, or the chain is pruned below it.
func (f *ForkChoice) Ancestor(root types.Root, slot types.Slot) (types.Root, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, ok := f.tree.index(root)
	if !ok {
		return types.Root{}, false
	}
	anc, ok := f.tree.ancestor(i, slot)
	if !ok {
		return types.Root{}, false
	}
	return f.tree.nodes[anc].root, true
}

// JustifiedCheckpoint returns the current justified checkpoint.
func (f *ForkChoice) JustifiedCheckpoint() (types.Checkpoint, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.justified == nil {
		return types.Checkpoint{}, false
	}
	return types.Checkpoint{Epoch: f.justified.epoch, Root: f.justified.root}, true
}

// FinalizedCheckpoint returns the current finalized checkpoint.
func (f *ForkChoice) FinalizedCheckpoint() (types.Checkpoint, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finalized == nil {
		return types.Checkpoint{}, false
	}
	return types.Checkpoint{Epoch: f.finalized.epoch, Root: f.finalized.root}, true
}

// BestJustifiedCheckpoint returns the best justified checkpoint seen so far,
// which may be ahead of JustifiedCheckpoint until the next epoch tick.
func (f *ForkChoice) BestJustifiedCheckpoint() (types.Checkpoint, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bestJustified == nil {
		return types.Checkpoint{}, false
	}
	return *f.bestJustified, true
}
