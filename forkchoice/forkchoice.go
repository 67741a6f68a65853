// Package forkchoice implements LMD GHOST over an incrementally maintained
// block tree.
//
// Votes are accumulated per target by an Aggregator and only pushed into the
// tree when the head is read. Each tree node caches its heaviest child and the
// leaf reached by following heaviest children, so the head is a single lookup
// on the justified node once pending deltas are applied.
package forkchoice

import (
	"log/slog"
	"sync"

	"github.com/geanlabs/lmdghost/config"
	"github.com/geanlabs/lmdghost/types"
)

// Clock reports the current slot.
type Clock interface {
	CurrentSlot() types.Slot
}

// checkpointNode ties a checkpoint epoch to a node in the tree.
type checkpointNode struct {
	epoch types.Epoch
	root  types.Root
}

// Config holds ForkChoice dependencies.
type Config struct {
	Chain  config.ChainConfig
	Clock  Clock
	Logger *slog.Logger
}

// ForkChoice is the stateful DAG LMD GHOST engine. All methods are safe for
// concurrent use; they serialize on one mutex because Head mutates the tree
// while reconciling.
type ForkChoice struct {
	mu sync.Mutex

	chain  config.ChainConfig
	clock  Clock
	logger *slog.Logger

	tree  *blockTree
	votes *Aggregator

	justified     *checkpointNode
	finalized     *checkpointNode
	bestJustified *types.Checkpoint
	synced        bool

	lastHead types.Root
}

// New creates an empty ForkChoice.
func New(cfg Config) *ForkChoice {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	f := &ForkChoice{
		chain:  cfg.Chain,
		clock:  cfg.Clock,
		logger: logger,
		tree:   newBlockTree(),
		synced: true,
	}
	f.votes = NewAggregator(f.slotOf)
	return f
}

// slotOf resolves slots for the aggregator. Caller must hold the lock.
func (f *ForkChoice) slotOf(root types.Root) (types.Slot, bool) {
	n, ok := f.tree.node(root)
	if !ok {
		return 0, false
	}
	return n.slot, true
}

// AddBlock inserts a block. A block whose parent is unknown is kept without a
// parent link and takes no part in weight propagation. Adding a known root
// again is a no-op.
func (f *ForkChoice) AddBlock(slot types.Slot, root, parentRoot types.Root) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addBlockLocked(slot, root, parentRoot)
}

func (f *ForkChoice) addBlockLocked(slot types.Slot, root, parentRoot types.Root) {
	f.synced = false
	i, created := f.tree.insert(slot, root, parentRoot)
	if !created {
		return
	}
	processedBlockCount.Inc()
	nodeCount.Set(float64(f.tree.len()))
	if f.tree.nodes[i].parent == none {
		f.logger.Debug("block added without parent",
			"slot", slot,
			"root", root.Short(),
			"parent", parentRoot.Short(),
		)
	}
}

// AddAttestation records the latest message of attester. Stale or
// unresolvable replacements are dropped silently; the return value reports
// whether the vote was accepted.
func (f *ForkChoice) AddAttestation(root types.Root, attester types.ValidatorIndex, weight types.Gwei) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.synced = false
	ok := f.votes.AddVote(types.Vote{ValidatorIndex: attester, Target: root, Weight: weight})
	if !ok {
		rejectedAttestationCount.Inc()
		return false
	}
	processedAttestationCount.Inc()
	aggregateCount.Set(float64(f.votes.AggregateCount()))
	return true
}

// SetJustified moves the justified checkpoint. It does not prune.
func (f *ForkChoice) SetJustified(cp types.Checkpoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setJustifiedLocked(cp)
}

func (f *ForkChoice) setJustifiedLocked(cp types.Checkpoint) error {
	if _, ok := f.tree.index(cp.Root); !ok {
		return ErrUnknownJustifiedRoot
	}
	f.justified = &checkpointNode{epoch: cp.Epoch, root: cp.Root}
	f.logger.Debug("justified checkpoint updated", "epoch", cp.Epoch, "root", cp.Root.Short())
	return nil
}

// SetFinalized moves the finalized checkpoint and prunes everything that is
// not the finalized block or one of its descendants, in the tree and in the
// vote aggregator.
func (f *ForkChoice) SetFinalized(cp types.Checkpoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.setFinalizedLocked(cp)
	return err
}

// SetFinalizedAndPrune is SetFinalized that also reports the pruned roots, so
// callers can drop them from their own stores.
func (f *ForkChoice) SetFinalizedAndPrune(cp types.Checkpoint) ([]types.Root, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setFinalizedLocked(cp)
}

func (f *ForkChoice) setFinalizedLocked(cp types.Checkpoint) ([]types.Root, error) {
	i, ok := f.tree.index(cp.Root)
	if !ok {
		return nil, ErrUnknownFinalizedRoot
	}
	f.synced = false
	f.finalized = &checkpointNode{epoch: cp.Epoch, root: cp.Root}

	removed := f.tree.prune(i)
	f.votes.Forget(removed)
	dropped := f.votes.Prune()

	if f.justified != nil {
		if _, ok := f.tree.index(f.justified.root); !ok {
			// The justified block did not descend from the new finalized block.
			f.justified = &checkpointNode{epoch: cp.Epoch, root: cp.Root}
		}
	}

	prunedCount.Inc()
	nodeCount.Set(float64(f.tree.len()))
	aggregateCount.Set(float64(f.votes.AggregateCount()))
	f.logger.Info("finalized checkpoint updated",
		"epoch", cp.Epoch,
		"root", cp.Root.Short(),
		"pruned_nodes", len(removed),
		"pruned_aggregates", dropped,
	)
	return removed, nil
}

// syncChanges pushes every pending aggregate delta into the tree. Aggregates
// whose target block is not in the tree yet stay pending. Caller must hold
// the lock.
func (f *ForkChoice) syncChanges() {
	f.votes.forEachPending(func(agg *AggregatedVote) {
		i, ok := f.tree.index(agg.Target)
		if !ok {
			return
		}
		f.tree.propagateWeightChange(i, agg.delta())
		f.votes.settle(agg.Target)
	})
	f.synced = true
}

// Head returns the canonical head: the best target of the justified block.
func (f *ForkChoice) Head() (types.Root, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headLocked()
}

func (f *ForkChoice) headLocked() (types.Root, error) {
	calledHeadCount.Inc()
	if f.justified == nil {
		return types.Root{}, ErrNoJustifiedCheckpoint
	}
	if !f.synced {
		f.syncChanges()
	}
	j, ok := f.tree.index(f.justified.root)
	if !ok {
		return types.Root{}, ErrUnknownJustifiedRoot
	}
	head := f.tree.nodes[f.tree.nodes[j].bestTarget]

	if head.root != f.lastHead {
		if !f.lastHead.IsZero() {
			headChangesCount.Inc()
		}
		f.lastHead = head.root
		headSlotNumber.Set(float64(head.slot))
	}
	return head.root, nil
}

// HasNode reports whether root is in the tree.
func (f *ForkChoice) HasNode(root types.Root) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tree.index(root)
	return ok
}

// NodeCount returns the number of blocks in the tree.
func (f *ForkChoice) NodeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tree.len()
}

// Slot returns the slot of a block in the tree.
func (f *ForkChoice) Slot(root types.Root) (types.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.tree.node(root)
	if !ok {
		return 0, ErrUnknownBlock
	}
	return n.slot, nil
}

// Weight returns the reconciled weight of a block and its descendants.
func (f *ForkChoice) Weight(root types.Root) (types.Gwei, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.synced {
		f.syncChanges()
	}
	n, ok := f.tree.node(root)
	if !ok {
		return 0, ErrUnknownBlock
	}
	return n.weight, nil
}

// BestChild returns the heaviest child of root. ok is false for leaves.
func (f *ForkChoice) BestChild(root types.Root) (child types.Root, ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.synced {
		f.syncChanges()
	}
	n, found := f.tree.node(root)
	if !found {
		return types.Root{}, false, ErrUnknownBlock
	}
	if n.bestChild == none {
		return types.Root{}, false, nil
	}
	return f.tree.nodes[n.bestChild].root, true, nil
}

// BestTarget returns the leaf reached by following best children from root.
func (f *ForkChoice) BestTarget(root types.Root) (types.Root, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.synced {
		f.syncChanges()
	}
	n, ok := f.tree.node(root)
	if !ok {
		return types.Root{}, ErrUnknownBlock
	}
	return f.tree.nodes[n.bestTarget].root, nil
}

// LatestVote returns the live vote of a validator.
func (f *ForkChoice) LatestVote(idx types.ValidatorIndex) (types.Vote, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.votes.LatestVote(idx)
}

// Aggregate returns the vote aggregate for target.
func (f *ForkChoice) Aggregate(target types.Root) (AggregatedVote, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.votes.Aggregate(target)
}
