package forkchoice

import "github.com/geanlabs/lmdghost/types"

// SlotLookup resolves the slot of a block root. ok is false when the block is
// not known to fork choice.
type SlotLookup func(root types.Root) (slot types.Slot, ok bool)

// AggregatedVote is the sum of all live votes for one target.
type AggregatedVote struct {
	Target types.Root
	Weight types.Gwei
	// PrevWeight is the weight last reconciled into the tree. Weight != PrevWeight
	// means the tree has not seen the latest change for this target.
	PrevWeight types.Gwei
}

// pending reports whether the aggregate carries a delta the tree has not seen.
func (a *AggregatedVote) pending() bool {
	return a.Weight != a.PrevWeight
}

// delta returns the signed change since the last reconciliation.
func (a *AggregatedVote) delta() int64 {
	return int64(a.Weight) - int64(a.PrevWeight)
}

// Aggregator turns a stream of latest messages (at most one live vote per
// validator) into per-target aggregate weight. It knows nothing about block
// structure beyond the slot lookup, and is not safe for concurrent use.
type Aggregator struct {
	// target -> sum of all live votes for it
	aggregates map[types.Root]*AggregatedVote
	// validator -> its live vote
	latest map[types.ValidatorIndex]types.Vote

	slotOf SlotLookup
}

// NewAggregator creates an empty aggregator.
func NewAggregator(slotOf SlotLookup) *Aggregator {
	return &Aggregator{
		aggregates: make(map[types.Root]*AggregatedVote),
		latest:     make(map[types.ValidatorIndex]types.Vote),
		slotOf:     slotOf,
	}
}

func (a *Aggregator) ensure(target types.Root) *AggregatedVote {
	agg, ok := a.aggregates[target]
	if !ok {
		agg = &AggregatedVote{Target: target}
		a.aggregates[target] = agg
	}
	return agg
}

// AddVote records v as the latest message of its validator. It returns false
// when a replacement is rejected: either target slot is unknown, or the new
// target is at an earlier slot than the one it would replace.
func (a *Aggregator) AddVote(v types.Vote) bool {
	prev, hasPrev := a.latest[v.ValidatorIndex]
	if !hasPrev {
		a.ensure(v.Target).Weight += v.Weight
		a.latest[v.ValidatorIndex] = v
		return true
	}

	prevSlot, okPrev := a.slotOf(prev.Target)
	newSlot, okNew := a.slotOf(v.Target)
	if !okPrev || !okNew || prevSlot > newSlot {
		return false
	}

	switch {
	case prev.Target != v.Target:
		// The previous aggregate exists for as long as prev is live.
		a.aggregates[prev.Target].Weight -= prev.Weight
		a.ensure(v.Target).Weight += v.Weight
	case prev.Weight != v.Weight:
		agg := a.aggregates[v.Target]
		agg.Weight = agg.Weight - prev.Weight + v.Weight
	default:
		return true
	}
	a.latest[v.ValidatorIndex] = v
	return true
}

// Prune deletes aggregates that are fully reconciled and no longer targeted
// by any live vote. Aggregates with a pending delta always survive.
func (a *Aggregator) Prune() int {
	alive := make(map[types.Root]struct{}, len(a.aggregates))
	for _, v := range a.latest {
		alive[v.Target] = struct{}{}
	}
	removed := 0
	for root, agg := range a.aggregates {
		if _, ok := alive[root]; ok || agg.pending() {
			continue
		}
		delete(a.aggregates, root)
		removed++
	}
	return removed
}

// Forget drops every live vote whose target is in roots and settles the
// aggregates of those targets. It is used when finalization prunes the
// targets from the tree: their weight can no longer reach it.
func (a *Aggregator) Forget(roots []types.Root) {
	if len(roots) == 0 {
		return
	}
	gone := make(map[types.Root]struct{}, len(roots))
	for _, r := range roots {
		gone[r] = struct{}{}
	}
	for idx, v := range a.latest {
		if _, ok := gone[v.Target]; ok {
			a.aggregates[v.Target].Weight -= v.Weight
			delete(a.latest, idx)
		}
	}
	for r := range gone {
		a.settle(r)
	}
}

// settle marks the aggregate for target as reconciled into the tree.
func (a *Aggregator) settle(target types.Root) {
	if agg, ok := a.aggregates[target]; ok {
		agg.PrevWeight = agg.Weight
	}
}

// forEachPending calls fn for every aggregate with an unreconciled delta.
func (a *Aggregator) forEachPending(fn func(agg *AggregatedVote)) {
	for _, agg := range a.aggregates {
		if agg.pending() {
			fn(agg)
		}
	}
}

// LatestVote returns the live vote of a validator.
func (a *Aggregator) LatestVote(idx types.ValidatorIndex) (types.Vote, bool) {
	v, ok := a.latest[idx]
	return v, ok
}

// Aggregate returns a copy of the aggregate for target.
func (a *Aggregator) Aggregate(target types.Root) (AggregatedVote, bool) {
	agg, ok := a.aggregates[target]
	if !ok {
		return AggregatedVote{}, false
	}
	return *agg, true
}

// TotalWeight returns the sum of all aggregate weights.
func (a *Aggregator) TotalWeight() types.Gwei {
	var sum types.Gwei
	for _, agg := range a.aggregates {
		sum += agg.Weight
	}
	return sum
}

// LiveWeight returns the sum of all live vote weights.
func (a *Aggregator) LiveWeight() types.Gwei {
	var sum types.Gwei
	for _, v := range a.latest {
		sum += v.Weight
	}
	return sum
}

// VoteCount returns the number of validators with a live vote.
func (a *Aggregator) VoteCount() int {
	return len(a.latest)
}

// AggregateCount returns the number of tracked targets.
func (a *Aggregator) AggregateCount() int {
	return len(a.aggregates)
}
