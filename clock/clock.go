// Package clock provides time-to-slot conversion for the beacon chain.
//
// Fork choice only needs to know the current slot: the bouncing-attack guard
// compares it against the epoch start, and the node ticks fork choice at every
// epoch boundary.
package clock

import (
	"time"

	"github.com/geanlabs/lmdghost/config"
	"github.com/geanlabs/lmdghost/types"
)

// SlotClock converts wall-clock time to consensus slots and epochs.
// All time values are in seconds (Unix timestamps).
type SlotClock struct {
	GenesisTime uint64 // Unix timestamp when slot 0 began
	chain       config.ChainConfig
	timeFunc    func() time.Time // Injectable for testing
}

// New creates a SlotClock with the given genesis time.
func New(genesisTime uint64, chain config.ChainConfig) *SlotClock {
	return NewWithTimeFunc(genesisTime, chain, time.Now)
}

// NewWithTimeFunc creates a SlotClock with a custom time source (for testing).
func NewWithTimeFunc(genesisTime uint64, chain config.ChainConfig, timeFunc func() time.Time) *SlotClock {
	return &SlotClock{
		GenesisTime: genesisTime,
		chain:       chain,
		timeFunc:    timeFunc,
	}
}

// secondsSinceGenesis returns seconds elapsed since genesis (0 if before genesis).
func (c *SlotClock) secondsSinceGenesis() uint64 {
	now := uint64(c.timeFunc().Unix())
	if now < c.GenesisTime {
		return 0
	}
	return now - c.GenesisTime
}

// CurrentSlot returns the current slot number (0 if before genesis).
func (c *SlotClock) CurrentSlot() types.Slot {
	return types.Slot(c.secondsSinceGenesis() / c.chain.SecondsPerSlot)
}

// CurrentEpoch returns the epoch of the current slot.
func (c *SlotClock) CurrentEpoch() types.Epoch {
	return types.SlotToEpoch(c.CurrentSlot(), c.chain.SlotsPerEpoch)
}

// SlotStartTime returns the Unix timestamp when a given slot starts.
func (c *SlotClock) SlotStartTime(slot types.Slot) uint64 {
	return c.GenesisTime + uint64(slot)*c.chain.SecondsPerSlot
}

// UntilSlot returns how long until the given slot starts (0 if it already has).
func (c *SlotClock) UntilSlot(slot types.Slot) time.Duration {
	start := time.Unix(int64(c.SlotStartTime(slot)), 0)
	d := start.Sub(c.timeFunc())
	if d < 0 {
		return 0
	}
	return d
}

// IsBeforeGenesis returns true if current time is before genesis.
func (c *SlotClock) IsBeforeGenesis() bool {
	return uint64(c.timeFunc().Unix()) < c.GenesisTime
}
