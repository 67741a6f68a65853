// Package types defines the primitive and container types shared by the fork
// choice engine and the networking layer that feeds it.
package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// Primitive types.
type Slot uint64
type Epoch uint64
type ValidatorIndex uint64
type Gwei uint64
type Root [32]byte

func (r Root) IsZero() bool { return r == Root{} }

// Short returns a short hex representation of the root (first 4 bytes).
func (r Root) Short() string {
	return fmt.Sprintf("%x", r[:4])
}

// String returns the 0x-prefixed hex encoding of the root.
func (r Root) String() string {
	return "0x" + hex.EncodeToString(r[:])
}

// Compare compares two roots lexicographically.
// Returns 1 if r > other, -1 if r < other, 0 if equal.
func (r Root) Compare(other Root) int {
	return bytes.Compare(r[:], other[:])
}

// RootFromHex parses a 32-byte root, with or without 0x prefix.
func RootFromHex(s string) (Root, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	var r Root
	b, err := hex.DecodeString(s)
	if err != nil {
		return r, fmt.Errorf("decode root: %w", err)
	}
	if len(b) != len(r) {
		return r, fmt.Errorf("decode root: want %d bytes, got %d", len(r), len(b))
	}
	copy(r[:], b)
	return r, nil
}

// SlotToEpoch returns the epoch containing slot.
func SlotToEpoch(slot Slot, slotsPerEpoch uint64) Epoch {
	return Epoch(uint64(slot) / slotsPerEpoch)
}

// EpochStartSlot returns the first slot of epoch.
func EpochStartSlot(epoch Epoch, slotsPerEpoch uint64) Slot {
	return Slot(uint64(epoch) * slotsPerEpoch)
}

// SlotsSinceEpochStart returns how far slot is into its epoch.
func SlotsSinceEpochStart(slot Slot, slotsPerEpoch uint64) uint64 {
	return uint64(slot) % slotsPerEpoch
}
