package types

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	ssz "github.com/ferranbt/fastssz"
	"github.com/stretchr/testify/require"
)

func TestRoot_IsZero(t *testing.T) {
	tests := []struct {
		name string
		root Root
		want bool
	}{
		{"zero root", Root{}, true},
		{"non-zero first byte", Root{1}, false},
		{"non-zero last byte", func() Root { var r Root; r[31] = 1; return r }(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.root.IsZero())
		})
	}
}

func TestRoot_Compare(t *testing.T) {
	a := Root{0x01}
	b := Root{0x02}
	var c Root
	c[31] = 0xff

	require.Equal(t, -1, a.Compare(b))
	require.Equal(t, 1, b.Compare(a))
	require.Equal(t, 0, a.Compare(a))
	// The first byte dominates.
	require.Equal(t, 1, a.Compare(c))
}

func TestRootFromHex(t *testing.T) {
	want := Root{0xaa, 0xbb}
	got, err := RootFromHex(want.String())
	require.NoError(t, err)
	require.Equal(t, want, got)

	got, err = RootFromHex(want.String()[2:])
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = RootFromHex("0x1234")
	require.Error(t, err)
	_, err = RootFromHex("zz")
	require.Error(t, err)
}

func TestEpochHelpers(t *testing.T) {
	require.Equal(t, Epoch(0), SlotToEpoch(31, 32))
	require.Equal(t, Epoch(1), SlotToEpoch(32, 32))
	require.Equal(t, Slot(64), EpochStartSlot(2, 32))
	require.Equal(t, uint64(5), SlotsSinceEpochStart(69, 32))
}

func chunk(v uint64) [32]byte {
	var c [32]byte
	binary.LittleEndian.PutUint64(c[:8], v)
	return c
}

func hashPair(a, b [32]byte) [32]byte {
	return sha256.Sum256(append(a[:], b[:]...))
}

func TestCheckpoint_HashTreeRoot(t *testing.T) {
	cp := Checkpoint{Epoch: 7, Root: Root{1, 2, 3}}

	got, err := cp.HashTreeRoot()
	require.NoError(t, err)
	require.Equal(t, hashPair(chunk(7), cp.Root), got)
}

func TestBeaconBlockHeader_HashTreeRoot(t *testing.T) {
	h := BeaconBlockHeader{
		Slot:          9,
		ProposerIndex: 3,
		ParentRoot:    Root{0xaa},
		StateRoot:     Root{0xbb},
		BodyRoot:      Root{0xcc},
	}

	// Five fields pad to eight leaves.
	var zero [32]byte
	l0 := hashPair(chunk(9), chunk(3))
	l1 := hashPair(h.ParentRoot, h.StateRoot)
	l2 := hashPair(h.BodyRoot, zero)
	l3 := hashPair(zero, zero)
	want := hashPair(hashPair(l0, l1), hashPair(l2, l3))

	got, err := h.HashTreeRoot()
	require.NoError(t, err)
	require.Equal(t, want, got)

	info := BlockInfo{Header: h}
	root, err := info.Root()
	require.NoError(t, err)
	require.Equal(t, Root(want), root)
}

func TestBlockInfo_SSZ(t *testing.T) {
	info := &BlockInfo{
		Header: BeaconBlockHeader{
			Slot:       42,
			ParentRoot: Root{0x01},
			StateRoot:  Root{0x02},
		},
		Justified: Checkpoint{Epoch: 1, Root: Root{0x03}},
		Finalized: Checkpoint{Epoch: 0, Root: Root{0x04}},
	}

	data, err := info.MarshalSSZ()
	require.NoError(t, err)
	require.Len(t, data, info.SizeSSZ())

	var decoded BlockInfo
	require.NoError(t, decoded.UnmarshalSSZ(data))
	require.Equal(t, *info, decoded)

	require.Error(t, decoded.UnmarshalSSZ(data[:len(data)-1]))
}

func TestVote_SSZ(t *testing.T) {
	v := &Vote{ValidatorIndex: 12, Target: Root{0xde, 0xad}, Weight: 32_000_000_000}

	data, err := v.MarshalSSZ()
	require.NoError(t, err)
	require.Len(t, data, 48)

	var decoded Vote
	require.NoError(t, decoded.UnmarshalSSZ(data))
	require.Equal(t, *v, decoded)
	require.ErrorIs(t, decoded.UnmarshalSSZ(nil), ssz.ErrSize)
}

func TestGenesisBlock(t *testing.T) {
	info, root, err := GenesisBlock(1_700_000_000)
	require.NoError(t, err)
	require.Equal(t, Slot(0), info.Header.Slot)
	require.True(t, info.Header.ParentRoot.IsZero())

	got, err := info.Root()
	require.NoError(t, err)
	require.Equal(t, root, got)
	require.Equal(t, Checkpoint{Root: root}, info.Justified)
	require.Equal(t, Checkpoint{Root: root}, info.Finalized)

	again, _, err := GenesisBlock(1_700_000_000)
	require.NoError(t, err)
	require.Equal(t, info, again)

	_, other, err := GenesisBlock(1_700_000_012)
	require.NoError(t, err)
	require.NotEqual(t, root, other)
}
