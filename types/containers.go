package types

//go:generate go run github.com/ferranbt/fastssz/sszgen --path=. --objs=Checkpoint,BeaconBlockHeader,BlockInfo,Vote

// SSZ Containers

// Checkpoint is an (epoch, root) pair marking a justified or finalized block.
type Checkpoint struct {
	Epoch Epoch
	Root  Root `ssz-size:"32"`
}

// BeaconBlockHeader summarizes a block without its body. Its hash tree root is
// the block root used throughout fork choice.
type BeaconBlockHeader struct {
	Slot          Slot
	ProposerIndex ValidatorIndex
	ParentRoot    Root `ssz-size:"32"`
	StateRoot     Root `ssz-size:"32"`
	BodyRoot      Root `ssz-size:"32"`
}

// BlockInfo is a block that has already passed the state transition, together
// with the checkpoints of its post-state.
type BlockInfo struct {
	Header    BeaconBlockHeader
	Justified Checkpoint
	Finalized Checkpoint
}

// Root returns the block root (hash tree root of the header).
func (b *BlockInfo) Root() (Root, error) {
	r, err := b.Header.HashTreeRoot()
	return Root(r), err
}

// Vote is a validator's latest message: the block it currently votes for and
// its effective balance.
type Vote struct {
	ValidatorIndex ValidatorIndex
	Target         Root `ssz-size:"32"`
	Weight         Gwei
}
