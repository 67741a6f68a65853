package types

import "encoding/binary"

// GenesisBlock returns the anchor block every node of a network starts from.
// Its state root commits to the genesis time so networks with different
// genesis times have different genesis roots. Both checkpoints point at the
// block itself at epoch 0.
func GenesisBlock(genesisTime uint64) (*BlockInfo, Root, error) {
	info := &BlockInfo{}
	binary.LittleEndian.PutUint64(info.Header.StateRoot[:8], genesisTime)
	root, err := info.Root()
	if err != nil {
		return nil, Root{}, err
	}
	info.Justified = Checkpoint{Root: root}
	info.Finalized = Checkpoint{Root: root}
	return info, root, nil
}
