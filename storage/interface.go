// Package storage persists fork-choice inputs: processed blocks and the
// latest justified and finalized checkpoints. The tree itself is not stored;
// it is rebuilt by replaying blocks at startup.
package storage

import "github.com/geanlabs/lmdghost/types"

// Store is a storage interface for processed blocks and checkpoints.
type Store interface {
	PutBlock(root types.Root, block *types.BlockInfo) error
	// GetBlock returns ErrNotFound for unknown roots.
	GetBlock(root types.Root) (*types.BlockInfo, error)
	HasBlock(root types.Root) bool
	// ForEachBlock visits every stored block in no particular order and stops
	// at the first error returned by fn.
	ForEachBlock(fn func(root types.Root, block *types.BlockInfo) error) error
	DeleteBlocks(roots []types.Root) error

	PutCheckpoints(justified, finalized types.Checkpoint) error
	// Checkpoints returns ErrNotFound until PutCheckpoints was called once.
	Checkpoints() (justified, finalized types.Checkpoint, err error)

	Close() error
}
