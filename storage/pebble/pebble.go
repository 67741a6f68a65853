// Package pebble is a storage.Store backed by a pebble key-value database.
//
// Layout:
//
//	b/<root>      SSZ BlockInfo
//	c/justified   SSZ Checkpoint
//	c/finalized   SSZ Checkpoint
package pebble

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/geanlabs/lmdghost/storage"
	"github.com/geanlabs/lmdghost/types"
)

var (
	blockPrefix  = []byte("b/")
	justifiedKey = []byte("c/justified")
	finalizedKey = []byte("c/finalized")
)

// Store is a pebble implementation of storage.Store.
type Store struct {
	db *pebble.DB
}

var _ storage.Store = (*Store)(nil)

// Open opens or creates the database in dir.
func Open(dir string) (*Store, error) {
	return open(dir, &pebble.Options{})
}

// OpenInMemory opens a database that lives only in memory.
func OpenInMemory() (*Store, error) {
	return open("", &pebble.Options{FS: vfs.NewMem()})
}

func open(dir string, opts *pebble.Options) (*Store, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble at %q: %w", dir, err)
	}
	return &Store{db: db}, nil
}

func blockKey(root types.Root) []byte {
	key := make([]byte, 0, len(blockPrefix)+len(root))
	key = append(key, blockPrefix...)
	return append(key, root[:]...)
}

func (s *Store) get(key []byte) ([]byte, error) {
	v, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

func (s *Store) PutBlock(root types.Root, block *types.BlockInfo) error {
	enc, err := block.MarshalSSZ()
	if err != nil {
		return fmt.Errorf("encode block %s: %w", root.Short(), err)
	}
	return s.db.Set(blockKey(root), enc, pebble.Sync)
}

func (s *Store) GetBlock(root types.Root) (*types.BlockInfo, error) {
	enc, err := s.get(blockKey(root))
	if err != nil {
		return nil, err
	}
	block := new(types.BlockInfo)
	if err := block.UnmarshalSSZ(enc); err != nil {
		return nil, fmt.Errorf("decode block %s: %w", root.Short(), err)
	}
	return block, nil
}

func (s *Store) HasBlock(root types.Root) bool {
	_, closer, err := s.db.Get(blockKey(root))
	if err != nil {
		return false
	}
	closer.Close()
	return true
}

func (s *Store) ForEachBlock(fn func(root types.Root, block *types.BlockInfo) error) error {
	upper := append([]byte(nil), blockPrefix...)
	upper[len(upper)-1]++
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: blockPrefix,
		UpperBound: upper,
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		var root types.Root
		copy(root[:], iter.Key()[len(blockPrefix):])
		block := new(types.BlockInfo)
		if err := block.UnmarshalSSZ(iter.Value()); err != nil {
			return fmt.Errorf("decode block %s: %w", root.Short(), err)
		}
		if err := fn(root, block); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (s *Store) DeleteBlocks(roots []types.Root) error {
	if len(roots) == 0 {
		return nil
	}
	batch := s.db.NewBatch()
	defer batch.Close()
	for _, r := range roots {
		if err := batch.Delete(blockKey(r), nil); err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

func (s *Store) PutCheckpoints(justified, finalized types.Checkpoint) error {
	j, err := justified.MarshalSSZ()
	if err != nil {
		return fmt.Errorf("encode justified checkpoint: %w", err)
	}
	f, err := finalized.MarshalSSZ()
	if err != nil {
		return fmt.Errorf("encode finalized checkpoint: %w", err)
	}
	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(justifiedKey, j, nil); err != nil {
		return err
	}
	if err := batch.Set(finalizedKey, f, nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

func (s *Store) Checkpoints() (justified, finalized types.Checkpoint, err error) {
	j, err := s.get(justifiedKey)
	if err != nil {
		return justified, finalized, err
	}
	f, err := s.get(finalizedKey)
	if err != nil {
		return justified, finalized, err
	}
	if err := justified.UnmarshalSSZ(j); err != nil {
		return justified, finalized, fmt.Errorf("decode justified checkpoint: %w", err)
	}
	if err := finalized.UnmarshalSSZ(f); err != nil {
		return justified, finalized, fmt.Errorf("decode finalized checkpoint: %w", err)
	}
	return justified, finalized, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
