package memory

import (
	"sync"

	"github.com/geanlabs/lmdghost/storage"
	"github.com/geanlabs/lmdghost/types"
)

// Store is an in-memory implementation of storage.Store.
type Store struct {
	mu        sync.RWMutex
	blocks    map[types.Root]*types.BlockInfo
	justified *types.Checkpoint
	finalized *types.Checkpoint
}

var _ storage.Store = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		blocks: make(map[types.Root]*types.BlockInfo),
	}
}

func (m *Store) PutBlock(root types.Root, block *types.BlockInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *block
	m.blocks[root] = &cp
	return nil
}

func (m *Store) GetBlock(root types.Root) (*types.BlockInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blocks[root]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *Store) HasBlock(root types.Root) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blocks[root]
	return ok
}

func (m *Store) ForEachBlock(fn func(root types.Root, block *types.BlockInfo) error) error {
	m.mu.RLock()
	snapshot := make(map[types.Root]types.BlockInfo, len(m.blocks))
	for k, v := range m.blocks {
		snapshot[k] = *v
	}
	m.mu.RUnlock()

	for k, v := range snapshot {
		if err := fn(k, &v); err != nil {
			return err
		}
	}
	return nil
}

func (m *Store) DeleteBlocks(roots []types.Root) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range roots {
		delete(m.blocks, r)
	}
	return nil
}

func (m *Store) PutCheckpoints(justified, finalized types.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.justified = &justified
	m.finalized = &finalized
	return nil
}

func (m *Store) Checkpoints() (types.Checkpoint, types.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.justified == nil || m.finalized == nil {
		return types.Checkpoint{}, types.Checkpoint{}, storage.ErrNotFound
	}
	return *m.justified, *m.finalized, nil
}

func (m *Store) Close() error { return nil }
