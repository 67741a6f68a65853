package node

import (
	"cmp"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/geanlabs/lmdghost/types"
)

// pendingBlock is a block parked until its parent is imported.
type pendingBlock struct {
	root  types.Root
	block *types.BlockInfo
}

// pendingBlocks holds blocks whose parent is unknown. Bounded; the least
// recently parked block is dropped first.
type pendingBlocks struct {
	cache *lru.Cache[types.Root, *types.BlockInfo]
}

func newPendingBlocks(size int) (*pendingBlocks, error) {
	cache, err := lru.New[types.Root, *types.BlockInfo](size)
	if err != nil {
		return nil, err
	}
	return &pendingBlocks{cache: cache}, nil
}

func (p *pendingBlocks) add(root types.Root, block *types.BlockInfo) {
	p.cache.Add(root, block)
}

func (p *pendingBlocks) has(root types.Root) bool {
	return p.cache.Contains(root)
}

func (p *pendingBlocks) len() int {
	return p.cache.Len()
}

// takeChildren removes and returns every parked child of parent, lowest slot
// first.
func (p *pendingBlocks) takeChildren(parent types.Root) []pendingBlock {
	var children []pendingBlock
	for _, root := range p.cache.Keys() {
		block, ok := p.cache.Peek(root)
		if !ok || block.Header.ParentRoot != parent {
			continue
		}
		children = append(children, pendingBlock{root: root, block: block})
		p.cache.Remove(root)
	}
	slices.SortFunc(children, func(a, b pendingBlock) int {
		if c := cmp.Compare(a.block.Header.Slot, b.block.Header.Slot); c != 0 {
			return c
		}
		return a.root.Compare(b.root)
	})
	return children
}
