package reqresp

import (
	"fmt"

	"github.com/geanlabs/lmdghost/types"
)

// ForkChoiceReader is the fork choice view the handler answers from.
// Satisfied by *forkchoice.ForkChoice.
type ForkChoiceReader interface {
	Head() (types.Root, error)
	Slot(root types.Root) (types.Slot, error)
	FinalizedCheckpoint() (types.Checkpoint, bool)
}

// BlockReader provides read access to stored blocks.
// Satisfied by storage.Store.
type BlockReader interface {
	GetBlock(root types.Root) (*types.BlockInfo, error)
}

// Handler answers request/response protocol messages.
type Handler struct {
	chain  ForkChoiceReader
	blocks BlockReader
}

// NewHandler creates a new request/response handler.
func NewHandler(chain ForkChoiceReader, blocks BlockReader) *Handler {
	return &Handler{chain: chain, blocks: blocks}
}

// GetStatus returns the node's current status for the handshake protocol.
func (h *Handler) GetStatus() (*Status, error) {
	headRoot, err := h.chain.Head()
	if err != nil {
		return nil, fmt.Errorf("head: %w", err)
	}
	headSlot, err := h.chain.Slot(headRoot)
	if err != nil {
		return nil, fmt.Errorf("head slot: %w", err)
	}
	finalized, _ := h.chain.FinalizedCheckpoint()
	return &Status{
		Finalized: finalized,
		HeadRoot:  headRoot,
		HeadSlot:  headSlot,
	}, nil
}

// HandleBlocksByRoot returns the requested blocks we have, in request order.
// Unknown roots are skipped.
func (h *Handler) HandleBlocksByRoot(request *BlocksByRootRequest) []*types.BlockInfo {
	var blocks []*types.BlockInfo

	for _, root := range request.Roots {
		if len(blocks) >= MaxRequestBlocks {
			break
		}
		block, err := h.blocks.GetBlock(root)
		if err != nil {
			continue
		}
		blocks = append(blocks, block)
	}

	return blocks
}

// ValidatePeerStatus rejects a peer that finalized a different block at our
// finalized epoch.
func (h *Handler) ValidatePeerStatus(peerStatus *Status) error {
	ours, ok := h.chain.FinalizedCheckpoint()
	if !ok {
		return nil
	}
	if peerStatus.Finalized.Epoch == ours.Epoch && peerStatus.Finalized.Root != ours.Root {
		return ErrInvalidStatus
	}
	return nil
}
