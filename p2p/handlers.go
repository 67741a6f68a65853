package p2p

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/geanlabs/lmdghost/types"
)

// BlockHandler processes an incoming block. from is the peer that relayed it.
type BlockHandler func(ctx context.Context, from peer.ID, block *types.BlockInfo) error

// VoteHandler processes an incoming vote.
type VoteHandler func(ctx context.Context, from peer.ID, vote *types.Vote) error

// MessageHandlers holds handlers for different message types.
type MessageHandlers struct {
	OnBlock BlockHandler
	OnVote  VoteHandler
	Logger  *slog.Logger
}

// HandleBlockMessage decodes and processes an incoming block message.
func (h *MessageHandlers) HandleBlockMessage(ctx context.Context, from peer.ID, data []byte) error {
	decoded, err := DecompressMessage(data)
	if err != nil {
		return fmt.Errorf("decompress block: %w", err)
	}

	var block types.BlockInfo
	if err := block.UnmarshalSSZ(decoded); err != nil {
		return fmt.Errorf("unmarshal block: %w", err)
	}

	if h.Logger != nil {
		h.Logger.Debug("received block",
			"slot", block.Header.Slot,
			"proposer", block.Header.ProposerIndex,
			"peer", from,
		)
	}

	if h.OnBlock != nil {
		return h.OnBlock(ctx, from, &block)
	}
	return nil
}

// HandleVoteMessage decodes and processes an incoming vote message.
func (h *MessageHandlers) HandleVoteMessage(ctx context.Context, from peer.ID, data []byte) error {
	decoded, err := DecompressMessage(data)
	if err != nil {
		return fmt.Errorf("decompress vote: %w", err)
	}

	var vote types.Vote
	if err := vote.UnmarshalSSZ(decoded); err != nil {
		return fmt.Errorf("unmarshal vote: %w", err)
	}

	if h.OnVote != nil {
		return h.OnVote(ctx, from, &vote)
	}
	return nil
}
