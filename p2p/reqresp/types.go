// Package reqresp implements the Status and BlocksByRoot request/response
// protocols used to find and fetch missing parents.
package reqresp

import "github.com/geanlabs/lmdghost/types"

const (
	StatusProtocolV1       = "/ghost/req/status/1/"
	BlocksByRootProtocolV1 = "/ghost/req/blocks_by_root/1/"
	MaxRequestBlocks       = 1024
)

//go:generate go run github.com/ferranbt/fastssz/sszgen --path=. --objs=Status,BlocksByRootRequest

// Status is the handshake message exchanged on new connections.
type Status struct {
	Finalized types.Checkpoint
	HeadRoot  types.Root `ssz-size:"32"`
	HeadSlot  types.Slot
}

// BlocksByRootRequest asks a peer for blocks by root.
type BlocksByRootRequest struct {
	Roots []types.Root `ssz-max:"1024" ssz-size:"?,32"`
}
