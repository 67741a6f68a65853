package forkchoice

import "errors"

// Sentinel errors returned by ForkChoice.
// Callers may use errors.Is to check for specific failure types.
var (
	ErrNoJustifiedCheckpoint = errors.New("no justified checkpoint") // Head called before SetJustified
	ErrUnknownJustifiedRoot  = errors.New("unknown justified root")  // justified root not in the tree
	ErrUnknownFinalizedRoot  = errors.New("unknown finalized root")  // finalized root not in the tree
	ErrUnknownBlock          = errors.New("unknown block root")      // queried root not in the tree
)
