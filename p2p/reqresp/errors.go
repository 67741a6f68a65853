package reqresp

import "errors"

var (
	// ErrInvalidStatus is returned when a peer's status conflicts with our
	// finalized chain.
	ErrInvalidStatus = errors.New("invalid peer status")
	// ErrMessageTooLarge is returned for frames above MaxMsgSize.
	ErrMessageTooLarge = errors.New("message too large")
)
