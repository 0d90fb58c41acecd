package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrNoReply indicates no reply received from peer.
	// This happens when a reply is received for a latter request, and all
	// previous requests fail with this error.
	ErrNoReply = errors.New("no reply")
	// ErrShortFrame indicates a payload too short for its code.
	ErrShortFrame = errors.New("short frame")
)

// SizeError indicates a transaction does not fit in a frame.
type SizeError struct {
	Write int
	Read  int
}

// Error implements error.
func (e *SizeError) Error() string {
	return fmt.Sprintf("transaction too large: write %d, read %d", e.Write, e.Read)
}
