package flash

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy indicates an erase was issued while a previous operation
	// was still in progress.
	ErrBusy = errors.New("device busy")
	// ErrSegmentFull indicates the write cursor reached the end of its
	// segment.
	ErrSegmentFull = errors.New("segment full")
	// ErrNotReady indicates the ready poll gave up.
	ErrNotReady = errors.New("device not ready")
)

// SegmentError indicates an address outside the selected segment.
type SegmentError struct {
	Addr     uint32
	Selected Segment
}

// Error implements error.
func (e *SegmentError) Error() string {
	return fmt.Sprintf("address 0x%08x outside selected segment %s", e.Addr, e.Selected)
}
