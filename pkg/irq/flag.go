// Package irq provides the completion cells shared between interrupt
// context (bus and timer callbacks) and the cooperative main flow.
package irq

import (
	"errors"
	"sync/atomic"
)

// ErrPollLimit indicates a bounded wait gave up before its condition held.
var ErrPollLimit = errors.New("poll limit exceeded")

// Flag is a single-writer/single-reader completion cell.
// The writer only calls Set, the reader calls IsSet, Take and Clear.
// Everything the writer stored before Set is visible to the reader
// once it observes the flag.
type Flag struct {
	v atomic.Bool
}

// Set raises the flag.
func (f *Flag) Set() {
	f.v.Store(true)
}

// IsSet reports whether the flag is raised.
func (f *Flag) IsSet() bool {
	return f.v.Load()
}

// Clear lowers the flag.
func (f *Flag) Clear() {
	f.v.Store(false)
}

// Take lowers the flag and reports whether it was raised.
func (f *Flag) Take() bool {
	return f.v.Swap(false)
}

// Wait polls until the flag is raised and consumes it.
func (f *Flag) Wait(limit int) error {
	return Poll(limit, f.Take)
}

// Poll evaluates cond until it returns true, at most limit times.
// A limit <= 0 polls forever.
func Poll(limit int, cond func() bool) error {
	for n := 0; limit <= 0 || n < limit; n++ {
		if cond() {
			return nil
		}
	}
	return ErrPollLimit
}
