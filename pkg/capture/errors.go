package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrHalted matches every error returned after entering HALT_FAULT.
	ErrHalted = errors.New("halted")
	// ErrTerminal indicates Run was called on a machine that already ran.
	ErrTerminal = errors.New("machine already ran")
	// ErrWindowOpen indicates the capture loop gave up before the capture
	// window closed.
	ErrWindowOpen = errors.New("capture window did not close")
)

// FaultError is the cause of a halt and the state it happened in.
type FaultError struct {
	State State
	Err   error
}

// Error implements error.
func (e *FaultError) Error() string {
	return fmt.Sprintf("halted in %s: %v", e.State, e.Err)
}

// Unwrap returns the cause.
func (e *FaultError) Unwrap() error {
	return e.Err
}

// Is matches ErrHalted.
func (e *FaultError) Is(target error) bool {
	return target == ErrHalted
}
