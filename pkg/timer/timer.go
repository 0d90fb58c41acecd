// Package timer provides the timer service driving the capture window and
// the arming poll cadence.
package timer

import "time"

// Handle controls an armed timer.
type Handle interface {
	// Stop cancels the timer, it reports false if the timer already fired.
	Stop() bool
}

// Service arms single-shot timers and delays the caller.
type Service interface {
	// ArmOnce calls onExpire once after d, from a context other than the
	// caller's flow.
	ArmOnce(d time.Duration, onExpire func()) Handle
	// Delay blocks the caller for d.
	Delay(d time.Duration)
}

// System is the Service backed by the Go runtime.
type System struct{}

// ArmOnce implements Service.
func (System) ArmOnce(d time.Duration, onExpire func()) Handle {
	return time.AfterFunc(d, onExpire)
}

// Delay implements Service.
func (System) Delay(d time.Duration) {
	time.Sleep(d)
}
