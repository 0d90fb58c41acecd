// Package sim provides a simulated bench for the impact logger: a virtual
// clock, a bus with per-transaction latency and fault injection, and
// models of every peripheral.
package sim

import (
	"sort"
	"sync"
	"time"

	"github.com/robotalks/impactlog/pkg/timer"
)

// Clock is a virtual clock. Time only moves through Advance, armed
// timers fire synchronously when their deadline is reached.
type Clock struct {
	lock   sync.Mutex
	now    time.Duration
	timers []*clockTimer
}

type clockTimer struct {
	clock *Clock
	at    time.Duration
	fn    func()
}

// Now returns the time elapsed since the bench started.
func (c *Clock) Now() time.Duration {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

// Advance moves time forward by d, firing due timers in deadline order.
func (c *Clock) Advance(d time.Duration) {
	c.lock.Lock()
	target := c.now + d
	for len(c.timers) > 0 && c.timers[0].at <= target {
		t := c.timers[0]
		c.timers = c.timers[1:]
		c.now = t.at
		c.lock.Unlock()
		t.fn()
		c.lock.Lock()
	}
	c.now = target
	c.lock.Unlock()
}

// ArmOnce implements timer.Service.
func (c *Clock) ArmOnce(d time.Duration, onExpire func()) timer.Handle {
	c.lock.Lock()
	defer c.lock.Unlock()
	t := &clockTimer{clock: c, at: c.now + d, fn: onExpire}
	c.timers = append(c.timers, t)
	sort.SliceStable(c.timers, func(i, j int) bool { return c.timers[i].at < c.timers[j].at })
	return t
}

// Delay implements timer.Service.
func (c *Clock) Delay(d time.Duration) {
	c.Advance(d)
}

// Stop implements timer.Handle.
func (t *clockTimer) Stop() bool {
	t.clock.lock.Lock()
	defer t.clock.lock.Unlock()
	for n, armed := range t.clock.timers {
		if armed == t {
			t.clock.timers = append(t.clock.timers[:n], t.clock.timers[n+1:]...)
			return true
		}
	}
	return false
}
