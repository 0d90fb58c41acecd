package sim

import (
	"sync"
	"time"

	"github.com/robotalks/impactlog/pkg/l0/bus"
)

// Peripheral answers bus transactions.
type Peripheral interface {
	Transact(w []byte, n int) ([]byte, bus.Status)
}

// FaultFunc decides the outcome of a transaction before it reaches the
// peripheral. Any status other than OK drops the transaction.
type FaultFunc func(addr bus.Address, w []byte) bus.Status

type attached struct {
	p       Peripheral
	latency time.Duration
}

// Bus is a simulated shared bus. Each transaction advances the clock by
// the latency of the addressed peripheral.
type Bus struct {
	Clock *Clock
	Fault FaultFunc

	lock  sync.Mutex
	devs  map[bus.Address]attached
	count int
}

// NewBus creates a Bus on clock.
func NewBus(clock *Clock) *Bus {
	return &Bus{Clock: clock, devs: make(map[bus.Address]attached)}
}

// Attach connects p at addr.
func (b *Bus) Attach(addr bus.Address, p Peripheral, latency time.Duration) {
	b.lock.Lock()
	b.devs[addr] = attached{p: p, latency: latency}
	b.lock.Unlock()
}

// Transactions returns the number of transactions started.
func (b *Bus) Transactions() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.count
}

// Transact implements bus.Transport.
func (b *Bus) Transact(addr bus.Address, w []byte, n int) ([]byte, bus.Status) {
	b.lock.Lock()
	b.count++
	dev, ok := b.devs[addr]
	fault := b.Fault
	b.lock.Unlock()

	if !ok {
		return make([]byte, n), bus.StatusAddressNACK
	}
	b.Clock.Advance(dev.latency)
	if fault != nil {
		if st := fault(addr, w); !st.OK() {
			return make([]byte, n), st
		}
	}
	r, st := dev.p.Transact(w, n)
	out := make([]byte, n)
	copy(out, r)
	return out, st
}

// Start implements bus.Controller. Completion is signaled before Start
// returns, as a transfer-done interrupt would on a fast bus.
func (b *Bus) Start(addr bus.Address, w []byte, n int, done func([]byte, bus.Status)) {
	done(b.Transact(addr, w, n))
}

// FailWrites returns a FaultFunc answering status to every transaction to
// addr whose command matches.
func FailWrites(addr bus.Address, status bus.Status, match func(w []byte) bool) FaultFunc {
	return func(a bus.Address, w []byte) bus.Status {
		if a == addr && match(w) {
			return status
		}
		return bus.StatusOK
	}
}
