// Package bus defines the shared peripheral bus used by the sensors and the
// storage device. A transaction addresses one peripheral, writes a command
// and reads back a fixed number of bytes.
package bus

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/impactlog/pkg/irq"
)

// Address selects a peripheral: a 7-bit I2C address or a SPI chip-select.
type Address byte

// Status is the completion status of a transaction.
type Status int

// Transaction statuses.
const (
	StatusOK Status = iota
	StatusAddressNACK
	StatusDataNACK
	StatusTimeout
)

// OK indicates the transaction completed.
func (s Status) OK() bool {
	return s == StatusOK
}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusAddressNACK:
		return "ADDRESS_NACK"
	case StatusDataNACK:
		return "DATA_NACK"
	case StatusTimeout:
		return "TIMEOUT"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Transport performs one blocking transaction.
// The returned slice always has exactly n bytes.
type Transport interface {
	Transact(addr Address, w []byte, n int) ([]byte, Status)
}

// TransactFunc is the func form of Transport.
type TransactFunc func(addr Address, w []byte, n int) ([]byte, Status)

// Transact implements Transport.
func (f TransactFunc) Transact(addr Address, w []byte, n int) ([]byte, Status) {
	return f(addr, w, n)
}

// Controller starts transactions and reports completion from interrupt
// context through the done callback.
type Controller interface {
	Start(addr Address, w []byte, n int, done func(r []byte, st Status))
}

// Blocking turns an interrupt-driven Controller into a Transport by
// waiting on a completion flag. A completion arriving after its
// transaction timed out is dropped.
type Blocking struct {
	Controller Controller
	// PollLimit bounds the completion wait, <= 0 waits forever.
	PollLimit int

	lock   sync.Mutex
	gen    uint64
	done   irq.Flag
	result []byte
	status Status
}

// NewBlocking creates a Blocking transport.
func NewBlocking(c Controller, pollLimit int) *Blocking {
	return &Blocking{Controller: c, PollLimit: pollLimit}
}

// Transact implements Transport.
func (b *Blocking) Transact(addr Address, w []byte, n int) ([]byte, Status) {
	gen := b.next()
	b.Controller.Start(addr, w, n, func(r []byte, st Status) {
		b.complete(gen, r, st)
	})
	if err := b.done.Wait(b.PollLimit); err != nil {
		b.next()
		return make([]byte, n), StatusTimeout
	}
	b.lock.Lock()
	r, st := b.result, b.status
	b.result = nil
	b.lock.Unlock()
	return fit(r, n), st
}

// next starts a new generation, invalidating pending completions.
func (b *Blocking) next() uint64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.gen++
	b.result, b.status = nil, StatusOK
	b.done.Clear()
	return b.gen
}

func (b *Blocking) complete(gen uint64, r []byte, st Status) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if gen != b.gen {
		glog.V(2).Infof("bus: dropped late completion %s", st)
		return
	}
	b.result, b.status = r, st
	b.done.Set()
}

func fit(r []byte, n int) []byte {
	if len(r) == n {
		return r
	}
	out := make([]byte, n)
	copy(out, r)
	return out
}

// Device binds a Transport to one peripheral.
// A failed transaction is logged and its read data is zero-filled,
// the caller always continues.
type Device struct {
	Transport Transport
	Addr      Address
	Name      string

	failures int
}

// NewDevice creates a Device.
func NewDevice(t Transport, addr Address, name string) Device {
	return Device{Transport: t, Addr: addr, Name: name}
}

// Tx performs a transaction writing w and reading n bytes.
func (d *Device) Tx(w []byte, n int) ([]byte, Status) {
	r, st := d.Transport.Transact(d.Addr, w, n)
	if !st.OK() {
		d.failures++
		var cmd byte
		if len(w) > 0 {
			cmd = w[0]
		}
		glog.Warningf("%s: transaction 0x%02x failed: %s", d.Name, cmd, st)
		return make([]byte, n), st
	}
	if glog.V(4) {
		glog.Infof("%s: W % x R % x", d.Name, w, r)
	}
	return fit(r, n), st
}

// Write performs a write-only transaction.
func (d *Device) Write(w ...byte) Status {
	_, st := d.Tx(w, 0)
	return st
}

// Read writes w and returns n bytes read back.
func (d *Device) Read(w []byte, n int) []byte {
	r, _ := d.Tx(w, n)
	return r
}

// Failures returns the number of failed transactions so far.
func (d *Device) Failures() int {
	return d.failures
}
