// Package flash implements the storage protocol of the MT25QL256 serial
// NOR flash: a 32 MiB device addressed as two 16 MiB segments through 3
// address bytes and the extended address register.
package flash

import (
	"bytes"

	"github.com/golang/glog"

	"github.com/robotalks/impactlog/pkg/irq"
	"github.com/robotalks/impactlog/pkg/l0/bus"
)

// Command opcodes.
const (
	OpReadID          byte = 0x9e
	OpRead            byte = 0x03
	OpWriteEnable     byte = 0x06
	OpWriteDisable    byte = 0x04
	OpReadStatus      byte = 0x05
	OpPageProgram     byte = 0x02
	OpSubsectorErase  byte = 0x20
	OpBulkErase       byte = 0xc7
	OpResetEnable     byte = 0x66
	OpResetMemory     byte = 0x99
	OpWriteExtAddress byte = 0xc5
	OpReadExtAddress  byte = 0xc8
)

// Status register bits.
const (
	StatusBusy        byte = 0x01
	StatusWriteEnable byte = 0x02
)

// Identity is the JEDEC id: manufacturer, memory type, capacity.
var Identity = []byte{0x20, 0xba, 0x19}

const (
	// DefaultPollLimit bounds each ready poll.
	DefaultPollLimit = 100000
	readChunk        = 128
)

// Device talks to the flash over a bus.
type Device struct {
	// PollLimit bounds ready polls, <= 0 polls forever.
	PollLimit int

	dev     bus.Device
	layout  Layout
	segment Segment
	pending bool
}

// New creates a Device at addr with records laid out by layout.
func New(t bus.Transport, addr bus.Address, layout Layout) *Device {
	return &Device{
		PollLimit: DefaultPollLimit,
		dev:       bus.NewDevice(t, addr, "flash"),
		layout:    layout,
	}
}

// Name implements sensor.Driver.
func (d *Device) Name() string {
	return "flash"
}

// Identify reads the JEDEC id.
func (d *Device) Identify() []byte {
	return d.dev.Read([]byte{OpReadID}, len(Identity))
}

// Expected returns the id the part must report.
func (d *Device) Expected() []byte {
	return Identity
}

// Configure resets the device and selects the segment of the layout.
func (d *Device) Configure() error {
	d.Reset()
	return d.SelectSegment(d.layout.Segment)
}

// Layout returns the record layout.
func (d *Device) Layout() Layout {
	return d.layout
}

// Segment returns the selected segment.
func (d *Device) Segment() Segment {
	return d.segment
}

// Failures returns the number of failed bus transactions.
func (d *Device) Failures() int {
	return d.dev.Failures()
}

// Status reads the status register.
func (d *Device) Status() byte {
	return d.dev.Read([]byte{OpReadStatus}, 1)[0]
}

// Busy reports whether a program or erase is in progress.
func (d *Device) Busy() bool {
	return d.Status()&StatusBusy != 0
}

// PollReady waits until the device is not busy.
func (d *Device) PollReady() error {
	if err := irq.Poll(d.PollLimit, func() bool { return !d.Busy() }); err != nil {
		glog.Errorf("flash: not ready after %d polls", d.PollLimit)
		return ErrNotReady
	}
	d.pending = false
	return nil
}

// SelectSegment writes the extended address register.
func (d *Device) SelectSegment(seg Segment) error {
	if err := d.PollReady(); err != nil {
		return err
	}
	d.dev.Write(OpWriteEnable)
	d.dev.Write(OpWriteExtAddress, byte(seg))
	d.dev.Write(OpWriteDisable)
	d.segment = seg
	glog.V(2).Infof("flash: segment %s selected", seg)
	return nil
}

// ExtendedAddress reads back the extended address register.
func (d *Device) ExtendedAddress() byte {
	return d.dev.Read([]byte{OpReadExtAddress}, 1)[0]
}

func (d *Device) check(addr uint32, n int) error {
	if !d.segment.Contains(addr) || (n > 0 && !d.segment.Contains(addr+uint32(n)-1)) {
		return &SegmentError{Addr: addr, Selected: d.segment}
	}
	return nil
}

func command(op byte, addr uint32, data []byte) []byte {
	a := ToDevice(addr)
	cmd := make([]byte, 0, 4+len(data))
	cmd = append(cmd, op, a[0], a[1], a[2])
	return append(cmd, data...)
}

// EraseRegion erases the subsector containing addr. It fails with ErrBusy
// if an earlier operation is still in progress. The erase completes
// asynchronously, PollReady waits for it.
func (d *Device) EraseRegion(addr uint32) error {
	if err := d.check(addr, 1); err != nil {
		return err
	}
	if d.Busy() {
		return ErrBusy
	}
	addr -= addr % SubsectorSize
	d.dev.Write(OpWriteEnable)
	d.dev.Tx(command(OpSubsectorErase, addr, nil), 0)
	d.pending = true
	glog.V(2).Infof("flash: erase subsector 0x%08x", addr)
	return nil
}

// BulkErase erases the whole device. PollReady waits for completion.
func (d *Device) BulkErase() {
	d.dev.Write(OpWriteEnable)
	d.dev.Write(OpBulkErase)
	d.pending = true
	glog.Info("flash: bulk erase started")
}

// Reset issues reset-enable followed by reset-memory.
func (d *Device) Reset() {
	d.dev.Write(OpResetEnable)
	d.dev.Write(OpResetMemory)
	d.segment, d.pending = SegmentLow, false
}

// Program writes data at addr in chunks of at most ChunkSize bytes that
// never cross a page. Each chunk is bracketed by write-enable and
// write-disable and polled to completion.
func (d *Device) Program(addr uint32, data []byte) error {
	if err := d.check(addr, len(data)); err != nil {
		return err
	}
	if d.pending {
		if err := d.PollReady(); err != nil {
			return err
		}
	}
	for len(data) > 0 {
		n := ChunkSize
		if room := PageSize - int(addr%PageSize); room < n {
			n = room
		}
		if len(data) < n {
			n = len(data)
		}
		d.dev.Write(OpWriteEnable)
		d.dev.Tx(command(OpPageProgram, addr, data[:n]), 0)
		d.dev.Write(OpWriteDisable)
		if err := d.PollReady(); err != nil {
			return err
		}
		addr += uint32(n)
		data = data[n:]
	}
	return nil
}

// ReadAt reads n bytes starting at addr.
func (d *Device) ReadAt(addr uint32, n int) ([]byte, error) {
	if err := d.check(addr, n); err != nil {
		return nil, err
	}
	if d.pending {
		if err := d.PollReady(); err != nil {
			return nil, err
		}
	}
	out := make([]byte, 0, n)
	for len(out) < n {
		size := n - len(out)
		if size > readChunk {
			size = readChunk
		}
		out = append(out, d.dev.Read(command(OpRead, addr, nil), size)...)
		addr += uint32(size)
	}
	return out, nil
}

// WriteRecord programs rec into slot index of the layout.
func (d *Device) WriteRecord(index int, rec []byte) error {
	return d.Program(d.layout.Address(index), rec)
}

// ReadRecord reads n bytes from slot index of the layout.
func (d *Device) ReadRecord(index, n int) ([]byte, error) {
	return d.ReadAt(d.layout.Address(index), n)
}

// Erased reports whether b reads as erased flash.
func Erased(b []byte) bool {
	return len(b) > 0 && len(bytes.Trim(b, "\xff")) == 0
}
