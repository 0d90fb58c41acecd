package flash

import "fmt"

// Geometry of the MT25QL256.
const (
	// SegmentSize is the span addressable with 3 address bytes.
	SegmentSize = 1 << 24
	// Capacity is the total device size.
	Capacity = 2 * SegmentSize
	// PageSize is the page-program page.
	PageSize = 256
	// SubsectorSize is the smallest erasable region.
	SubsectorSize = 4096
	// ChunkSize is the maximum number of bytes in one page-program.
	ChunkSize = 32
	// SlotSize is the space reserved for each record.
	SlotSize = 32
)

// Segment is one 16 MiB half of the device.
type Segment byte

// Segments.
const (
	SegmentLow  Segment = 0
	SegmentHigh Segment = 1
)

// Start returns the first logical address of the segment.
func (s Segment) Start() uint32 {
	return uint32(s) * SegmentSize
}

// End returns the last logical address of the segment.
func (s Segment) End() uint32 {
	return s.Start() + SegmentSize - 1
}

// Contains reports whether addr is within the segment.
func (s Segment) Contains(addr uint32) bool {
	return addr >= s.Start() && addr <= s.End()
}

func (s Segment) String() string {
	switch s {
	case SegmentLow:
		return "LOW"
	case SegmentHigh:
		return "HIGH"
	}
	return fmt.Sprintf("Segment(%d)", byte(s))
}

// SegmentOf returns the segment containing addr.
func SegmentOf(addr uint32) (Segment, bool) {
	if addr >= Capacity {
		return 0, false
	}
	return Segment(addr / SegmentSize), true
}

// ParseSegment parses "low" or "high".
func ParseSegment(s string) (Segment, error) {
	switch s {
	case "low", "LOW", "":
		return SegmentLow, nil
	case "high", "HIGH":
		return SegmentHigh, nil
	}
	return 0, fmt.Errorf("invalid segment %q", s)
}

// DeviceAddress is the 3-byte on-wire address, most significant byte first.
type DeviceAddress [3]byte

// ToDevice encodes the low 24 bits of a logical address.
// The segment bits are discarded, they are carried by the selected segment.
func ToDevice(addr uint32) DeviceAddress {
	return DeviceAddress{byte(addr >> 16), byte(addr >> 8), byte(addr)}
}

// Offset returns the address within its segment.
func (d DeviceAddress) Offset() uint32 {
	return uint32(d[0])<<16 | uint32(d[1])<<8 | uint32(d[2])
}

// In returns the logical address of d within seg.
func (d DeviceAddress) In(seg Segment) uint32 {
	return seg.Start() + d.Offset()
}

// Layout places fixed-size record slots in one segment.
type Layout struct {
	Segment Segment
	// Base is the logical address of slot 0.
	Base uint32
	// Slot is the space reserved per record.
	Slot uint32
}

// NewLayout creates a Layout starting offset bytes into seg.
func NewLayout(seg Segment, offset uint32) Layout {
	return Layout{Segment: seg, Base: seg.Start() + offset, Slot: SlotSize}
}

// Validate checks slots are aligned and never straddle a subsector.
func (l Layout) Validate() error {
	if l.Slot == 0 || l.Slot > SubsectorSize || SubsectorSize%l.Slot != 0 {
		return fmt.Errorf("invalid slot size %d", l.Slot)
	}
	if l.Base%l.Slot != 0 {
		return fmt.Errorf("base 0x%08x not aligned to slot size %d", l.Base, l.Slot)
	}
	if !l.Segment.Contains(l.Base) {
		return &SegmentError{Addr: l.Base, Selected: l.Segment}
	}
	return nil
}

// Address returns the logical address of slot index.
func (l Layout) Address(index int) uint32 {
	return l.Base + uint32(index)*l.Slot
}

// Slots returns how many slots fit between Base and the segment end.
func (l Layout) Slots() int {
	if l.Slot == 0 || !l.Segment.Contains(l.Base) {
		return 0
	}
	return int((l.Segment.End() - l.Base + 1) / l.Slot)
}

// Cursor is the forward-only write position of a Layout.
type Cursor struct {
	layout Layout
	index  int
}

// NewCursor creates a Cursor at slot 0.
func NewCursor(l Layout) *Cursor {
	return &Cursor{layout: l}
}

// Index returns the current slot.
func (c *Cursor) Index() int {
	return c.index
}

// Address returns the current slot address.
func (c *Cursor) Address() uint32 {
	return c.layout.Address(c.index)
}

// Remaining returns the number of slots left in the segment.
func (c *Cursor) Remaining() int {
	return c.layout.Slots() - c.index
}

// EntersSubsector reports whether the current slot is the first one
// written in its subsector.
func (c *Cursor) EntersSubsector() bool {
	return c.index == 0 || c.Address()%SubsectorSize == 0
}

// Advance moves to the next slot.
func (c *Cursor) Advance() error {
	if c.Remaining() <= 0 {
		return ErrSegmentFull
	}
	c.index++
	return nil
}
