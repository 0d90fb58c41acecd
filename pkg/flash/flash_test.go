package flash

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/impactlog/pkg/l0/bus"
)

type recorder struct {
	cmds     [][]byte
	busyFor  int
	readData []byte
}

func (r *recorder) Transact(addr bus.Address, w []byte, n int) ([]byte, bus.Status) {
	if w[0] == OpReadStatus {
		if r.busyFor > 0 {
			r.busyFor--
			return []byte{StatusBusy}, bus.StatusOK
		}
		return []byte{0}, bus.StatusOK
	}
	r.cmds = append(r.cmds, append([]byte(nil), w...))
	out := make([]byte, n)
	copy(out, r.readData)
	return out, bus.StatusOK
}

func (r *recorder) opcodes() []byte {
	ops := make([]byte, len(r.cmds))
	for n, c := range r.cmds {
		ops[n] = c[0]
	}
	return ops
}

func TestDeviceAddress(t *testing.T) {
	testCases := []struct {
		logical uint32
		dev     DeviceAddress
		seg     Segment
	}{
		{0x00000000, DeviceAddress{0, 0, 0}, SegmentLow},
		{0x00123456, DeviceAddress{0x12, 0x34, 0x56}, SegmentLow},
		{0x00ffffff, DeviceAddress{0xff, 0xff, 0xff}, SegmentLow},
		{0x01000000, DeviceAddress{0, 0, 0}, SegmentHigh},
		{0x01abcdef, DeviceAddress{0xab, 0xcd, 0xef}, SegmentHigh},
	}
	for _, tc := range testCases {
		d := ToDevice(tc.logical)
		require.Equal(t, tc.dev, d)
		seg, ok := SegmentOf(tc.logical)
		require.True(t, ok)
		require.Equal(t, tc.seg, seg)
		require.Equal(t, tc.logical, d.In(seg))
	}
	_, ok := SegmentOf(Capacity)
	require.False(t, ok)
}

func TestLayoutAndCursor(t *testing.T) {
	l := NewLayout(SegmentHigh, 0x40)
	require.NoError(t, l.Validate())
	require.Equal(t, uint32(0x01000040), l.Address(0))
	require.Equal(t, uint32(0x01000040+37*32), l.Address(37))
	require.Equal(t, (SegmentSize-0x40)/SlotSize, l.Slots())

	require.Error(t, Layout{Segment: SegmentLow, Base: 16, Slot: 32}.Validate())
	require.Error(t, Layout{Segment: SegmentLow, Base: 0, Slot: 26}.Validate())
	require.Error(t, Layout{Segment: SegmentLow, Base: SegmentSize, Slot: 32}.Validate())

	c := NewCursor(NewLayout(SegmentLow, 0))
	require.True(t, c.EntersSubsector())
	entered := 0
	for i := 0; i < 300; i++ {
		if c.EntersSubsector() {
			entered++
		}
		require.NoError(t, c.Advance())
	}
	require.Equal(t, 3, entered)
	require.Equal(t, uint32(300*32), c.Address())

	tail := NewCursor(NewLayout(SegmentLow, SegmentSize-64))
	require.Equal(t, 2, tail.Remaining())
	require.NoError(t, tail.Advance())
	require.NoError(t, tail.Advance())
	require.Equal(t, ErrSegmentFull, tail.Advance())
}

func TestProgramChunks(t *testing.T) {
	r := &recorder{}
	d := New(r, 27, NewLayout(SegmentLow, 0))
	data := make([]byte, 40)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, d.Program(0xf0, data))
	require.Equal(t, []byte{
		OpWriteEnable, OpPageProgram, OpWriteDisable,
		OpWriteEnable, OpPageProgram, OpWriteDisable,
	}, r.opcodes())
	first, second := r.cmds[1], r.cmds[4]
	require.Equal(t, []byte{OpPageProgram, 0, 0, 0xf0}, first[:4])
	require.Equal(t, data[:16], first[4:])
	require.Equal(t, []byte{OpPageProgram, 0, 0x01, 0x00}, second[:4])
	require.Equal(t, data[16:], second[4:])
}

func TestWriteRecordSingleChunk(t *testing.T) {
	r := &recorder{}
	d := New(r, 27, NewLayout(SegmentLow, 0))
	rec := make([]byte, 26)
	require.NoError(t, d.WriteRecord(3, rec))
	require.Len(t, r.cmds, 3)
	require.Equal(t, []byte{OpPageProgram, 0, 0, 96}, r.cmds[1][:4])
	require.Len(t, r.cmds[1], 4+26)
}

func TestEraseWhileBusy(t *testing.T) {
	r := &recorder{busyFor: 1}
	d := New(r, 27, NewLayout(SegmentLow, 0))
	require.Equal(t, ErrBusy, d.EraseRegion(0x1000))
	require.Empty(t, r.cmds)

	require.NoError(t, d.EraseRegion(0x1020))
	require.Equal(t, []byte{OpWriteEnable, OpSubsectorErase}, r.opcodes())
	require.Equal(t, []byte{OpSubsectorErase, 0, 0x10, 0}, r.cmds[1])
}

func TestSegmentSelection(t *testing.T) {
	r := &recorder{}
	d := New(r, 27, NewLayout(SegmentHigh, 0))
	err := d.Program(0x01000000, []byte{1})
	require.IsType(t, &SegmentError{}, err)

	require.NoError(t, d.Configure())
	require.Equal(t, SegmentHigh, d.Segment())
	require.Equal(t, []byte{
		OpResetEnable, OpResetMemory,
		OpWriteEnable, OpWriteExtAddress, OpWriteDisable,
	}, r.opcodes())
	require.Equal(t, []byte{OpWriteExtAddress, 1}, r.cmds[3])

	r.cmds = nil
	require.NoError(t, d.Program(0x01000020, []byte{1}))
	require.Equal(t, []byte{OpPageProgram, 0, 0, 0x20, 1}, r.cmds[1])
	_, err = d.ReadAt(0x00000020, 1)
	require.IsType(t, &SegmentError{}, err)
}

func TestPollReadyLimit(t *testing.T) {
	r := &recorder{busyFor: 10}
	d := New(r, 27, NewLayout(SegmentLow, 0))
	d.PollLimit = 5
	require.Equal(t, ErrNotReady, d.PollReady())
	d.PollLimit = 0
	require.NoError(t, d.PollReady())
}

func TestReadAtChunks(t *testing.T) {
	r := &recorder{readData: []byte{0xaa}}
	d := New(r, 27, NewLayout(SegmentLow, 0))
	b, err := d.ReadAt(0, 300)
	require.NoError(t, err)
	require.Len(t, b, 300)
	require.Len(t, r.cmds, 3)
	require.Equal(t, []byte{OpRead, 0, 0, 128}, r.cmds[1])
	require.Equal(t, []byte{OpRead, 0, 1, 0}, r.cmds[2])
	require.Equal(t, byte(0xaa), b[128])
}

func TestErased(t *testing.T) {
	require.True(t, Erased([]byte{0xff, 0xff}))
	require.False(t, Erased([]byte{0xff, 0x00}))
	require.False(t, Erased(nil))
}
