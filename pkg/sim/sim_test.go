package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/impactlog/pkg/board"
	"github.com/robotalks/impactlog/pkg/flash"
	"github.com/robotalks/impactlog/pkg/impact"
	"github.com/robotalks/impactlog/pkg/l0/bus"
	"github.com/robotalks/impactlog/pkg/sensor"
)

func TestClockFiresTimersInOrder(t *testing.T) {
	var c Clock
	var fired []string
	c.ArmOnce(3*time.Millisecond, func() { fired = append(fired, "b") })
	c.ArmOnce(time.Millisecond, func() { fired = append(fired, "a") })
	stopped := c.ArmOnce(2*time.Millisecond, func() { fired = append(fired, "x") })
	require.True(t, stopped.Stop())
	require.False(t, stopped.Stop())

	c.Advance(2 * time.Millisecond)
	require.Equal(t, []string{"a"}, fired)
	c.Delay(time.Millisecond)
	require.Equal(t, []string{"a", "b"}, fired)
	require.Equal(t, 3*time.Millisecond, c.Now())
}

func TestBusLatencyAndFaults(t *testing.T) {
	b := NewBench(DefaultLatencies)
	_, st := b.Bus.Transact(0x11, []byte{0}, 1)
	require.Equal(t, bus.StatusAddressNACK, st)

	b.Bus.Fault = FailWrites(board.HighGCS, bus.StatusDataNACK, func(w []byte) bool { return true })
	r, st := b.Bus.Transact(board.HighGCS, []byte{0x01}, 3)
	require.Equal(t, bus.StatusDataNACK, st)
	require.Equal(t, []byte{0, 0, 0}, r)
	require.Equal(t, 500*time.Microsecond, b.Clock.Now())
	require.Equal(t, 2, b.Bus.Transactions())
}

func TestBenchSelfTest(t *testing.T) {
	b := NewBench(DefaultLatencies)
	brd := b.Board(board.Options{Layout: flash.NewLayout(flash.SegmentLow, 0)})
	devs := brd.Devices()
	require.NoError(t, sensor.SelfTest(devs.Drivers(true)...))
	for _, d := range devs.Drivers(true) {
		require.NoError(t, d.Configure())
	}
	require.Equal(t, byte(0x07), b.Proximity.Register(0x04)[1])
	require.Equal(t, byte(0x06), b.Motion.Register(0x20, 0x14))
	require.Equal(t, byte(0x05), b.HighG.Register(0x22))

	b.Flash.ID = [3]byte{0x20, 0xba, 0x18}
	err := sensor.SelfTest(devs.Drivers(false)...)
	require.Error(t, err)
	var idErr *sensor.IdentityError
	require.ErrorAs(t, err, &idErr)
	require.Equal(t, "flash", idErr.Name)
}

func TestBenchReadings(t *testing.T) {
	b := NewBench(DefaultLatencies)
	brd := b.Board(board.Options{Layout: flash.NewLayout(flash.SegmentLow, 0)})
	b.Impact(10*time.Millisecond, 350)
	require.Equal(t, impact.Axes{0, 0, 10}, brd.HighG.ReadAccel())
	b.Clock.Advance(9 * time.Millisecond)
	a := brd.HighG.ReadAccel()
	require.Equal(t, int16(350), a.X())
	require.Equal(t, int16(-175), a.Y())

	b.Approach(time.Second, 12)
	require.Equal(t, uint16(0), brd.Proximity.ReadProximity())
	b.Clock.Advance(time.Second)
	require.Equal(t, uint16(12), brd.Proximity.ReadProximity())

	accel, gyro := brd.Motion.ReadMotion()
	require.Equal(t, int16(1024), accel.Z())
	require.Equal(t, -accel.X(), accel.Y())
	require.Equal(t, 3*accel.X(), gyro.X())
}

func TestRTCRunsWithClock(t *testing.T) {
	b := NewBench(DefaultLatencies)
	brd := b.Board(board.Options{
		Layout:       flash.NewLayout(flash.SegmentLow, 0),
		ClockSetTime: time.Date(2023, time.December, 31, 23, 59, 59, 980*int(time.Millisecond), time.UTC),
	})
	require.Equal(t, []byte{0x5a}, brd.Clock.Identify())
	require.NoError(t, brd.Clock.Configure())
	b.Clock.Advance(19 * time.Millisecond)
	ts := brd.Clock.ReadTime()
	// the read itself takes 1ms
	require.Equal(t, "2024-01-01 00:00:00.00", ts.String())
	require.Equal(t, uint8(2), ts.Weekday)
}

func TestFlashModel(t *testing.T) {
	f := NewFlash()
	f.BusyPolls = 1
	tx := func(w ...byte) []byte {
		r, st := f.Transact(w, 4)
		require.Equal(t, bus.StatusOK, st)
		return r
	}

	tx(flash.OpPageProgram, 0, 0, 0, 0x00)
	require.Equal(t, []byte{0xff}, f.Peek(0, 1), "program without WREN")

	tx(flash.OpWriteEnable)
	require.Equal(t, flash.StatusWriteEnable, tx(flash.OpReadStatus)[0])
	tx(flash.OpPageProgram, 0, 0, 0xfe, 0x12, 0x34, 0x56)
	require.Equal(t, flash.StatusBusy, tx(flash.OpReadStatus)[0])
	require.Zero(t, tx(flash.OpReadStatus)[0])
	require.Equal(t, []byte{0x12, 0x34}, f.Peek(0xfe, 2))
	require.Equal(t, []byte{0x56, 0xff}, f.Peek(0, 2), "wraps inside the page")

	tx(flash.OpWriteEnable)
	tx(flash.OpWriteExtAddress, 1)
	require.Equal(t, byte(1), tx(flash.OpReadExtAddress)[0])
	tx(flash.OpWriteEnable)
	tx(flash.OpPageProgram, 0, 0, 0, 0xa0)
	require.Equal(t, []byte{0xa0}, f.Peek(flash.SegmentSize, 1))
	tx(flash.OpReadStatus)

	tx(flash.OpResetEnable)
	tx(flash.OpResetMemory)
	require.Zero(t, tx(flash.OpReadExtAddress)[0])

	tx(flash.OpWriteEnable)
	tx(flash.OpSubsectorErase, 0, 0, 0x10)
	require.Equal(t, []byte{0xff, 0xff}, f.Peek(0, 2))
	programs, erases := f.Counters()
	require.Equal(t, 2, programs)
	require.Equal(t, 1, erases)
}
