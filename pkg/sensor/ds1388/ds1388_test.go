package ds1388

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/impactlog/pkg/impact"
	"github.com/robotalks/impactlog/pkg/l0/bus"
)

func TestBCD(t *testing.T) {
	for v := uint8(0); v < 100; v++ {
		require.Equal(t, v, FromBCD(ToBCD(v)))
	}
	require.Equal(t, uint8(0x59), ToBCD(59))
	require.Equal(t, uint8(23), FromBCD(0x23))
}

func TestDecodeHour(t *testing.T) {
	testCases := []struct {
		reg  byte
		hour uint8
	}{
		{0x23, 23},
		{0x00, 0},
		{Hour12 | 0x12, 0},
		{Hour12 | HourPM | 0x12, 12},
		{Hour12 | HourPM | 0x01, 13},
		{Hour12 | 0x11, 11},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.hour, decodeHour(tc.reg), "0x%02x", tc.reg)
	}
}

type regFile [16]byte

func (r *regFile) Transact(addr bus.Address, w []byte, n int) ([]byte, bus.Status) {
	if addr != Address {
		return make([]byte, n), bus.StatusAddressNACK
	}
	copy(r[w[0]:], w[1:])
	out := make([]byte, n)
	copy(out, r[w[0]:])
	return out, bus.StatusOK
}

func TestConfigureAndRead(t *testing.T) {
	regs := &regFile{}
	d := New(regs, Address)
	d.SetTime = time.Date(2024, time.May, 17, 13, 4, 59, 990*int(time.Millisecond), time.UTC)
	require.Equal(t, Identity, d.Identify())
	require.Equal(t, byte(0), regs[RegWDHundredths])
	require.NoError(t, d.Configure())
	require.Equal(t, impact.Timestamp{
		Year: 24, Month: 5, Date: 17, Weekday: 6,
		Hour: 13, Minute: 4, Second: 59, Hundredth: 99,
	}, d.ReadTime())
}

func TestReadTimeNACK(t *testing.T) {
	d := New(&regFile{}, 0x50)
	require.Equal(t, impact.Timestamp{}, d.ReadTime())
	require.Equal(t, 1, d.Failures())
}
