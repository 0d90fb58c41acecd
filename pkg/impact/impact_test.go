package impact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testSample = Sample{
	HighG: Axes{350, -2, 7},
	LowG:  Axes{1000, -500, 32767},
	Gyro:  Axes{-32768, 0, 1},
	Time: Timestamp{
		Year: 24, Month: 5, Date: 17, Weekday: 5,
		Hour: 13, Minute: 4, Second: 59, Hundredth: 99,
	},
}

func TestRecordLayout(t *testing.T) {
	b := testSample.Encode()
	require.Len(t, b, RecordSize)
	require.Equal(t, []byte{0x5e, 0x01, 0xfe, 0xff, 0x07, 0x00}, b[0:6])
	require.Equal(t, []byte{0xe8, 0x03, 0x0c, 0xfe, 0xff, 0x7f}, b[6:12])
	require.Equal(t, []byte{0x00, 0x80, 0x00, 0x00, 0x01, 0x00}, b[12:18])
	require.Equal(t, []byte{24, 5, 17, 5, 13, 4, 59, 99}, b[18:26])
}

func TestRecordRoundTrip(t *testing.T) {
	s, err := Decode(testSample.Encode())
	require.NoError(t, err)
	require.Equal(t, testSample, s)
	require.Equal(t, Fields(0), s.Diff(testSample))
}

func TestDecodeShort(t *testing.T) {
	_, err := Decode(make([]byte, RecordSize-1))
	require.Equal(t, ErrShortRecord, err)
	require.Equal(t, ErrShortRecord, testSample.MarshalTo(make([]byte, 3)))
}

func TestDiff(t *testing.T) {
	o := testSample
	o.Gyro[2]++
	o.Time.Hundredth = 0
	require.Equal(t, FieldGyro|FieldTime, testSample.Diff(o))
	require.Equal(t, "gyro,time", (FieldGyro | FieldTime).String())
	erased, err := Decode([]byte{
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	})
	require.NoError(t, err)
	require.Equal(t, FieldHighG|FieldLowG|FieldGyro|FieldTime, testSample.Diff(erased))
}

func TestAxesThreshold(t *testing.T) {
	require.True(t, Axes{0, -300, 0}.AnyAtLeast(HighGMilliGPerLSB, 30000))
	require.False(t, Axes{299, -299, 0}.AnyAtLeast(HighGMilliGPerLSB, 30000))
	require.True(t, Axes{350, 0, 0}.AnyAtLeast(HighGMilliGPerLSB, 30000))
}

func TestBufferCapacity(t *testing.T) {
	b := NewBuffer(100)
	accepted := 0
	for i := 0; i < 250; i++ {
		s := testSample
		s.HighG[0] = int16(i)
		if b.Append(s) {
			accepted++
		}
	}
	require.Equal(t, 100, accepted)
	require.Equal(t, 100, b.Len())
	require.True(t, b.Full())
	require.Equal(t, int16(0), b.At(0).HighG[0])
	require.Equal(t, int16(99), b.At(99).HighG[0])
	require.Panics(t, func() { b.At(100) })

	b.Clear()
	require.Equal(t, 0, b.Len())
	require.Equal(t, 100, b.Cap())
	require.Empty(t, b.Samples())
}

func TestTimestampTime(t *testing.T) {
	ts := testSample.Time
	require.Equal(t, "2024-05-17 13:04:59.99", ts.String())
	require.Equal(t, "2024-05-17T13:04:59.99Z", ts.Time().Format(time.RFC3339Nano))
}
