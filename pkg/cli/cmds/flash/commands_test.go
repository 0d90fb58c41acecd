package flash

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/impactlog/pkg/flash"
	"github.com/robotalks/impactlog/pkg/impact"
)

func TestFormatDump(t *testing.T) {
	data := make([]byte, 20)
	for n := range data {
		data[n] = byte(n)
	}
	require.Equal(t,
		"00001000: 00 01 02 03 04 05 06 07 08 09 0a 0b 0c 0d 0e 0f\n"+
			"00001010: 10 11 12 13",
		FormatDump(0x1000, data))
	require.Empty(t, FormatDump(0, nil))
}

func TestFormatStatus(t *testing.T) {
	require.Equal(t, "0x00 READY", FormatStatus(0))
	require.Equal(t, "0x03 BUSY,WEL", FormatStatus(flash.StatusBusy|flash.StatusWriteEnable))
	require.Equal(t, "0x02 WEL", FormatStatus(flash.StatusWriteEnable))
}

func TestFormatSlot(t *testing.T) {
	require.Equal(t, "ID=4 empty", FormatSlot(4, bytes.Repeat([]byte{0xff}, impact.RecordSize)))
	s := impact.Sample{
		HighG: impact.Axes{1, 2, 3},
		Time:  impact.Timestamp{Year: 24, Month: 5, Date: 17, Hour: 13, Minute: 4},
	}
	require.Equal(t,
		"ID=5 high-g=[100 200 300]mg low-g=[0 0 0]mg gyro=[0 0 0]mrad/s time=2024-05-17 13:04:00.00",
		FormatSlot(5, s.Encode()))
	require.Contains(t, FormatSlot(6, []byte{1, 2}), "ID=6 ")
}
