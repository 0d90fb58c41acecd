// Package impact defines the impact sample, its on-flash record image and
// the fixed-capacity capture buffer.
package impact

import (
	"fmt"
	"strings"
	"time"
)

// HighGMilliGPerLSB is the high-g accelerometer scale.
const HighGMilliGPerLSB = 100

// Axes holds one reading per axis (X, Y, Z).
type Axes [3]int16

// X returns the X axis.
func (a Axes) X() int16 { return a[0] }

// Y returns the Y axis.
func (a Axes) Y() int16 { return a[1] }

// Z returns the Z axis.
func (a Axes) Z() int16 { return a[2] }

// Scaled multiplies each axis by k, widening to int32.
func (a Axes) Scaled(k int32) [3]int32 {
	return [3]int32{int32(a[0]) * k, int32(a[1]) * k, int32(a[2]) * k}
}

// AnyAtLeast reports whether the magnitude of any axis, scaled by k,
// reaches threshold.
func (a Axes) AnyAtLeast(k, threshold int32) bool {
	for _, v := range a.Scaled(k) {
		if v < 0 {
			v = -v
		}
		if v >= threshold {
			return true
		}
	}
	return false
}

func (a Axes) String() string {
	return fmt.Sprintf("[%d %d %d]", a[0], a[1], a[2])
}

// Timestamp is the calendar time read from the real-time clock.
// Year is the offset from 2000.
type Timestamp struct {
	Year      uint8
	Month     uint8
	Date      uint8
	Weekday   uint8
	Hour      uint8
	Minute    uint8
	Second    uint8
	Hundredth uint8
}

func (t Timestamp) String() string {
	return fmt.Sprintf("20%02d-%02d-%02d %02d:%02d:%02d.%02d",
		t.Year, t.Month, t.Date, t.Hour, t.Minute, t.Second, t.Hundredth)
}

// Time converts t to a UTC time.Time.
func (t Timestamp) Time() time.Time {
	return time.Date(2000+int(t.Year), time.Month(t.Month), int(t.Date),
		int(t.Hour), int(t.Minute), int(t.Second), int(t.Hundredth)*int(10*time.Millisecond), time.UTC)
}

// Sample is one acquisition across all sensors.
type Sample struct {
	// HighG is in raw sensor counts, see HighGMilliGPerLSB.
	HighG Axes
	// LowG is in milli-g.
	LowG Axes
	// Gyro is in milli-radians per second.
	Gyro Axes
	Time Timestamp
}

// Fields is a set of sample field groups.
type Fields uint8

// Sample field groups.
const (
	FieldHighG Fields = 1 << iota
	FieldLowG
	FieldGyro
	FieldTime
)

func (f Fields) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, n := range []struct {
		f    Fields
		name string
	}{
		{FieldHighG, "high-g"},
		{FieldLowG, "low-g"},
		{FieldGyro, "gyro"},
		{FieldTime, "time"},
	} {
		if f&n.f != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ",")
}

// Diff returns the field groups in which s and o differ.
func (s Sample) Diff(o Sample) (f Fields) {
	if s.HighG != o.HighG {
		f |= FieldHighG
	}
	if s.LowG != o.LowG {
		f |= FieldLowG
	}
	if s.Gyro != o.Gyro {
		f |= FieldGyro
	}
	if s.Time != o.Time {
		f |= FieldTime
	}
	return
}
