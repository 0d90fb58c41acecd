// Package sensor defines the driver contracts of the peripherals on the
// capture bus.
package sensor

import (
	"bytes"
	"fmt"

	"github.com/robotalks/impactlog/pkg/impact"
)

// Driver is implemented by every peripheral.
type Driver interface {
	Name() string
	// Identify reads the identity bytes from the part.
	Identify() []byte
	// Expected returns the identity bytes the part must report.
	Expected() []byte
	// Configure writes the operating configuration.
	Configure() error
}

// HighG is the high-g accelerometer.
type HighG interface {
	Driver
	// ReadAccel returns raw counts, see impact.HighGMilliGPerLSB.
	ReadAccel() impact.Axes
}

// Motion is the low-g accelerometer and gyroscope.
type Motion interface {
	Driver
	// ReadMotion returns raw accelerometer and gyroscope counts.
	ReadMotion() (accel, gyro impact.Axes)
	// Convert turns raw counts into milli-g and milli-rad/s.
	Convert(accel, gyro impact.Axes) (impact.Axes, impact.Axes)
}

// Clock is the real-time clock.
type Clock interface {
	Driver
	ReadTime() impact.Timestamp
}

// Proximity is the proximity sensor.
type Proximity interface {
	Driver
	ReadProximity() uint16
}

// IdentityError reports a part answering with unexpected identity bytes.
type IdentityError struct {
	Name string
	Got  []byte
	Want []byte
}

// Error implements error.
func (e *IdentityError) Error() string {
	return fmt.Sprintf("%s: identity % x, expected % x", e.Name, e.Got, e.Want)
}

// SelfTest checks the identity of each driver, stopping at the first
// mismatch.
func SelfTest(drivers ...Driver) error {
	for _, d := range drivers {
		if got, want := d.Identify(), d.Expected(); !bytes.Equal(got, want) {
			return &IdentityError{Name: d.Name(), Got: got, Want: want}
		}
	}
	return nil
}
