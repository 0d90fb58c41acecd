// Package ds1388 drives the DS1388 real-time clock over I2C.
package ds1388

import (
	"time"

	"github.com/robotalks/impactlog/pkg/impact"
	"github.com/robotalks/impactlog/pkg/l0/bus"
)

// Address is the I2C address of the clock.
const Address bus.Address = 0x68

// Registers.
const (
	RegHundredths   byte = 0x00
	RegSeconds      byte = 0x01
	RegMinutes      byte = 0x02
	RegHours        byte = 0x03
	RegDay          byte = 0x04
	RegDate         byte = 0x05
	RegMonth        byte = 0x06
	RegYear         byte = 0x07
	RegWDHundredths byte = 0x08
	RegControl      byte = 0x0c
)

// Hour register bits.
const (
	Hour12 byte = 0x40
	HourPM byte = 0x20
)

const scratch byte = 0x5a

// Identity is the scratch pattern read back from the watchdog register.
// The part has no id register.
var Identity = []byte{scratch}

// ToBCD encodes a decimal value 0-99.
func ToBCD(v uint8) uint8 {
	return v + 6*(v/10)
}

// FromBCD decodes a BCD value.
func FromBCD(v uint8) uint8 {
	return v - 6*(v>>4)
}

// Device is a DS1388.
type Device struct {
	// SetTime, when not zero, is written to the clock by Configure.
	SetTime time.Time

	dev bus.Device
}

// New creates a Device at addr.
func New(t bus.Transport, addr bus.Address) *Device {
	return &Device{dev: bus.NewDevice(t, addr, "ds1388")}
}

// Name implements sensor.Driver.
func (d *Device) Name() string { return "ds1388" }

// Expected implements sensor.Driver.
func (d *Device) Expected() []byte { return Identity }

// Identify implements sensor.Driver. It writes a pattern to the watchdog
// hundredths register, reads it back and clears it.
func (d *Device) Identify() []byte {
	d.dev.Write(RegWDHundredths, scratch)
	r := d.dev.Read([]byte{RegWDHundredths}, 1)
	d.dev.Write(RegWDHundredths, 0)
	return r
}

// Configure implements sensor.Driver: oscillator on, watchdog counter off,
// 24-hour clock set from SetTime.
func (d *Device) Configure() error {
	d.dev.Write(RegControl, 0)
	if d.SetTime.IsZero() {
		return nil
	}
	t := d.SetTime
	d.dev.Write(RegHundredths,
		ToBCD(uint8(t.Nanosecond()/int(10*time.Millisecond))),
		ToBCD(uint8(t.Second())),
		ToBCD(uint8(t.Minute())),
		ToBCD(uint8(t.Hour())),
		uint8(t.Weekday())+1,
		ToBCD(uint8(t.Day())),
		ToBCD(uint8(t.Month())),
		ToBCD(uint8(t.Year()%100)),
	)
	return nil
}

// ReadTime implements sensor.Clock. Hours are returned in 24-hour form.
func (d *Device) ReadTime() impact.Timestamp {
	r := d.dev.Read([]byte{RegHundredths}, 8)
	return impact.Timestamp{
		Hundredth: FromBCD(r[0]),
		Second:    FromBCD(r[1] & 0x7f),
		Minute:    FromBCD(r[2] & 0x7f),
		Hour:      decodeHour(r[3]),
		Weekday:   r[4] & 0x07,
		Date:      FromBCD(r[5] & 0x3f),
		Month:     FromBCD(r[6] & 0x1f),
		Year:      FromBCD(r[7]),
	}
}

func decodeHour(h byte) uint8 {
	if h&Hour12 == 0 {
		return FromBCD(h & 0x3f)
	}
	hour := FromBCD(h & 0x1f)
	switch {
	case h&HourPM != 0 && hour != 12:
		hour += 12
	case h&HourPM == 0 && hour == 12:
		hour = 0
	}
	return hour
}

// Failures returns the number of failed bus transactions.
func (d *Device) Failures() int {
	return d.dev.Failures()
}
