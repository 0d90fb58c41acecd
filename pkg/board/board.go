// Package board wires the peripherals of the impact logger to one bus.
package board

import (
	"time"

	"github.com/robotalks/impactlog/pkg/capture"
	"github.com/robotalks/impactlog/pkg/flash"
	"github.com/robotalks/impactlog/pkg/l0/bus"
	"github.com/robotalks/impactlog/pkg/sensor/adxl372"
	"github.com/robotalks/impactlog/pkg/sensor/ds1388"
	"github.com/robotalks/impactlog/pkg/sensor/icm20649"
	"github.com/robotalks/impactlog/pkg/sensor/vcnl4040"
)

// SPI chip selects and I2C addresses.
const (
	FlashCS       bus.Address = 27
	MotionCS      bus.Address = 29
	HighGCS       bus.Address = 30
	RTCAddr                   = ds1388.Address
	ProximityAddr             = vcnl4040.Address
)

// Options configure the board.
type Options struct {
	Layout         flash.Layout
	FlashPollLimit int
	// ClockSetTime, when not zero, is written to the RTC on configuration.
	ClockSetTime time.Time
}

// Board holds the drivers of every peripheral.
type Board struct {
	HighG     *adxl372.Device
	Motion    *icm20649.Device
	Clock     *ds1388.Device
	Proximity *vcnl4040.Device
	Flash     *flash.Device
}

// New creates the drivers on t.
func New(t bus.Transport, opts Options) *Board {
	b := &Board{
		HighG:     adxl372.New(t, HighGCS),
		Motion:    icm20649.New(t, MotionCS),
		Clock:     ds1388.New(t, RTCAddr),
		Proximity: vcnl4040.New(t, ProximityAddr),
		Flash:     flash.New(t, FlashCS, opts.Layout),
	}
	b.Flash.PollLimit = opts.FlashPollLimit
	b.Clock.SetTime = opts.ClockSetTime
	return b
}

// Devices returns the capture view of the board.
func (b *Board) Devices() capture.Devices {
	return capture.Devices{
		HighG:     b.HighG,
		Motion:    b.Motion,
		Clock:     b.Clock,
		Proximity: b.Proximity,
		Storage:   b.Flash,
	}
}

// Failures returns the failed bus transactions per device.
func (b *Board) Failures() map[string]int {
	return map[string]int{
		b.HighG.Name():     b.HighG.Failures(),
		b.Motion.Name():    b.Motion.Failures(),
		b.Clock.Name():     b.Clock.Failures(),
		b.Proximity.Name(): b.Proximity.Failures(),
		b.Flash.Name():     b.Flash.Failures(),
	}
}
