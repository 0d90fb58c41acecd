package sim

import (
	"time"

	"github.com/robotalks/impactlog/pkg/board"
	"github.com/robotalks/impactlog/pkg/impact"
	"github.com/robotalks/impactlog/pkg/l0/bus"
)

// Latencies are the bus times of one transaction per peripheral.
type Latencies struct {
	Flash     time.Duration
	HighG     time.Duration
	Motion    time.Duration
	RTC       time.Duration
	Proximity time.Duration
}

// DefaultLatencies makes one acquisition take 2ms.
var DefaultLatencies = Latencies{
	Flash:     20 * time.Microsecond,
	HighG:     500 * time.Microsecond,
	Motion:    500 * time.Microsecond,
	RTC:       time.Millisecond,
	Proximity: time.Millisecond,
}

// DefaultStart is the RTC time at bench time zero.
var DefaultStart = time.Date(2024, time.May, 17, 13, 4, 0, 0, time.UTC)

// Bench is a complete simulated board.
type Bench struct {
	Clock     *Clock
	Bus       *Bus
	Flash     *Flash
	HighG     *HighG
	Motion    *Motion
	RTC       *RTC
	Proximity *Proximity
}

// NewBench creates a bench with every peripheral attached at its board
// address.
func NewBench(lat Latencies) *Bench {
	clock := &Clock{}
	b := &Bench{
		Clock:     clock,
		Bus:       NewBus(clock),
		Flash:     NewFlash(),
		HighG:     NewHighG(clock),
		Motion:    NewMotion(clock),
		RTC:       NewRTC(clock, DefaultStart),
		Proximity: NewProximity(clock),
	}
	b.Bus.Attach(board.FlashCS, b.Flash, lat.Flash)
	b.Bus.Attach(board.HighGCS, b.HighG, lat.HighG)
	b.Bus.Attach(board.MotionCS, b.Motion, lat.Motion)
	b.Bus.Attach(board.RTCAddr, b.RTC, lat.RTC)
	b.Bus.Attach(board.ProximityAddr, b.Proximity, lat.Proximity)
	return b
}

// Transport returns a blocking transport over the bench bus.
func (b *Bench) Transport(pollLimit int) bus.Transport {
	return bus.NewBlocking(b.Bus, pollLimit)
}

// Board creates the drivers on the bench.
func (b *Bench) Board(opts board.Options) *board.Board {
	return board.New(b.Transport(0), opts)
}

// Approach makes the proximity sensor read level from at onwards.
func (b *Bench) Approach(at time.Duration, level uint16) {
	b.Proximity.Level = func(now time.Duration) uint16 {
		if now >= at {
			return level
		}
		return 0
	}
}

// Impact makes the high-g sensor read peak (in counts of 100 mg) on the
// X axis from at onwards, decaying by one count every 10ms. The
// low-g sensor and gyroscope follow a ramp so every sample differs.
func (b *Bench) Impact(at time.Duration, peak int16) {
	b.HighG.Accel = func(now time.Duration) impact.Axes {
		if now < at {
			return impact.Axes{0, 0, 10}
		}
		v := int32(peak) - int32((now-at)/(10*time.Millisecond))
		if v < 0 {
			v = 0
		}
		return impact.Axes{int16(v), -int16(v / 2), 10}
	}
	b.Motion.Accel = func(now time.Duration) impact.Axes {
		ms := int16(now / time.Millisecond % 1000)
		return impact.Axes{ms, -ms, 1024}
	}
	b.Motion.Gyro = func(now time.Duration) impact.Axes {
		ms := int16(now / time.Millisecond % 1000)
		return impact.Axes{ms * 3, 0, -ms}
	}
}
