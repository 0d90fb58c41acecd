package capture

import (
	"github.com/robotalks/impactlog/pkg/flash"
	"github.com/robotalks/impactlog/pkg/sensor"
)

// Storage is the non-volatile record store.
type Storage interface {
	sensor.Driver
	Layout() flash.Layout
	PollReady() error
	EraseRegion(addr uint32) error
	WriteRecord(index int, rec []byte) error
	ReadRecord(index, n int) ([]byte, error)
}

// Devices are the peripherals driven by the machine.
type Devices struct {
	HighG     sensor.HighG
	Motion    sensor.Motion
	Clock     sensor.Clock
	Proximity sensor.Proximity
	Storage   Storage
}

// Drivers lists the devices in self-test order. Proximity is included
// only when used.
func (d Devices) Drivers(proximity bool) []sensor.Driver {
	drivers := []sensor.Driver{d.Storage, d.HighG, d.Motion, d.Clock}
	if proximity && d.Proximity != nil {
		drivers = append(drivers, d.Proximity)
	}
	return drivers
}
