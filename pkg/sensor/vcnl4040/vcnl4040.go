// Package vcnl4040 drives the VCNL4040 proximity sensor over I2C.
package vcnl4040

import (
	"github.com/robotalks/impactlog/pkg/l0/bus"
)

// Address is the I2C address of the sensor.
const Address bus.Address = 0x60

// Registers, each holding a 16-bit little-endian word.
const (
	RegPSConf1 byte = 0x03
	RegPSConf3 byte = 0x04
	RegPSData  byte = 0x08
	RegID      byte = 0x0c
)

// Configuration words: 1/320 duty, 16-bit output, proximity on, smart
// persistence, 200 mA LED current.
const (
	PSConf1 byte = 0x0e
	PSConf2 byte = 0x08
	PSConf3 byte = 0x10
	PSMS    byte = 0x07
)

// Identity is the device id word 0x0186, low byte first.
var Identity = []byte{0x86, 0x01}

// Device is a VCNL4040.
type Device struct {
	dev bus.Device
}

// New creates a Device at addr.
func New(t bus.Transport, addr bus.Address) *Device {
	return &Device{dev: bus.NewDevice(t, addr, "vcnl4040")}
}

// Name implements sensor.Driver.
func (d *Device) Name() string { return "vcnl4040" }

// Expected implements sensor.Driver.
func (d *Device) Expected() []byte { return Identity }

// Identify implements sensor.Driver.
func (d *Device) Identify() []byte {
	return d.dev.Read([]byte{RegID}, 2)
}

// Configure implements sensor.Driver.
func (d *Device) Configure() error {
	d.dev.Write(RegPSConf3, PSConf3, PSMS)
	d.dev.Write(RegPSConf1, PSConf1, PSConf2)
	return nil
}

// ReadProximity implements sensor.Proximity. Values grow as an object
// gets closer than it was at configuration time.
func (d *Device) ReadProximity() uint16 {
	r := d.dev.Read([]byte{RegPSData}, 2)
	return uint16(r[0]) | uint16(r[1])<<8
}

// Failures returns the number of failed bus transactions.
func (d *Device) Failures() int {
	return d.dev.Failures()
}
