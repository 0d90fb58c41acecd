// Package adxl372 drives the ADXL372 high-g accelerometer over SPI.
package adxl372

import (
	"github.com/robotalks/impactlog/pkg/impact"
	"github.com/robotalks/impactlog/pkg/l0/bus"
)

// Registers.
const (
	RegDevIDAD  byte = 0x00
	RegDevIDMST byte = 0x01
	RegPartID   byte = 0x02
	RegStatus   byte = 0x04
	RegXDataH   byte = 0x08
	RegOffsetX  byte = 0x20
	RegOffsetY  byte = 0x21
	RegOffsetZ  byte = 0x22
	RegTiming   byte = 0x3d
	RegMeasure  byte = 0x3e
	RegPowerCtl byte = 0x3f
	RegReset    byte = 0x41
)

// Register values.
const (
	ResetCode = 0x52

	ModeStandby   = 0x00
	ModeInstantOn = 0x02

	PowerHPFDisable  = 0x04
	PowerLPFDisable  = 0x08
	PowerSettle16ms  = 0x10
	PowerInstantOnHi = 0x20
	MeasureBW3200Hz  = 0x04
	MeasureLowNoise  = 0x08
	TimingODR6400Hz  = 0x80
)

// Identity holds the ADI, MEMS and part ids.
var Identity = []byte{0xad, 0x1d, 0xfa}

// ReadCommand returns the SPI command byte reading reg.
func ReadCommand(reg byte) byte {
	return reg<<1 | 1
}

// WriteCommand returns the SPI command byte writing reg.
func WriteCommand(reg byte) byte {
	return reg << 1
}

// Device is an ADXL372.
type Device struct {
	dev bus.Device
}

// New creates a Device selected by addr.
func New(t bus.Transport, addr bus.Address) *Device {
	return &Device{dev: bus.NewDevice(t, addr, "adxl372")}
}

// Name implements sensor.Driver.
func (d *Device) Name() string { return "adxl372" }

// Expected implements sensor.Driver.
func (d *Device) Expected() []byte { return Identity }

// Identify implements sensor.Driver.
func (d *Device) Identify() []byte {
	return d.dev.Read([]byte{ReadCommand(RegDevIDAD)}, len(Identity))
}

func (d *Device) write(reg, val byte) {
	d.dev.Write(WriteCommand(reg), val)
}

// Configure implements sensor.Driver. The part runs in instant-on mode
// at 6400 Hz with both filters bypassed.
func (d *Device) Configure() error {
	d.write(RegReset, ResetCode)
	d.write(RegPowerCtl, ModeStandby)
	d.write(RegOffsetX, 0)
	d.write(RegOffsetY, 2)
	d.write(RegOffsetZ, 5)
	d.write(RegMeasure, MeasureBW3200Hz|MeasureLowNoise)
	d.write(RegTiming, TimingODR6400Hz)
	d.write(RegPowerCtl, ModeInstantOn|PowerHPFDisable|PowerLPFDisable|PowerSettle16ms|PowerInstantOnHi)
	return nil
}

// ReadAccel implements sensor.HighG. Samples are 12-bit left-justified.
func (d *Device) ReadAccel() (a impact.Axes) {
	r := d.dev.Read([]byte{ReadCommand(RegXDataH)}, 6)
	for i := range a {
		a[i] = int16(uint16(r[2*i])<<8|uint16(r[2*i+1])) >> 4
	}
	return
}

// Failures returns the number of failed bus transactions.
func (d *Device) Failures() int {
	return d.dev.Failures()
}
