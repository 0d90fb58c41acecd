// Package icm20649 drives the ICM-20649 low-g accelerometer and gyroscope
// over SPI.
package icm20649

import (
	"math"

	"github.com/robotalks/impactlog/pkg/impact"
	"github.com/robotalks/impactlog/pkg/l0/bus"
)

// Bank 0 registers.
const (
	RegWhoAmI     byte = 0x00
	RegUserCtrl   byte = 0x03
	RegLPConfig   byte = 0x05
	RegPwrMgmt1   byte = 0x06
	RegPwrMgmt2   byte = 0x07
	RegAccelXOutH byte = 0x2d
	RegBankSel    byte = 0x7f
)

// Bank 2 registers.
const (
	RegGyroConfig1  byte = 0x01
	RegGyroConfig2  byte = 0x02
	RegAccelConfig  byte = 0x14
	Bank0           byte = 0x00
	Bank2           byte = 0x20
	WhoAmI          byte = 0xe1
	PwrClockAuto    byte = 0x01
	GyroFS2000DPS   byte = 0x04
	AccelFS30GNoLPF byte = 0x06
)

// Identity is WHO_AM_I followed by the PWR_MGMT_1 write/read-back value.
var Identity = []byte{WhoAmI, PwrClockAuto}

// ReadCommand returns the SPI command byte reading reg.
func ReadCommand(reg byte) byte {
	return reg | 0x80
}

// Device is an ICM-20649.
type Device struct {
	dev  bus.Device
	bank byte
}

// New creates a Device selected by addr.
func New(t bus.Transport, addr bus.Address) *Device {
	return &Device{dev: bus.NewDevice(t, addr, "icm20649"), bank: 0xff}
}

// Name implements sensor.Driver.
func (d *Device) Name() string { return "icm20649" }

// Expected implements sensor.Driver.
func (d *Device) Expected() []byte { return Identity }

func (d *Device) write(reg, val byte) {
	d.dev.Write(reg&0x7f, val)
}

func (d *Device) selectBank(bank byte) {
	if d.bank != bank {
		d.write(RegBankSel, bank)
		d.bank = bank
	}
}

// Identify implements sensor.Driver. Besides WHO_AM_I it writes PWR_MGMT_1
// and reads it back.
func (d *Device) Identify() []byte {
	d.selectBank(Bank0)
	who := d.dev.Read([]byte{ReadCommand(RegWhoAmI)}, 1)
	d.write(RegPwrMgmt1, PwrClockAuto)
	back := d.dev.Read([]byte{ReadCommand(RegPwrMgmt1)}, 1)
	return []byte{who[0], back[0]}
}

// Configure implements sensor.Driver: accelerometer and gyroscope on,
// gyroscope at ±2000 dps with the low-pass filter bypassed.
func (d *Device) Configure() error {
	d.selectBank(Bank0)
	d.write(RegUserCtrl, 0)
	d.write(RegLPConfig, 0)
	d.write(RegPwrMgmt1, PwrClockAuto)
	d.write(RegPwrMgmt2, 0)
	d.selectBank(Bank2)
	d.write(RegGyroConfig1, GyroFS2000DPS)
	d.write(RegGyroConfig2, 0)
	d.write(RegAccelConfig, AccelFS30GNoLPF)
	d.selectBank(Bank0)
	return nil
}

// ReadMotion implements sensor.Motion. Data registers are big-endian.
func (d *Device) ReadMotion() (accel, gyro impact.Axes) {
	d.selectBank(Bank0)
	r := d.dev.Read([]byte{ReadCommand(RegAccelXOutH)}, 12)
	for i := 0; i < 3; i++ {
		accel[i] = int16(uint16(r[2*i])<<8 | uint16(r[2*i+1]))
		gyro[i] = int16(uint16(r[6+2*i])<<8 | uint16(r[6+2*i+1]))
	}
	return
}

// Convert implements sensor.Motion.
func (d *Device) Convert(accel, gyro impact.Axes) (impact.Axes, impact.Axes) {
	return Convert(accel, gyro)
}

// Failures returns the number of failed bus transactions.
func (d *Device) Failures() int {
	return d.dev.Failures()
}

// deg2rad has single precision, as the firmware declares it.
const deg2rad = float64(float32(3.1415 / 180.0))

// Convert turns raw counts into milli-g (1024 LSB/g) and milli-rad/s
// (full scale ±2000 dps). Results are truncated toward zero and clamped
// to the int16 range.
func Convert(accel, gyro impact.Axes) (mg, mrad impact.Axes) {
	for i := range accel {
		mg[i] = clamp(float64(accel[i]) / 1024.0 * 1000)
		mrad[i] = clamp(float64(gyro[i]) / 32767.0 * 2000.0 * deg2rad * 1000)
	}
	return
}

func clamp(v float64) int16 {
	v = math.Trunc(v)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
