package sim

import (
	"sync"
	"time"

	"github.com/robotalks/impactlog/pkg/impact"
	"github.com/robotalks/impactlog/pkg/l0/bus"
	"github.com/robotalks/impactlog/pkg/sensor/adxl372"
	"github.com/robotalks/impactlog/pkg/sensor/ds1388"
	"github.com/robotalks/impactlog/pkg/sensor/icm20649"
	"github.com/robotalks/impactlog/pkg/sensor/vcnl4040"
)

// AxesFunc gives a reading as a function of bench time.
type AxesFunc func(now time.Duration) impact.Axes

// HighG models an ADXL372 on SPI.
type HighG struct {
	Clock *Clock
	// Accel returns raw counts.
	Accel AxesFunc

	lock sync.Mutex
	regs [0x42]byte
}

// NewHighG creates a HighG at rest.
func NewHighG(clock *Clock) *HighG {
	s := &HighG{Clock: clock, Accel: Constant(impact.Axes{})}
	copy(s.regs[adxl372.RegDevIDAD:], adxl372.Identity)
	return s
}

// SetID overrides the identity registers.
func (s *HighG) SetID(id ...byte) {
	s.lock.Lock()
	copy(s.regs[adxl372.RegDevIDAD:], id)
	s.lock.Unlock()
}

// Register returns a register value.
func (s *HighG) Register(reg byte) byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.regs[reg]
}

// Transact implements Peripheral.
func (s *HighG) Transact(w []byte, n int) ([]byte, bus.Status) {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([]byte, n)
	if len(w) == 0 {
		return out, bus.StatusOK
	}
	reg := int(w[0] >> 1)
	if w[0]&1 == 0 {
		for i, b := range w[1:] {
			if reg+i < len(s.regs) {
				s.regs[reg+i] = b
			}
		}
		return out, bus.StatusOK
	}
	if byte(reg) == adxl372.RegXDataH {
		a := s.Accel(s.Clock.Now())
		for i, v := range a {
			raw := uint16(v) << 4
			s.regs[int(adxl372.RegXDataH)+2*i] = byte(raw >> 8)
			s.regs[int(adxl372.RegXDataH)+2*i+1] = byte(raw)
		}
	}
	for i := range out {
		if reg+i < len(s.regs) {
			out[i] = s.regs[reg+i]
		}
	}
	return out, bus.StatusOK
}

// Motion models an ICM-20649 on SPI.
type Motion struct {
	Clock *Clock
	// Accel and Gyro return raw counts.
	Accel AxesFunc
	Gyro  AxesFunc

	lock sync.Mutex
	bank byte
	regs [4][0x80]byte
}

// NewMotion creates a Motion at rest.
func NewMotion(clock *Clock) *Motion {
	s := &Motion{Clock: clock, Accel: Constant(impact.Axes{}), Gyro: Constant(impact.Axes{})}
	s.regs[0][icm20649.RegWhoAmI] = icm20649.WhoAmI
	return s
}

// SetWhoAmI overrides WHO_AM_I.
func (s *Motion) SetWhoAmI(v byte) {
	s.lock.Lock()
	s.regs[0][icm20649.RegWhoAmI] = v
	s.lock.Unlock()
}

// Register returns a register value in bank.
func (s *Motion) Register(bank, reg byte) byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.regs[bank>>4&3][reg]
}

// Transact implements Peripheral.
func (s *Motion) Transact(w []byte, n int) ([]byte, bus.Status) {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([]byte, n)
	if len(w) == 0 {
		return out, bus.StatusOK
	}
	reg := int(w[0] & 0x7f)
	if w[0]&0x80 == 0 {
		if len(w) > 1 {
			if byte(reg) == icm20649.RegBankSel {
				s.bank = w[1] >> 4 & 3
				return out, bus.StatusOK
			}
			s.regs[s.bank][reg] = w[1]
		}
		return out, bus.StatusOK
	}
	regs := &s.regs[s.bank]
	if s.bank == 0 && byte(reg) == icm20649.RegAccelXOutH {
		now := s.Clock.Now()
		a, g := s.Accel(now), s.Gyro(now)
		for i := 0; i < 3; i++ {
			base := int(icm20649.RegAccelXOutH)
			regs[base+2*i], regs[base+2*i+1] = byte(uint16(a[i])>>8), byte(a[i])
			regs[base+6+2*i], regs[base+6+2*i+1] = byte(uint16(g[i])>>8), byte(g[i])
		}
	}
	for i := range out {
		if reg+i < len(regs) {
			out[i] = regs[reg+i]
		}
	}
	return out, bus.StatusOK
}

// RTC models a DS1388 on I2C. Its time runs with the bench clock.
type RTC struct {
	Clock *Clock

	lock  sync.Mutex
	start time.Time
	base  time.Duration
	regs  [16]byte
}

// NewRTC creates an RTC reading start at bench time zero.
func NewRTC(clock *Clock, start time.Time) *RTC {
	return &RTC{Clock: clock, start: start}
}

// Time returns the current clock time.
func (s *RTC) Time() time.Time {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.time()
}

func (s *RTC) time() time.Time {
	return s.start.Add(s.Clock.Now() - s.base)
}

// Transact implements Peripheral.
func (s *RTC) Transact(w []byte, n int) ([]byte, bus.Status) {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([]byte, n)
	if len(w) == 0 {
		return out, bus.StatusOK
	}
	reg := int(w[0])
	if reg <= int(ds1388.RegYear) {
		s.latch()
	}
	for i, b := range w[1:] {
		if reg+i < len(s.regs) {
			s.regs[reg+i] = b
		}
	}
	if len(w) > 1 && reg == int(ds1388.RegHundredths) && len(w) >= 9 {
		s.setFromRegs()
	}
	for i := range out {
		if reg+i < len(s.regs) {
			out[i] = s.regs[reg+i]
		}
	}
	return out, bus.StatusOK
}

func (s *RTC) latch() {
	t := s.time()
	s.regs[ds1388.RegHundredths] = ds1388.ToBCD(uint8(t.Nanosecond() / int(10*time.Millisecond)))
	s.regs[ds1388.RegSeconds] = ds1388.ToBCD(uint8(t.Second()))
	s.regs[ds1388.RegMinutes] = ds1388.ToBCD(uint8(t.Minute()))
	s.regs[ds1388.RegHours] = ds1388.ToBCD(uint8(t.Hour()))
	s.regs[ds1388.RegDay] = uint8(t.Weekday()) + 1
	s.regs[ds1388.RegDate] = ds1388.ToBCD(uint8(t.Day()))
	s.regs[ds1388.RegMonth] = ds1388.ToBCD(uint8(t.Month()))
	s.regs[ds1388.RegYear] = ds1388.ToBCD(uint8(t.Year() % 100))
}

func (s *RTC) setFromRegs() {
	r := s.regs
	s.start = time.Date(2000+int(ds1388.FromBCD(r[ds1388.RegYear])),
		time.Month(ds1388.FromBCD(r[ds1388.RegMonth])),
		int(ds1388.FromBCD(r[ds1388.RegDate])),
		int(ds1388.FromBCD(r[ds1388.RegHours]&0x3f)),
		int(ds1388.FromBCD(r[ds1388.RegMinutes])),
		int(ds1388.FromBCD(r[ds1388.RegSeconds])),
		int(ds1388.FromBCD(r[ds1388.RegHundredths]))*int(10*time.Millisecond),
		time.UTC)
	s.base = s.Clock.Now()
}

// Proximity models a VCNL4040 on I2C.
type Proximity struct {
	Clock *Clock
	ID    uint16
	Level func(now time.Duration) uint16

	lock sync.Mutex
	regs map[byte][2]byte
}

// NewProximity creates a Proximity reading zero.
func NewProximity(clock *Clock) *Proximity {
	return &Proximity{
		Clock: clock,
		ID:    0x0186,
		Level: func(time.Duration) uint16 { return 0 },
		regs:  make(map[byte][2]byte),
	}
}

// Register returns a configuration word.
func (s *Proximity) Register(reg byte) [2]byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.regs[reg]
}

// Transact implements Peripheral.
func (s *Proximity) Transact(w []byte, n int) ([]byte, bus.Status) {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([]byte, n)
	if len(w) == 0 {
		return out, bus.StatusOK
	}
	if len(w) >= 3 {
		s.regs[w[0]] = [2]byte{w[1], w[2]}
		return out, bus.StatusOK
	}
	var word uint16
	switch w[0] {
	case vcnl4040.RegID:
		word = s.ID
	case vcnl4040.RegPSData:
		word = s.Level(s.Clock.Now())
	default:
		r := s.regs[w[0]]
		word = uint16(r[0]) | uint16(r[1])<<8
	}
	if n > 0 {
		out[0] = byte(word)
	}
	if n > 1 {
		out[1] = byte(word >> 8)
	}
	return out, bus.StatusOK
}

// Constant returns an AxesFunc always reading a.
func Constant(a impact.Axes) AxesFunc {
	return func(time.Duration) impact.Axes { return a }
}
