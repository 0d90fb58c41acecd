package sim

import (
	"sync"

	"github.com/robotalks/impactlog/pkg/flash"
	"github.com/robotalks/impactlog/pkg/l0/bus"
)

// Flash models an MT25QL256. Memory is kept per subsector and reads as
// 0xff until programmed. Programming only clears bits and wraps inside
// its page. Commands other than status reads are ignored while busy.
type Flash struct {
	ID [3]byte
	// BusyPolls is how many status reads report busy after a program
	// or subsector erase.
	BusyPolls int
	// BulkBusyPolls is the same for a bulk erase.
	BulkBusyPolls int

	lock     sync.Mutex
	mem      map[uint32]*[flash.SubsectorSize]byte
	wel      bool
	busy     int
	ext      byte
	resetEn  bool
	programs int
	erases   int
}

// NewFlash creates an erased Flash.
func NewFlash() *Flash {
	f := &Flash{BusyPolls: 2, BulkBusyPolls: 50}
	copy(f.ID[:], flash.Identity)
	f.mem = make(map[uint32]*[flash.SubsectorSize]byte)
	return f
}

func (f *Flash) subsector(addr uint32, create bool) *[flash.SubsectorSize]byte {
	key := addr / flash.SubsectorSize
	ss := f.mem[key]
	if ss == nil && create {
		ss = new([flash.SubsectorSize]byte)
		for i := range ss {
			ss[i] = 0xff
		}
		f.mem[key] = ss
	}
	return ss
}

func (f *Flash) peek(addr uint32) byte {
	if ss := f.subsector(addr, false); ss != nil {
		return ss[addr%flash.SubsectorSize]
	}
	return 0xff
}

// Peek reads n bytes at a logical address without a bus transaction.
func (f *Flash) Peek(addr uint32, n int) []byte {
	f.lock.Lock()
	defer f.lock.Unlock()
	out := make([]byte, n)
	for i := range out {
		out[i] = f.peek(addr + uint32(i))
	}
	return out
}

// Counters returns the number of accepted page programs and erases.
func (f *Flash) Counters() (programs, erases int) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.programs, f.erases
}

func (f *Flash) address(w []byte) uint32 {
	if len(w) < 4 {
		return 0
	}
	return flash.DeviceAddress{w[1], w[2], w[3]}.In(flash.Segment(f.ext))
}

// Transact implements Peripheral.
func (f *Flash) Transact(w []byte, n int) ([]byte, bus.Status) {
	f.lock.Lock()
	defer f.lock.Unlock()
	out := make([]byte, n)
	if len(w) == 0 {
		return out, bus.StatusOK
	}
	op := w[0]
	if op == flash.OpReadStatus {
		var st byte
		if f.busy > 0 {
			f.busy--
			st |= flash.StatusBusy
		}
		if f.wel {
			st |= flash.StatusWriteEnable
		}
		for i := range out {
			out[i] = st
		}
		return out, bus.StatusOK
	}
	if f.busy > 0 {
		return out, bus.StatusOK
	}
	if op != flash.OpResetMemory {
		f.resetEn = false
	}
	switch op {
	case flash.OpReadID:
		copy(out, f.ID[:])
	case flash.OpWriteEnable:
		f.wel = true
	case flash.OpWriteDisable:
		f.wel = false
	case flash.OpWriteExtAddress:
		if f.wel && len(w) > 1 {
			f.ext = w[1] & 1
		}
		f.wel = false
	case flash.OpReadExtAddress:
		if n > 0 {
			out[0] = f.ext
		}
	case flash.OpRead:
		addr := f.address(w)
		for i := range out {
			out[i] = f.peek((addr + uint32(i)) % flash.Capacity)
		}
	case flash.OpPageProgram:
		if f.wel && len(w) > 4 {
			addr := f.address(w)
			page := addr - addr%flash.PageSize
			off := addr % flash.PageSize
			for _, b := range w[4:] {
				a := page + off
				ss := f.subsector(a, true)
				ss[a%flash.SubsectorSize] &= b
				off = (off + 1) % flash.PageSize
			}
			f.programs++
			f.busy = f.BusyPolls
		}
		f.wel = false
	case flash.OpSubsectorErase:
		if f.wel {
			delete(f.mem, f.address(w)/flash.SubsectorSize)
			f.erases++
			f.busy = f.BusyPolls
		}
		f.wel = false
	case flash.OpBulkErase:
		if f.wel {
			f.mem = make(map[uint32]*[flash.SubsectorSize]byte)
			f.erases++
			f.busy = f.BulkBusyPolls
		}
		f.wel = false
	case flash.OpResetEnable:
		f.resetEn = true
	case flash.OpResetMemory:
		if f.resetEn {
			f.wel, f.ext, f.resetEn = false, 0, false
		}
	}
	return out, bus.StatusOK
}
