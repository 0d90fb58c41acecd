// Package capture implements the impact capture lifecycle: self-test,
// arming, capture into a fixed buffer, persistence with inline read-back,
// and verified reporting.
package capture

import (
	"context"
	"errors"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/robotalks/impactlog/pkg/flash"
	"github.com/robotalks/impactlog/pkg/impact"
	"github.com/robotalks/impactlog/pkg/irq"
	"github.com/robotalks/impactlog/pkg/report"
	"github.com/robotalks/impactlog/pkg/sensor"
	"github.com/robotalks/impactlog/pkg/timer"
)

// Machine runs one capture episode.
type Machine struct {
	Config   Config
	Devices  Devices
	Timer    timer.Service
	Sink     report.Sink
	DeviceID string
	// OnState observes every transition.
	OnState func(from, to State)

	state       State
	samples     *impact.Buffer
	readBack    *impact.Buffer
	captureDone irq.Flag
	stats       *Stats
}

// New creates a Machine and allocates its buffers.
func New(conf Config, devs Devices, t timer.Service, sink report.Sink) *Machine {
	return &Machine{
		Config:   conf,
		Devices:  devs,
		Timer:    t,
		Sink:     sink,
		samples:  impact.NewBuffer(conf.Capacity),
		readBack: impact.NewBuffer(conf.Capacity),
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Stats returns the counters of the last episode, nil before a trigger.
func (m *Machine) Stats() *Stats {
	return m.stats
}

func (m *Machine) transition(to State) {
	from := m.state
	m.state = to
	glog.Infof("capture: %s -> %s", from, to)
	if m.OnState != nil {
		m.OnState(from, to)
	}
}

func (m *Machine) halt(err error) error {
	fault := &FaultError{State: m.state, Err: err}
	glog.Errorf("capture: %v", fault)
	m.transition(StateHaltFault)
	return fault
}

// Run drives the machine from SELF_TEST to DONE. It returns an error
// matching ErrHalted if a fatal condition stopped it in HALT_FAULT.
// Cancelling ctx is only observed while waiting for the arming
// conditions.
func (m *Machine) Run(ctx context.Context) error {
	if m.state != StateSelfTest {
		return ErrTerminal
	}
	if err := m.Config.Validate(); err != nil {
		return m.halt(err)
	}
	if err := m.selfTest(); err != nil {
		return m.halt(err)
	}

	m.transition(StateArmed)
	m.samples.Clear()
	m.readBack.Clear()

	if m.Config.ProximityArming {
		m.transition(StateWaitProximity)
		if err := m.waitProximity(ctx); err != nil {
			return m.cancelOrHalt(err)
		}
	}

	m.transition(StateWaitImpact)
	trigger, err := m.waitImpact(ctx)
	if err != nil {
		return m.cancelOrHalt(err)
	}

	ep := &Episode{
		Stats: Stats{
			ID:      uuid.New(),
			Trigger: trigger,
			Window:  m.Config.Window,
		},
		Samples:  m.samples,
		ReadBack: m.readBack,
	}
	m.stats = &ep.Stats
	glog.Infof("capture: impact %s, episode %s", trigger, ep.ID)

	m.transition(StateCapturing)
	if err := m.capture(ep); err != nil {
		return m.halt(err)
	}

	m.transition(StateStoring)
	if err := m.store(ep); err != nil {
		return m.halt(err)
	}

	m.transition(StateVerifying)
	m.verify(ep)

	m.samples.Clear()
	m.readBack.Clear()
	m.transition(StateDone)
	return nil
}

func (m *Machine) cancelOrHalt(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		glog.Infof("capture: canceled in %s", m.state)
		return err
	}
	return m.halt(err)
}

func (m *Machine) selfTest() error {
	drivers := m.Devices.Drivers(m.Config.ProximityArming)
	if err := sensor.SelfTest(drivers...); err != nil {
		return err
	}
	for _, d := range drivers {
		if err := d.Configure(); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) waitProximity(ctx context.Context) error {
	prox := m.Devices.Proximity
	if prox == nil {
		return errors.New("proximity arming without a proximity sensor")
	}
	var level uint16
	err := irq.Poll(m.Config.ProximityPolls, func() bool {
		if ctx.Err() != nil {
			return true
		}
		level = prox.ReadProximity()
		glog.V(4).Infof("capture: proximity %d", level)
		return level > m.Config.ProximityThreshold
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		glog.Infof("capture: proximity %d above %d", level, m.Config.ProximityThreshold)
	}
	return err
}

func (m *Machine) waitImpact(ctx context.Context) (impact.Axes, error) {
	var accel impact.Axes
	err := irq.Poll(m.Config.ImpactPolls, func() bool {
		if ctx.Err() != nil {
			return true
		}
		m.Timer.Delay(m.Config.ImpactPoll)
		accel = m.Devices.HighG.ReadAccel()
		return accel.AnyAtLeast(impact.HighGMilliGPerLSB, m.Config.ImpactThreshold)
	})
	if ctx.Err() != nil {
		return accel, ctx.Err()
	}
	return accel, err
}

func (m *Machine) capture(ep *Episode) error {
	ep.TriggeredAt = m.Devices.Clock.ReadTime()
	m.captureDone.Clear()
	h := m.Timer.ArmOnce(m.Config.Window, m.captureDone.Set)
	defer h.Stop()
	err := irq.Poll(m.Config.CapturePolls, func() bool {
		if m.captureDone.Take() {
			return true
		}
		m.acquire(ep)
		return false
	})
	if err != nil {
		return ErrWindowOpen
	}
	glog.Infof("capture: %d acquired, %d kept, %d dropped",
		ep.Acquired, ep.Samples.Len(), ep.Dropped)
	return nil
}

func (m *Machine) acquire(ep *Episode) {
	d := m.Devices
	var s impact.Sample
	s.HighG = d.HighG.ReadAccel()
	accel, gyro := d.Motion.ReadMotion()
	s.LowG, s.Gyro = d.Motion.Convert(accel, gyro)
	s.Time = d.Clock.ReadTime()
	ep.Acquired++
	if !ep.Samples.Append(s) {
		ep.Dropped++
	}
}

func (m *Machine) store(ep *Episode) error {
	st := m.Devices.Storage
	layout := st.Layout()
	if err := layout.Validate(); err != nil {
		return err
	}
	cur := flash.NewCursor(layout)
	for i := 0; i < ep.Samples.Len(); i++ {
		if cur.Remaining() <= 0 {
			ep.Unstored = ep.Samples.Len() - i
			glog.Errorf("capture: %v, %d records not stored", flash.ErrSegmentFull, ep.Unstored)
			break
		}
		if cur.EntersSubsector() {
			if err := st.PollReady(); err != nil {
				return err
			}
			if err := st.EraseRegion(cur.Address()); err != nil {
				return err
			}
			if err := st.PollReady(); err != nil {
				return err
			}
		}
		s := ep.Samples.At(i)
		if err := st.WriteRecord(cur.Index(), s.Encode()); err != nil {
			return err
		}
		rec, err := st.ReadRecord(cur.Index(), impact.RecordSize)
		if err != nil {
			return err
		}
		back, err := impact.Decode(rec)
		if err != nil {
			return err
		}
		ep.ReadBack.Append(back)
		ep.Stored++
		if err := cur.Advance(); err != nil {
			return err
		}
	}
	glog.Infof("capture: %d records stored from 0x%08x", ep.Stored, layout.Base)
	return nil
}

func (m *Machine) verify(ep *Episode) {
	m.sinkErr(m.Sink.Begin(report.Header{
		Episode:     ep.ID.String(),
		Device:      m.DeviceID,
		TriggeredAt: ep.TriggeredAt,
		Records:     ep.Samples.Len(),
	}))
	for i := 0; i < ep.ReadBack.Len(); i++ {
		got := ep.ReadBack.At(i)
		if diff := ep.Samples.At(i).Diff(got); diff != 0 {
			ep.Mismatched++
			glog.Warningf("capture: record %d mismatch in %s", i, diff)
			continue
		}
		ep.Matched++
		m.sinkErr(m.Sink.Emit(i, got))
	}
	m.sinkErr(m.Sink.End(ep.Summary()))
	glog.Infof("capture: %d matched, %d mismatched, %d unstored",
		ep.Matched, ep.Mismatched, ep.Unstored)
}

func (m *Machine) sinkErr(err error) {
	if err != nil {
		glog.Warningf("capture: output: %v", err)
	}
}
