package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/robotalks/impactlog/pkg/board"
	"github.com/robotalks/impactlog/pkg/capture"
	fx "github.com/robotalks/impactlog/pkg/framework"
	"github.com/robotalks/impactlog/pkg/l0/bridge"
	"github.com/robotalks/impactlog/pkg/l0/bus"
	"github.com/robotalks/impactlog/pkg/report"
	"github.com/robotalks/impactlog/pkg/report/mqtt"
	"github.com/robotalks/impactlog/pkg/report/stream"
	"github.com/robotalks/impactlog/pkg/report/websocket"
	"github.com/robotalks/impactlog/pkg/sim"
	"github.com/robotalks/impactlog/pkg/timer"
)

const (
	mqttConnectTimeout = 5 * time.Second
	websocketOrigin    = "http://localhost/"
)

// Env is the board and outputs opened from a Config.
type Env struct {
	Config *Config
	// Bench is the simulated board, nil on a serial bus.
	Bench *sim.Bench
	// Bridge is the bus bridge client, nil on the simulated bus.
	Bridge    *bridge.Client
	Transport bus.Transport
	Timer     timer.Service
	Board     *board.Board
	Sink      report.Multi

	closers []io.Closer
}

// NewEnv opens the bus and the outputs.
func (c *Config) NewEnv() (*Env, error) {
	env := &Env{Config: c}
	if err := env.openBus(); err != nil {
		env.Close()
		return nil, err
	}
	opts, err := c.BoardOptions()
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Board = board.New(env.Transport, opts)
	if err := env.openOutputs(); err != nil {
		env.Close()
		return nil, err
	}
	return env, nil
}

// MustNewEnv creates Env and exits on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		glog.Exitln(err)
	}
	return env
}

func (e *Env) openBus() error {
	c := e.Config
	if c.IsSim() {
		e.Bench = sim.NewBench(sim.DefaultLatencies)
		e.Bench.Approach(c.Sim.ApproachAt, c.Sim.Proximity)
		e.Bench.Impact(c.Sim.ImpactAt, c.Sim.Peak)
		e.Transport = e.Bench.Transport(c.BusPollLimit)
		e.Timer = e.Bench.Clock
		glog.Infof("bus: simulated bench, impact at %s", c.Sim.ImpactAt)
		return nil
	}
	port, err := e.openSerial(c.Bus)
	if err != nil {
		return err
	}
	e.Bridge = bridge.NewClient(port)
	e.Bridge.Timeout = c.BridgeTimeout
	e.Transport = e.Bridge
	e.Timer = timer.System{}
	glog.Infof("bus: bridge on %s at %d baud", c.Bus, c.Baud)
	return nil
}

func (e *Env) openSerial(name string) (serial.Port, error) {
	port, err := serial.Open(name, &serial.Mode{BaudRate: e.Config.Baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	e.closers = append(e.closers, port)
	return port, nil
}

func (e *Env) openOutputs() error {
	c := e.Config
	if c.Output.Text != "" {
		w, err := e.openText(c.Output.Text)
		if err != nil {
			return err
		}
		e.Sink = append(e.Sink, report.NewText(w))
	}
	if c.Output.MQTTURL != "" {
		q, err := mqtt.NewQueueFromURL(c.Output.MQTTURL)
		if err != nil {
			return fmt.Errorf("invalid MQTT URL: %w", err)
		}
		if err := q.Connect(mqttConnectTimeout); err != nil {
			return fmt.Errorf("connect MQTT %s: %w", c.Output.MQTTURL, err)
		}
		e.closers = append(e.closers, q)
		e.Sink = append(e.Sink, report.NewPackets(q.Writer(mqtt.RecordsTopic(c.DeviceID), 1), c.DeviceID))
	}
	if c.Output.WebSocketURL != "" {
		ws, err := websocket.Dial(c.Output.WebSocketURL, websocketOrigin)
		if err != nil {
			return fmt.Errorf("connect monitor %s: %w", c.Output.WebSocketURL, err)
		}
		e.closers = append(e.closers, ws)
		e.Sink = append(e.Sink, report.NewPackets(ws, c.DeviceID))
	}
	if c.Output.RecordFile != "" {
		f, err := os.Create(c.Output.RecordFile)
		if err != nil {
			return err
		}
		e.closers = append(e.closers, f)
		e.Sink = append(e.Sink, report.NewPackets(stream.Writer(f), c.DeviceID))
	}
	return nil
}

func (e *Env) openText(out string) (io.Writer, error) {
	switch {
	case out == "-":
		return os.Stdout, nil
	case strings.HasPrefix(out, "/dev/tty"):
		return e.openSerial(out)
	}
	f, err := os.Create(out)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, f)
	return f, nil
}

// Runnables returns what must run while the board is used.
func (e *Env) Runnables() []fx.Runnable {
	if e.Bridge != nil {
		return []fx.Runnable{fx.NamedRun("bridge", e.Bridge)}
	}
	return nil
}

// NewMachine creates a capture machine on the board.
func (e *Env) NewMachine() *capture.Machine {
	m := capture.New(e.Config.Capture, e.Board.Devices(), e.Timer, e.Sink)
	m.DeviceID = e.Config.DeviceID
	return m
}

// Close closes the outputs and the bus in reverse order of opening.
func (e *Env) Close() error {
	var errs fx.AggregatedError
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs.Add(e.closers[i].Close())
	}
	e.closers = nil
	return errs.Aggregate()
}
