package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	fx "github.com/robotalks/impactlog/pkg/framework"
	"github.com/robotalks/impactlog/pkg/l0/bridge"
	"github.com/robotalks/impactlog/pkg/sim"
)

var (
	portName   string
	baud       = 115200
	listPorts  bool
	approachAt = time.Second
	proximity  = 12
	impactAt   = 3 * time.Second
	peak       = 350
	tick       = 10 * time.Millisecond
)

func init() {
	flag.StringVar(&portName, "port", portName, "Serial port the logger is attached to.")
	flag.IntVar(&baud, "baud", baud, "Serial baud rate.")
	flag.BoolVar(&listPorts, "list", listPorts, "List serial ports and exit.")
	flag.DurationVar(&approachAt, "approach", approachAt, "Bench time of the proximity approach.")
	flag.IntVar(&proximity, "proximity", proximity, "Proximity level after the approach.")
	flag.DurationVar(&impactAt, "impact", impactAt, "Bench time of the impact.")
	flag.IntVar(&peak, "peak", peak, "Peak high-g counts of the impact.")
	flag.DurationVar(&tick, "tick", tick, "Advance bench time with wall time at this interval.")
}

// pace keeps bench time moving while the logger is idle.
func pace(clock *sim.Clock) fx.RunFunc {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				clock.Advance(tick)
			}
		}
	}
}

func main() {
	flag.Parse()
	defer glog.Flush()

	if listPorts {
		ports, err := enumerator.GetDetailedPortsList()
		if err != nil {
			glog.Exitln(err)
		}
		for _, port := range ports {
			fmt.Printf("%s\t%s\t%s/%s\n", port.Name, port.Product, port.VID, port.PID)
		}
		return
	}
	if portName == "" {
		glog.Exitln("-port required")
	}

	port, err := serial.Open(portName, &serial.Mode{BaudRate: baud})
	if err != nil {
		glog.Exitln(err)
	}
	defer port.Close()

	bench := sim.NewBench(sim.DefaultLatencies)
	bench.Approach(approachAt, uint16(proximity))
	bench.Impact(impactAt, int16(peak))
	server := bridge.NewServer(port, bench.Transport(0))
	glog.Infof("bench: serving on %s, impact at %s", portName, impactAt)

	runner := fx.NewRunner().HandleSignals().
		Go(fx.NamedRun("pace", pace(bench.Clock))).
		Main(fx.NamedRun("bridge", server))
	err = runner.Wait()
	glog.Infof("bench: served %d requests", server.Served())
	if err != nil {
		glog.Exitln(err)
	}
}
