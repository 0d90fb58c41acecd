package framework

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/golang/glog"
)

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun wraps a Runnable with a name.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

// ErrForcedExit is returned by Wait when a second stop signal arrives.
var ErrForcedExit = errors.New("forced exit")

type exit struct {
	name string
	err  error
}

// Runner supervises the services of a process and the episode they serve.
// Services started with Go run until the runner stops. The Runnable
// started with Main stops the runner when it returns.
type Runner struct {
	Context context.Context

	cancel  context.CancelFunc
	started int
	exits   chan exit
	forced  chan struct{}
}

// NewRunner creates a runner on a background context.
func NewRunner() *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		Context: ctx,
		cancel:  cancel,
		exits:   make(chan exit),
		forced:  make(chan struct{}),
	}
}

// HandleSignals stops the runner on SIGINT or SIGTERM.
// A second signal makes Wait return without waiting.
func (r *Runner) HandleSignals() *Runner {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		glog.Infof("runner: %s, stopping", sig)
		r.Stop()
		<-sigCh
		glog.Error("runner: stop requested again, force exit")
		close(r.forced)
	}()
	return r
}

// Go starts services.
func (r *Runner) Go(services ...Runnable) *Runner {
	for _, s := range services {
		r.start(s, false)
	}
	return r
}

// Main starts the Runnable whose return stops the runner.
func (r *Runner) Main(runnable Runnable) *Runner {
	r.start(runnable, true)
	return r
}

func (r *Runner) start(runnable Runnable, main bool) {
	name := strconv.Itoa(r.started)
	if named, ok := runnable.(Named); ok {
		name = named.Name()
	}
	r.started++
	go func() {
		glog.V(4).Infof("runner: %s started", name)
		err := runnable.Run(r.Context)
		if main {
			r.Stop()
		}
		r.exits <- exit{name: name, err: err}
	}()
}

// Stop cancels the runner context.
func (r *Runner) Stop() {
	r.cancel()
}

// Wait waits for every started Runnable and aggregates their errors,
// each prefixed with the Runnable's name. Cancellation is not an error.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for n := 0; n < r.started; n++ {
		select {
		case <-r.forced:
			return ErrForcedExit
		case e := <-r.exits:
			if e.err == nil || errors.Is(e.err, context.Canceled) {
				glog.V(4).Infof("runner: %s stopped", e.name)
				continue
			}
			glog.Errorf("runner: %s: %v", e.name, e.err)
			errs.Add(fmt.Errorf("%s: %w", e.name, e.err))
		}
	}
	return errs.Aggregate()
}
