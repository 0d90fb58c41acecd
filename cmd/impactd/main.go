package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"errors"
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/impactlog/pkg/config"
	fx "github.com/robotalks/impactlog/pkg/framework"
)

var (
	configFile string
	exitOnDone bool
)

func init() {
	config.SetupFlags()
	flag.StringVar(&configFile, "config", configFile, "YAML configuration file.")
	flag.BoolVar(&exitOnDone, "once", exitOnDone, "Exit after the episode instead of holding the final state.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	env := config.MustLoad(configFile).MustNewEnv()
	m := env.NewMachine()
	runner := fx.NewRunner().HandleSignals().Go(env.Runnables()...)
	runner.Main(fx.NamedRun("capture", fx.RunFunc(func(ctx context.Context) error {
		err := m.Run(ctx)
		if st := m.Stats(); st != nil {
			glog.Infof("capture: episode %s matched %d mismatched %d unstored %d",
				st.ID, st.Matched, st.Mismatched, st.Unstored)
		}
		if errors.Is(err, context.Canceled) || exitOnDone {
			return err
		}
		glog.Infof("capture: holding %s", m.State())
		<-ctx.Done()
		return err
	})))
	err := runner.Wait()
	if cerr := env.Close(); cerr != nil {
		glog.Warningf("close: %v", cerr)
	}
	if err != nil {
		glog.Exitln(err)
	}
}
