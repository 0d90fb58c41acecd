// Package capture provides shell commands running capture episodes.
package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/impactlog/pkg/capture"
	"github.com/robotalks/impactlog/pkg/cli/sh"
)

var last *capture.Stats

// FormatStats renders episode counters on one line.
func FormatStats(s *capture.Stats) string {
	if s == nil {
		return "no episode"
	}
	return fmt.Sprintf("episode %s trigger %s window %s acquired %d dropped %d stored %d unstored %d matched %d mismatched %d",
		s.ID, s.Trigger, s.Window, s.Acquired, s.Dropped, s.Stored, s.Unstored, s.Matched, s.Mismatched)
}

var (
	// RunCmd runs one capture episode.
	RunCmd = ishell.Cmd{
		Name:    "capture.run",
		Aliases: []string{"run"},
		Help:    "[TIMEOUT]",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			ctx := context.Background()
			if len(c.Args) > 0 {
				timeout, err := time.ParseDuration(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("invalid TIMEOUT: %v", err))
					return
				}
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			if b := s.Env.Bench; b != nil {
				b.Impact(b.Clock.Now()+s.Config.Sim.ImpactAt, s.Config.Sim.Peak)
			}
			m := s.Env.NewMachine()
			err := m.Run(ctx)
			last = m.Stats()
			if err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, last, FormatStats(last))
		}),
	}

	// StatsCmd prints the counters of the last episode.
	StatsCmd = ishell.Cmd{
		Name:    "capture.stats",
		Aliases: []string{"stats"},
		Help:    "",
		Func: func(c *ishell.Context) {
			sh.Print(c, last, FormatStats(last))
		},
	}
)

func init() {
	sh.AddCmds(
		&RunCmd,
		&StatsCmd,
	)
}
