// Package sh provides the interactive diagnostic shell of the impact
// logger. Command sets register themselves with AddCmds from init.
package sh

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/impactlog/pkg/config"
	fx "github.com/robotalks/impactlog/pkg/framework"
	"github.com/robotalks/impactlog/pkg/sensor"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Config *config.Config
	Env    *config.Env

	runner *fx.Runner
}

const (
	shellKey     = "$shell"
	closedPrompt = "[closed] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
		&SelfTestCmd,
		&FailuresCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *config.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Open opens the board if not yet open.
func (s *Shell) Open() error {
	if s.Env != nil {
		return nil
	}
	env, err := s.Config.NewEnv()
	if err != nil {
		return err
	}
	s.Env = env
	if runnables := env.Runnables(); len(runnables) > 0 {
		s.runner = fx.NewRunner().Go(runnables...)
	}
	if err := env.Board.Flash.Configure(); err != nil {
		s.Close()
		return err
	}
	s.Shell.SetPrompt(fmt.Sprintf("%s@%s > ", s.Config.DeviceID, s.Config.Bus))
	return nil
}

// Close closes the board.
func (s *Shell) Close() error {
	if s.Env == nil {
		return nil
	}
	var errs fx.AggregatedError
	if s.runner != nil {
		s.runner.Stop()
		errs.Add(s.runner.Wait())
		s.runner = nil
	}
	errs.Add(s.Env.Close())
	s.Env = nil
	s.Shell.SetPrompt(closedPrompt)
	return errs.Aggregate()
}

// MustBeOpen wraps command func requiring an open board.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if err := ShellFrom(c).Open(); err != nil {
			c.Err(err)
			return
		}
		fn(c)
	}
}

// Print prints v as JSON in JSON mode, otherwise as text.
func Print(c *ishell.Context, v interface{}, text string) {
	if !ShellFrom(c).OutputJSON {
		c.Println(text)
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// ParseUint parses a decimal or 0x-prefixed argument.
func ParseUint(c *ishell.Context, n int, name string, bits int) (uint64, bool) {
	if len(c.Args) <= n {
		c.Err(fmt.Errorf("%s required", name))
		return 0, false
	}
	v, err := strconv.ParseUint(c.Args[n], 0, bits)
	if err != nil {
		c.Err(fmt.Errorf("invalid %s: %v", name, err))
		return 0, false
	}
	return v, true
}

// FormatFailures renders per device failure counters sorted by name.
func FormatFailures(failures map[string]int) string {
	names := make([]string, 0, len(failures))
	for name := range failures {
		names = append(names, name)
	}
	sort.Strings(names)
	items := make([]string, len(names))
	for n, name := range names {
		items[n] = fmt.Sprintf("%s=%d", name, failures[name])
	}
	return strings.Join(items, " ")
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Close()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Exitln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	glog.Exitln("command expected")
}

var (
	// OpenCmd opens the board.
	OpenCmd = ishell.Cmd{
		Name: "open",
		Help: "",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Open(); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the board.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Close(); err != nil {
				c.Err(err)
			}
		},
	}

	// SelfTestCmd checks the identity of every device.
	SelfTestCmd = ishell.Cmd{
		Name:    "selftest",
		Aliases: []string{"st"},
		Help:    "",
		Func: MustBeOpen(func(c *ishell.Context) {
			s := ShellFrom(c)
			devs := s.Env.Board.Devices()
			results := make(map[string]bool)
			for _, d := range devs.Drivers(s.Config.Capture.ProximityArming) {
				got, want := d.Identify(), d.Expected()
				results[d.Name()] = bytes.Equal(got, want)
				if s.OutputJSON {
					continue
				}
				if !results[d.Name()] {
					c.Err(&sensor.IdentityError{Name: d.Name(), Got: got, Want: want})
					continue
				}
				c.Printf("%s: % x OK\n", d.Name(), got)
			}
			if s.OutputJSON {
				Print(c, results, "")
			}
		}),
	}

	// FailuresCmd prints failed bus transactions per device.
	FailuresCmd = ishell.Cmd{
		Name:    "failures",
		Aliases: []string{"f"},
		Help:    "",
		Func: MustBeOpen(func(c *ishell.Context) {
			failures := ShellFrom(c).Env.Board.Failures()
			Print(c, failures, FormatFailures(failures))
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	config.SetupFlags()
	configFile := flag.String("config", "", "YAML configuration file")
	flag.Parse()
	New(config.MustLoad(*configFile)).Run(flag.Args()...)
}
