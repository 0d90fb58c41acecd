// Package config provides the settings of the impact logger tools.
// Values come from defaults, environment, command line flags and an
// optional YAML file, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/impactlog/pkg/board"
	"github.com/robotalks/impactlog/pkg/capture"
	"github.com/robotalks/impactlog/pkg/flash"
)

// SimBus selects the simulated bench instead of a serial bridge.
const SimBus = "sim"

// Config is the complete tool configuration.
type Config struct {
	DeviceID string `yaml:"device_id"`

	// Bus is SimBus or the serial device of the bus bridge.
	Bus           string        `yaml:"bus"`
	Baud          int           `yaml:"baud"`
	BridgeTimeout time.Duration `yaml:"bridge_timeout"`
	BusPollLimit  int           `yaml:"bus_poll_limit"`

	Segment        string `yaml:"segment"`
	Offset         uint32 `yaml:"offset"`
	FlashPollLimit int    `yaml:"flash_poll_limit"`
	// SetClock writes the host time to the RTC during configuration.
	SetClock bool `yaml:"set_clock"`

	Capture capture.Config `yaml:"capture"`
	Output  Output         `yaml:"output"`
	Sim     Sim            `yaml:"sim"`
}

// Output selects where verified records go.
type Output struct {
	// Text is "-" for stdout, a serial device (/dev/tty*) or a file path.
	Text string `yaml:"text"`
	// MQTTURL is mqtt://host:port/topic-prefix.
	MQTTURL      string `yaml:"mqtt_url"`
	WebSocketURL string `yaml:"websocket_url"`
	// RecordFile receives length-prefixed encoded records.
	RecordFile string `yaml:"record_file"`
}

// Sim scripts the simulated bench.
type Sim struct {
	ApproachAt time.Duration `yaml:"approach_at"`
	Proximity  uint16        `yaml:"proximity"`
	ImpactAt   time.Duration `yaml:"impact_at"`
	// Peak is in counts of 100 mg.
	Peak int16 `yaml:"peak"`
}

var defaultConfig = Config{
	Bus:            SimBus,
	Baud:           115200,
	BridgeTimeout:  100 * time.Millisecond,
	Segment:        "low",
	FlashPollLimit: flash.DefaultPollLimit,
	Capture:        capture.DefaultConfig(),
	Output:         Output{Text: "-"},
	Sim: Sim{
		ApproachAt: time.Second,
		Proximity:  12,
		ImpactAt:   3 * time.Second,
		Peak:       350,
	},
}

func init() {
	applyEnv(&defaultConfig, os.Getenv)
	if defaultConfig.DeviceID == "" {
		defaultConfig.DeviceID = MachineID()
	}
}

func applyEnv(c *Config, getenv func(string) string) {
	if val := getenv("IMPACT_BUS"); val != "" {
		c.Bus = val
	}
	if val := getenv("IMPACT_MQTT_URL"); val != "" {
		c.Output.MQTTURL = val
	}
	if val := getenv("IMPACT_DEVICE_ID"); val != "" {
		c.DeviceID = val
	}
}

type hexUint32 struct {
	v *uint32
}

func (h hexUint32) String() string {
	if h.v == nil {
		return "0"
	}
	return fmt.Sprintf("0x%x", *h.v)
}

func (h hexUint32) Set(s string) error {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return err
	}
	*h.v = uint32(v)
	return nil
}

// SetupFlags sets command line flags.
func SetupFlags() {
	c := &defaultConfig
	flag.StringVar(&c.DeviceID, "id", c.DeviceID, "Device ID")
	flag.StringVar(&c.Bus, "bus", c.Bus, "Bus: sim or serial device of the bus bridge")
	flag.IntVar(&c.Baud, "baud", c.Baud, "Serial baud rate")
	flag.DurationVar(&c.BridgeTimeout, "bridge-timeout", c.BridgeTimeout, "Bus bridge reply timeout")
	flag.StringVar(&c.Segment, "segment", c.Segment, "Flash segment: low or high")
	flag.Var(hexUint32{&c.Offset}, "offset", "Record offset in the flash segment")
	flag.BoolVar(&c.SetClock, "set-clock", c.SetClock, "Set the RTC from the host clock")
	flag.BoolVar(&c.Capture.ProximityArming, "proximity", c.Capture.ProximityArming, "Wait for proximity before arming")
	flag.DurationVar(&c.Capture.Window, "window", c.Capture.Window, "Capture window")
	flag.IntVar(&c.Capture.Capacity, "capacity", c.Capture.Capacity, "Samples kept per episode")
	flag.StringVar(&c.Output.Text, "output", c.Output.Text, "Text output: - for stdout, serial device or file")
	flag.StringVar(&c.Output.MQTTURL, "mqtt", c.Output.MQTTURL, "MQTT broker URL")
	flag.StringVar(&c.Output.WebSocketURL, "ws", c.Output.WebSocketURL, "WebSocket monitor URL")
	flag.StringVar(&c.Output.RecordFile, "records", c.Output.RecordFile, "File receiving encoded records")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// LoadFile overlays the YAML document at path.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// Load creates a Config and overlays the file at path if not empty.
func Load(path string) (*Config, error) {
	c := NewConfig()
	if path != "" {
		if err := c.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return c, c.Validate()
}

// MustLoad loads a Config and exits on error.
func MustLoad(path string) *Config {
	c, err := Load(path)
	if err != nil {
		glog.Exitln(err)
	}
	return c
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if c.Bus == "" {
		return errors.New("bus must be specified")
	}
	if _, err := c.Layout(); err != nil {
		return err
	}
	return c.Capture.Validate()
}

// IsSim reports whether the simulated bench is used.
func (c *Config) IsSim() bool {
	return c.Bus == SimBus
}

// Layout returns the flash record layout.
func (c *Config) Layout() (flash.Layout, error) {
	seg, err := flash.ParseSegment(c.Segment)
	if err != nil {
		return flash.Layout{}, err
	}
	l := flash.NewLayout(seg, c.Offset)
	return l, l.Validate()
}

// BoardOptions returns the board settings.
func (c *Config) BoardOptions() (board.Options, error) {
	l, err := c.Layout()
	if err != nil {
		return board.Options{}, err
	}
	opts := board.Options{Layout: l, FlashPollLimit: c.FlashPollLimit}
	if c.SetClock {
		opts.ClockSetTime = time.Now().UTC()
	}
	return opts, nil
}
