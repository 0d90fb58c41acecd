package capture

import (
	"errors"
	"time"
)

// Config tunes arming, capture and storage.
type Config struct {
	// ProximityArming waits for the proximity sensor before arming the
	// impact detector.
	ProximityArming bool `yaml:"proximity_arming"`
	// ProximityThreshold must be exceeded to pass WAIT_PROXIMITY.
	ProximityThreshold uint16 `yaml:"proximity_threshold"`
	ProximityPolls     int    `yaml:"proximity_polls"`
	// ImpactThreshold in milli-g must be reached on any axis.
	ImpactThreshold int32         `yaml:"impact_threshold_mg"`
	ImpactPoll      time.Duration `yaml:"impact_poll"`
	ImpactPolls     int           `yaml:"impact_polls"`
	// Window is the capture duration after the trigger.
	Window time.Duration `yaml:"window"`
	// Capacity is the maximum number of samples kept per episode.
	Capacity int `yaml:"capacity"`
	// CapturePolls bounds the acquisitions while waiting for the window.
	CapturePolls int `yaml:"capture_polls"`
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		ProximityArming:    true,
		ProximityThreshold: 10,
		ProximityPolls:     0,
		ImpactThreshold:    30000,
		ImpactPoll:         500 * time.Millisecond,
		ImpactPolls:        0,
		Window:             500 * time.Millisecond,
		Capacity:           250,
		CapturePolls:       10000000,
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return errors.New("capacity must be positive")
	}
	if c.Window <= 0 {
		return errors.New("capture window must be positive")
	}
	if c.ImpactThreshold <= 0 {
		return errors.New("impact threshold must be positive")
	}
	return nil
}
