package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sandbox-radar/radar-sim/sim/interp"
)

const (
	// DefaultInterval is the wall time between authoritative steps.
	DefaultInterval = 3 * time.Second
	// DefaultFrameRate is the render target in ticks per second.
	DefaultFrameRate = 60.0
	// DefaultMaxAgents is how many agents a snapshot keeps.
	DefaultMaxAgents = 4096
)

// DefaultShape is the production grid: 17 variables over 200x200x30 cells.
var DefaultShape = Shape{NX: 200, NY: 200, NZ: 30, NVars: 17}

// Config groups the engine parameters. It is loadable from YAML; absent keys
// keep their DefaultConfig values.
type Config struct {
	Shape     Shape         `yaml:"grid"`       // grid layout, fixed for the engine's lifetime
	Interval  time.Duration `yaml:"interval"`   // wall time between simulation steps
	FrameRate float64       `yaml:"frame_rate"` // render target in Hz
	Pairing   string        `yaml:"pairing"`    // "index" (default) or "id"
	MaxAgents int           `yaml:"max_agents"` // agents beyond this are dropped at publish; 0 disables the cap
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Shape:     DefaultShape,
		Interval:  DefaultInterval,
		FrameRate: DefaultFrameRate,
		Pairing:   interp.PairByIndex.String(),
		MaxAgents: DefaultMaxAgents,
	}
}

// Validate checks ranges and names.
func (c Config) Validate() error {
	if err := c.Shape.Validate(); err != nil {
		return err
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", c.Interval)
	}
	if !(c.FrameRate > 0) || math.IsInf(c.FrameRate, 0) {
		return fmt.Errorf("frame_rate must be positive and finite, got %v", c.FrameRate)
	}
	// the period must fit a time.Duration and be at least one nanosecond
	if p := float64(time.Second) / c.FrameRate; p >= math.MaxInt64 || p < 1 {
		return fmt.Errorf("frame_rate %v gives an unrepresentable frame period", c.FrameRate)
	}
	if c.MaxAgents < 0 {
		return fmt.Errorf("max_agents must be non-negative, got %d", c.MaxAgents)
	}
	if _, err := interp.ParsePairing(c.Pairing); err != nil {
		return err
	}
	return nil
}

// FramePeriod is the render tick budget, 1/FrameRate.
func (c Config) FramePeriod() time.Duration {
	return time.Duration(float64(time.Second) / c.FrameRate)
}

// PairingMode returns the parsed pairing, falling back to PairByIndex for an
// invalid name. Call Validate first to surface the error.
func (c Config) PairingMode() interp.Pairing {
	p, _ := interp.ParsePairing(c.Pairing)
	return p
}

// LoadConfig reads a YAML config file on top of DefaultConfig. Unknown keys are
// rejected so typos fail loudly.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading engine config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing engine config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid engine config %s: %w", path, err)
	}
	return cfg, nil
}
