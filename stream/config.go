package stream

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/trvl"
)

// Config describes one outgoing depth stream. Zero fields take defaults.
//
//	device: 1
//	width: 640
//	height: 576
//	fps: 30
//	method: temporal-rvl
//	change_threshold: 10
//	invalid_threshold: 2
//	keyframe_ttl: 10s
type Config struct {
	Device uint16 `yaml:"device"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`

	// FPS is the capture rate; with KeyframeInterval unset one keyframe is
	// sent per second.
	FPS              int    `yaml:"fps"`
	KeyframeInterval int    `yaml:"keyframe_interval"`
	Method           string `yaml:"method"`

	ChangeThreshold  uint16 `yaml:"change_threshold"`
	InvalidThreshold uint32 `yaml:"invalid_threshold"`

	// KeyframeTTL bounds how long a cached keyframe may serve late joiners.
	KeyframeTTL time.Duration `yaml:"keyframe_ttl"`
}

// ParseConfig reads a YAML stream config, applies defaults and validates it.
// Unknown keys are rejected.
func ParseConfig(b []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("stream: parse config: %w", err)
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	c.FPS = coalesce(c.FPS, 30)
	c.KeyframeInterval = coalesce(c.KeyframeInterval, c.FPS)
	c.Method = coalesce(c.Method, MethodTemporalRVL.String())
	c.ChangeThreshold = coalesce(c.ChangeThreshold, trvl.DefaultChangeThreshold)
	c.InvalidThreshold = coalesce(c.InvalidThreshold, trvl.DefaultInvalidThreshold)
	c.KeyframeTTL = coalesce(c.KeyframeTTL, defaultKeyframeTTL)
	return c
}

func (c Config) validate() error {
	if err := validateSize(c.Width, c.Height); err != nil {
		return err
	}
	if c.FPS < 0 || c.KeyframeInterval < 0 {
		return fmt.Errorf("%w: fps %d, keyframe interval %d", trvl.ErrInvalidConfig, c.FPS, c.KeyframeInterval)
	}
	if _, err := ParseMethod(c.Method); err != nil {
		return fmt.Errorf("%w: %w", trvl.ErrInvalidConfig, err)
	}
	return nil
}

func validateSize(width, height int) error {
	if width <= 0 || height <= 0 || width > math.MaxUint16 || height > math.MaxUint16 {
		return fmt.Errorf("%w: frame %dx%d", trvl.ErrInvalidConfig, width, height)
	}
	return nil
}
