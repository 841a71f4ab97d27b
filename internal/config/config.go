package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mandelsoft/handoff/pkg/admission"
)

// Config represents the configuration of a paritybuf run
type Config struct {
	Capacity   int      `yaml:"capacity"`    // ring capacity
	Processors int      `yaml:"processors"`  // actors running at the same time (0 = one per actor)
	PaceMinMS  int      `yaml:"pace_min_ms"` // minimum delay between two rounds of an actor
	PaceMaxMS  int      `yaml:"pace_max_ms"` // maximum delay between two rounds of an actor
	DurationS  int      `yaml:"duration_s"`  // run time in seconds
	StopS      int      `yaml:"stop_timeout_s"`
	Roles      []string `yaml:"roles"`     // producer-even, producer-odd, consumer-even, consumer-odd
	LogLevel   string   `yaml:"log_level"` // debug, info, warn, error
}

// Default returns the configuration used without a config file.
func Default() *Config {
	return &Config{
		Capacity:   21,
		Processors: 4,
		PaceMinMS:  10,
		PaceMaxMS:  20,
		DurationS:  5,
		StopS:      1,
		Roles: []string{
			admission.ProducerEven.String(),
			admission.ProducerOdd.String(),
			admission.ConsumerEven.String(),
			admission.ConsumerOdd.String(),
		},
		LogLevel: "info",
	}
}

// Load reads a YAML configuration file. Fields missing in the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	if cfg.Capacity <= 0 {
		return fmt.Errorf("capacity must be > 0")
	}
	if cfg.Processors < 0 {
		return fmt.Errorf("processors must be >= 0")
	}
	if cfg.PaceMinMS < 0 || cfg.PaceMaxMS < 0 {
		return fmt.Errorf("pacing must be >= 0")
	}
	if cfg.PaceMaxMS < cfg.PaceMinMS {
		return fmt.Errorf("pace_max_ms (%d) must be >= pace_min_ms (%d)", cfg.PaceMaxMS, cfg.PaceMinMS)
	}
	if cfg.DurationS <= 0 {
		return fmt.Errorf("duration_s must be > 0")
	}
	if cfg.StopS <= 0 {
		return fmt.Errorf("stop_timeout_s must be > 0")
	}
	if len(cfg.Roles) == 0 {
		return fmt.Errorf("at least one role is required")
	}
	if _, err := cfg.ParsedRoles(); err != nil {
		return err
	}
	if _, err := cfg.Level(); err != nil {
		return err
	}
	return nil
}

// ParsedRoles returns the configured roles.
func (c *Config) ParsedRoles() ([]admission.Role, error) {
	roles := make([]admission.Role, 0, len(c.Roles))
	for _, n := range c.Roles {
		r, err := admission.ParseRole(n)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return l, nil
}

func (c *Config) Duration() time.Duration {
	return time.Duration(c.DurationS) * time.Second
}

func (c *Config) StopTimeout() time.Duration {
	return time.Duration(c.StopS) * time.Second
}

// Options converts the configuration into admission options.
func (c *Config) Options(logger *slog.Logger) admission.Options {
	return admission.Options{
		Capacity:   c.Capacity,
		Processors: c.Processors,
		PaceMin:    time.Duration(c.PaceMinMS) * time.Millisecond,
		PaceMax:    time.Duration(c.PaceMaxMS) * time.Millisecond,
		Logger:     logger,
	}
}
