// Package config describes how a double buffer polls for and retires
// snapshots, and keeps a host-owned registry of named configurations.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is read once when a buffer is created.
type Config struct {
	// PollInterval is how often the change-signal path is checked.
	PollInterval time.Duration
	// GracePeriod is how long a superseded snapshot is kept after a switch.
	// Zero retires it immediately.
	GracePeriod time.Duration
	// ChangePath is the change-signal path. Only its mtime matters.
	ChangePath string
	// OutcomePath receives a single marker byte after each reload attempt.
	OutcomePath string
}

func (c Config) Validate() error {
	errs := c.timingErrors()
	if c.ChangePath == "" {
		errs = append(errs, errors.New("change path is required"))
	}
	if c.OutcomePath == "" {
		errs = append(errs, errors.New("outcome path is required"))
	}
	if c.ChangePath != "" && c.ChangePath == c.OutcomePath {
		errs = append(errs, fmt.Errorf("change path and outcome path must differ, both are %s", c.ChangePath))
	}
	return joinErrors(errs)
}

// ValidateTimings checks only the poll interval and grace period, for
// buffers that are not driven by the signal paths.
func (c Config) ValidateTimings() error {
	return joinErrors(c.timingErrors())
}

func (c Config) timingErrors() []error {
	var errs []error
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %s", c.PollInterval))
	}
	if c.GracePeriod < 0 {
		errs = append(errs, fmt.Errorf("grace period must not be negative, got %s", c.GracePeriod))
	}
	return errs
}

func joinErrors(errs []error) error {
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Defaults fill in registry entries that leave timing unspecified.
type Defaults struct {
	PollInterval time.Duration `envconfig:"MONITOR_INTERVAL" default:"3s"`
	GracePeriod  time.Duration `envconfig:"OLD_BUF_LIFE_TIME" default:"30s"`
}

// EnvPrefix is prepended to the variable names read by LoadDefaults, for
// example DOUBLEBUFFER_MONITOR_INTERVAL.
const EnvPrefix = "DOUBLEBUFFER"

func LoadDefaults() (Defaults, error) {
	var d Defaults
	if err := envconfig.Process(EnvPrefix, &d); err != nil {
		return Defaults{}, fmt.Errorf("unable to load defaults: %w", err)
	}
	return d, nil
}
