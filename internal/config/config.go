// Package config loads sheetctl process configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/comalice/sheetx"
)

// Snapshot file formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config is the sheetctl environment. CLI flags override individual fields.
type Config struct {
	InitialState   string        `env:"SHEETX_INITIAL_STATE" envDefault:"CLOSED"`
	QueueSize      int           `env:"SHEETX_QUEUE_SIZE" envDefault:"1000"`
	SnapshotDir    string        `env:"SHEETX_SNAPSHOT_DIR"`
	SnapshotFormat string        `env:"SHEETX_SNAPSHOT_FORMAT" envDefault:"json"`
	RegistryDB     string        `env:"SHEETX_REGISTRY_DB"`
	OTelEndpoint   string        `env:"SHEETX_OTEL_ENDPOINT"`
	EffectDelay    time.Duration `env:"SHEETX_EFFECT_DELAY" envDefault:"50ms"`
	TickRate       time.Duration `env:"SHEETX_TICK_RATE" envDefault:"16ms"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if _, err := sheetx.ParseInitialState(c.InitialState); err != nil {
		return err
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue size must be positive, got %d", c.QueueSize)
	}
	switch c.SnapshotFormat {
	case FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("snapshot format %q: want %s or %s", c.SnapshotFormat, FormatJSON, FormatYAML)
	}
	if c.EffectDelay < 0 {
		return errors.New("effect delay must not be negative")
	}
	if c.TickRate <= 0 {
		return errors.New("tick rate must be positive")
	}
	return nil
}

// Options builds controller options for the configured sinks. The returned
// close func releases the registry database, if any.
func (c Config) Options(ctx context.Context, logger *log.Logger) ([]sheetx.Option, func() error, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	initial, err := sheetx.ParseInitialState(c.InitialState)
	if err != nil {
		return nil, nil, err
	}
	opts := []sheetx.Option{
		sheetx.WithInitialState(initial),
		sheetx.WithQueueSize(c.QueueSize),
		sheetx.WithLogger(logger),
	}
	closer := func() error { return nil }

	p, err := c.Persister()
	if err != nil {
		return nil, nil, err
	}
	if p != nil {
		opts = append(opts, sheetx.WithPersister(p))
	}

	if c.RegistryDB != "" {
		reg, err := sheetx.OpenSQLiteRegistry(ctx, c.RegistryDB)
		if err != nil {
			return nil, nil, fmt.Errorf("registry: %w", err)
		}
		opts = append(opts, sheetx.WithRegistry(reg))
		closer = reg.Close
	}
	return opts, closer, nil
}

// Persister returns the snapshot store for SnapshotDir, or nil when unset.
func (c Config) Persister() (sheetx.Persister, error) {
	if c.SnapshotDir == "" {
		return nil, nil
	}
	var (
		p   sheetx.Persister
		err error
	)
	if c.SnapshotFormat == FormatYAML {
		p, err = sheetx.NewYAMLPersister(c.SnapshotDir)
	} else {
		p, err = sheetx.NewJSONPersister(c.SnapshotDir)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot dir: %w", err)
	}
	return p, nil
}
