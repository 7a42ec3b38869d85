package config

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/comalice/sheetx"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Config{
		InitialState:   "CLOSED",
		QueueSize:      1000,
		SnapshotFormat: FormatJSON,
		EffectDelay:    50 * time.Millisecond,
		TickRate:       16 * time.Millisecond,
	}
	if cfg != want {
		t.Fatalf("defaults = %+v, want %+v", cfg, want)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SHEETX_INITIAL_STATE", "OPEN")
	t.Setenv("SHEETX_QUEUE_SIZE", "8")
	t.Setenv("SHEETX_SNAPSHOT_FORMAT", "yaml")
	t.Setenv("SHEETX_EFFECT_DELAY", "0s")
	t.Setenv("SHEETX_TICK_RATE", "5ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.InitialState != "OPEN" || cfg.QueueSize != 8 || cfg.SnapshotFormat != FormatYAML {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.EffectDelay != 0 || cfg.TickRate != 5*time.Millisecond {
		t.Errorf("durations = %v %v", cfg.EffectDelay, cfg.TickRate)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
		errIs   error
	}{
		{"bad int", "SHEETX_QUEUE_SIZE", "lots", "parse env:", nil},
		{"zero queue", "SHEETX_QUEUE_SIZE", "0", "queue size", nil},
		{"bad initial state", "SHEETX_INITIAL_STATE", "HALF", "", sheetx.ErrInvalidInitialState},
		{"bad format", "SHEETX_SNAPSHOT_FORMAT", "toml", "snapshot format", nil},
		{"negative delay", "SHEETX_EFFECT_DELAY", "-1s", "effect delay", nil},
		{"zero tick", "SHEETX_TICK_RATE", "0s", "tick rate", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.errIs != nil && !errors.Is(err, tt.errIs) {
				t.Errorf("err = %v, want %v", err, tt.errIs)
			}
			if tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestOptionsWiresSinks(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		InitialState:   "OPEN",
		QueueSize:      4,
		SnapshotDir:    filepath.Join(dir, "snapshots"),
		SnapshotFormat: FormatYAML,
		RegistryDB:     filepath.Join(dir, "registry.db"),
		TickRate:       time.Millisecond,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	opts, closeFn, err := cfg.Options(ctx, nil)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	defer closeFn()

	c, err := sheetx.New(nil, append(opts, sheetx.WithID("cfg"))...)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()
	if err := c.Open(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.AwaitState(ctx, "open"); err != nil {
		t.Fatal(err)
	}
	if got := c.Context().InitialState; got != sheetx.InitialOpen {
		t.Errorf("initialState = %q", got)
	}
}
