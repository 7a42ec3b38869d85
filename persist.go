package sheetx

import (
	"context"

	"github.com/comalice/sheetx/internal/core"
	"github.com/comalice/sheetx/internal/production"
)

type (
	Snapshot           = core.MachineSnapshot
	TransitionMetadata = core.MachineMetadata
	Persister          = core.Persister
	Publisher          = core.EventPublisher
	Registry           = core.Registry
	PublishedEvent     = production.PublishedEvent
)

var (
	ErrNotFound     = core.ErrNotFound
	ErrExists       = core.ErrExists
	ErrInvalidState = core.ErrInvalidState
)

// NewJSONPersister stores one JSON snapshot file per controller in dir.
func NewJSONPersister(dir string) (*production.JSONPersister, error) {
	return production.NewJSONPersister(dir)
}

// NewYAMLPersister stores one YAML snapshot file per controller in dir.
func NewYAMLPersister(dir string) (*production.YAMLPersister, error) {
	return production.NewYAMLPersister(dir)
}

// OpenSQLiteRegistry opens a versioned snapshot registry at path (":memory:" allowed).
func OpenSQLiteRegistry(ctx context.Context, path string) (*production.SQLiteRegistry, error) {
	return production.OpenSQLiteRegistry(ctx, path)
}

// NewChannelPublisher forwards transitions to ch, dropping them when ch is full.
func NewChannelPublisher(ch chan<- PublishedEvent) *production.ChannelPublisher {
	return production.NewChannelPublisher(ch)
}
