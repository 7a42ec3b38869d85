// Package benchmarks provides shared helpers for overlay controller benchmarks.
package benchmarks

import (
	"context"
	"io"
	"log"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/comalice/sheetx"
)

var quiet = log.New(io.Discard, "", 0)

// StartController starts a controller backed by NopHost. Stop runs at cleanup.
func StartController(tb testing.TB, opts ...sheetx.Option) *sheetx.Controller {
	tb.Helper()
	c, err := sheetx.New(nil, append([]sheetx.Option{sheetx.WithLogger(quiet)}, opts...)...)
	if err != nil {
		tb.Fatal(err)
	}
	if err := c.Start(context.Background()); err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() { _ = c.Stop() })
	return c
}

// OpenController starts a controller and waits until it is open.
func OpenController(tb testing.TB, opts ...sheetx.Option) *sheetx.Controller {
	tb.Helper()
	c := StartController(tb, opts...)
	ctx := context.Background()
	if err := c.Open(ctx); err != nil {
		tb.Fatal(err)
	}
	if err := c.AwaitState(ctx, "open"); err != nil {
		tb.Fatal(err)
	}
	return c
}

// DragRelease runs one drag-then-snap gesture and waits for the sheet to settle.
func DragRelease(ctx context.Context, c *sheetx.Controller, y float64) error {
	if err := c.Drag(ctx); err != nil {
		return err
	}
	if err := c.Snap(ctx, sheetx.SnapPayload{Y: y, Source: sheetx.SnapSourceDragging}); err != nil {
		return err
	}
	return c.AwaitState(ctx, "open")
}

// SnapshotYAML marshals the controller's current snapshot.
func SnapshotYAML(c *sheetx.Controller) []byte {
	data, err := yaml.Marshal(c.Snapshot())
	if err != nil {
		panic(err)
	}
	return data
}
