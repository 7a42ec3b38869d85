package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comalice/sheetx"
	"github.com/comalice/sheetx/internal/extensibility"
	"github.com/comalice/sheetx/internal/primitives"
)

// ErrExpectation is returned by Run when an expect step did not hold.
var ErrExpectation = errors.New("scenario expectation failed")

// Result is the outcome of a run.
type Result struct {
	Name     string
	Trace    []Entry
	Final    string
	Failures []string
}

// Passed reports whether every expect step held.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// Run replays s against a fresh controller with a SimHost. Caller options
// apply first, so the script's initialState and the trace wiring win. delay
// is the effect delay used when the script sets none.
func Run(ctx context.Context, s *Script, delay time.Duration, opts ...sheetx.Option) (*Result, error) {
	rec := newRecorder()
	if s.EffectDelay > 0 {
		delay = s.EffectDelay
	}
	host := &SimHost{Delay: delay, Fail: failSet(s.Fail), rec: rec}

	transitions := make(chan sheetx.PublishedEvent, 256)
	pub := sheetx.NewChannelPublisher(transitions)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for pe := range transitions {
			rec.add(KindState, pe.Metadata.Transition, fmt.Sprintf("on %s", pe.Event.Type))
		}
	}()
	defer func() {
		pub.Close()
		<-drained
	}()

	opts = append(opts,
		sheetx.WithPublisher(pub),
		sheetx.WithErrorHandler(func(err error) { rec.add(KindError, "controller", err.Error()) }),
	)
	if s.InitialState != "" {
		initial, err := sheetx.ParseInitialState(s.InitialState)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sheetx.WithInitialState(initial))
	}
	c, err := sheetx.New(host, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		return nil, err
	}

	res := &Result{Name: s.Name}
	runErr := runSteps(ctx, c, s, rec, res)
	res.Final = c.State()
	if err := c.Stop(); err != nil && runErr == nil {
		runErr = err
	}
	pub.Close()
	<-drained
	res.Trace = rec.snapshot()

	if runErr != nil {
		return res, runErr
	}
	if !res.Passed() {
		return res, fmt.Errorf("%w: %d failed", ErrExpectation, len(res.Failures))
	}
	return res, nil
}

func runSteps(ctx context.Context, c *sheetx.Controller, s *Script, rec *recorder, res *Result) error {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	for i, step := range s.Steps {
		var err error
		switch step.Kind() {
		case "send":
			err = send(ctx, c, step, rec)
		case "await":
			t := timeout
			if step.Timeout > 0 {
				t = step.Timeout
			}
			actx, cancel := context.WithTimeout(ctx, t)
			err = c.AwaitState(actx, step.Await)
			cancel()
		case "wait":
			select {
			case <-time.After(step.Wait):
			case <-ctx.Done():
				err = ctx.Err()
			}
		case "expect":
			if got := c.State(); !c.Matches(step.Expect) {
				msg := fmt.Sprintf("step %d: expected %s, in %s", i+1, step.Expect, got)
				res.Failures = append(res.Failures, msg)
				rec.add(KindExpect, "FAIL", msg)
			} else {
				rec.add(KindExpect, "ok", step.Expect)
			}
		}
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Kind(), err)
		}
	}
	return nil
}

// send dispatches a send step. A repeated step with an interval is fed
// through a timer source, like a live gesture stream.
func send(ctx context.Context, c *sheetx.Controller, step Step, rec *recorder) error {
	evt := step.Event()
	n := step.Repeat
	if n == 0 {
		n = 1
	}
	dispatch := func(e sheetx.Event) error {
		rec.add(KindSend, e.Type, "")
		return c.Dispatch(ctx, e)
	}

	if n == 1 || step.Every == 0 {
		for range n {
			if err := dispatch(evt); err != nil {
				return err
			}
		}
		return nil
	}

	src := extensibility.NewTimerEventSource(step.Every, n, func(int) primitives.Event { return evt })
	defer src.Stop()
	for {
		select {
		case e, ok := <-src.Events():
			if !ok {
				return nil
			}
			if err := dispatch(e); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
