// Package scenario replays scripted overlay sessions against a controller
// backed by a simulated, delayed host and records a timed trace.
//
// A script is YAML:
//
//	name: drag then snap
//	initialState: CLOSED
//	effectDelay: 20ms
//	steps:
//	  - send: OPEN
//	  - await: open
//	  - send: DRAG
//	    repeat: 5
//	    every: 10ms
//	  - send: SNAP
//	    snap: {y: 120, velocity: 3, source: dragging}
//	  - await: open
//	  - expect: open
package scenario

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/comalice/sheetx"
	"github.com/comalice/sheetx/internal/core"
)

// DefaultTimeout bounds each await step unless the script sets one.
const DefaultTimeout = 5 * time.Second

// Script is a scripted overlay session.
type Script struct {
	Name         string        `yaml:"name"`
	InitialState string        `yaml:"initialState,omitempty"`
	EffectDelay  time.Duration `yaml:"effectDelay,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	// Fail lists effects that return an error whenever invoked.
	Fail  []string `yaml:"fail,omitempty"`
	Steps []Step   `yaml:"steps"`
}

// Step does exactly one of: send an event, await a state, wait, or expect
// the current state.
type Step struct {
	Send   string              `yaml:"send,omitempty"`
	Snap   *sheetx.SnapPayload `yaml:"snap,omitempty"`
	Repeat int                 `yaml:"repeat,omitempty"`
	Every  time.Duration       `yaml:"every,omitempty"`

	Await   string        `yaml:"await,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`

	Wait   time.Duration `yaml:"wait,omitempty"`
	Expect string        `yaml:"expect,omitempty"`
}

// Kind names what the step does.
func (s Step) Kind() string {
	switch {
	case s.Send != "":
		return "send"
	case s.Await != "":
		return "await"
	case s.Expect != "":
		return "expect"
	case s.Wait > 0:
		return "wait"
	}
	return ""
}

// Event builds the event a send step dispatches.
func (s Step) Event() sheetx.Event {
	if s.Send == sheetx.EventSnap {
		var p sheetx.SnapPayload
		if s.Snap != nil {
			p = *s.Snap
		}
		return sheetx.SnapEvent(p)
	}
	return sheetx.Event{Type: s.Send}
}

var ErrInvalidScript = errors.New("invalid scenario")

// Load reads and validates the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a YAML script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

var overlayChart = sync.OnceValue(func() *core.Chart {
	chart, err := core.Compile(sheetx.Chart())
	if err != nil {
		panic(err)
	}
	return chart
})

// Validate checks event names, state paths and effect names against the
// overlay chart.
func (s *Script) Validate() error {
	if s.InitialState != "" {
		if _, err := sheetx.ParseInitialState(s.InitialState); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidScript, err)
		}
	}
	if s.EffectDelay < 0 || s.Timeout < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidScript)
	}

	chart := overlayChart()
	effects := make(map[string]bool)
	for _, leaf := range chart.Leaves() {
		if inv := chart.State(leaf).Invoke; inv != "" {
			effects[inv] = true
		}
	}
	for _, name := range s.Fail {
		if !effects[name] {
			return fmt.Errorf("%w: unknown effect %q", ErrInvalidScript, name)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidScript)
	}
	for i, step := range s.Steps {
		if err := validateStep(chart, step); err != nil {
			return fmt.Errorf("%w: step %d: %v", ErrInvalidScript, i+1, err)
		}
	}
	return nil
}

func validateStep(chart *core.Chart, step Step) error {
	set := 0
	for _, b := range []bool{step.Send != "", step.Await != "", step.Expect != "", step.Wait > 0} {
		if b {
			set++
		}
	}
	if set != 1 {
		return errors.New("want exactly one of send, await, wait, expect")
	}
	switch step.Kind() {
	case "send":
		switch step.Send {
		case sheetx.EventOpen, sheetx.EventClose, sheetx.EventDrag, sheetx.EventResize, sheetx.EventSnap:
		default:
			return fmt.Errorf("unknown event %q", step.Send)
		}
		if step.Snap != nil && step.Send != sheetx.EventSnap {
			return fmt.Errorf("snap payload on %s", step.Send)
		}
		if step.Repeat < 0 || step.Every < 0 {
			return errors.New("negative repeat")
		}
	case "await":
		if chart.State(step.Await) == nil {
			return fmt.Errorf("unknown state %q", step.Await)
		}
	case "expect":
		if chart.State(step.Expect) == nil {
			return fmt.Errorf("unknown state %q", step.Expect)
		}
	}
	return nil
}
