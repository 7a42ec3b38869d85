package sheetx

import (
	"fmt"
)

// TopPhase is the top-level state of the overlay.
type TopPhase int

const (
	PhaseClosed TopPhase = iota
	PhaseOpening
	PhaseOpen
	PhaseDragging
	PhaseSnapping
	PhaseResizing
	PhaseClosing
)

var topNames = [...]string{"closed", "opening", "open", "dragging", "snapping", "resizing", "closing"}

func (p TopPhase) String() string {
	if p < 0 || int(p) >= len(topNames) {
		return fmt.Sprintf("TopPhase(%d)", int(p))
	}
	return topNames[p]
}

// SubPhase is the position inside a compound phase. Atomic phases use SubNone.
type SubPhase int

const (
	SubNone SubPhase = iota
	SubStart
	SubTransition
	SubImmediatelyOpen
	SubImmediatelyActivating
	SubSmoothlyVisuallyHidden
	SubSmoothlyActivating
	SubSmoothlyOpen
	SubSnappingSmoothly
	SubResizingSmoothly
	SubDeactivating
	SubClosingSmoothly
	SubEnd
	SubDone
)

var subNames = [...]string{
	"",
	"start",
	"transition",
	"immediately.open",
	"immediately.activating",
	"smoothly.visuallyHidden",
	"smoothly.activating",
	"smoothly.open",
	"snappingSmoothly",
	"resizingSmoothly",
	"deactivating",
	"closingSmoothly",
	"end",
	"done",
}

func (s SubPhase) String() string {
	if s < 0 || int(s) >= len(subNames) {
		return fmt.Sprintf("SubPhase(%d)", int(s))
	}
	return subNames[s]
}

// Phase is the typed view of the active leaf.
type Phase struct {
	Top TopPhase
	Sub SubPhase
}

// phaseLeaves lists every leaf of the overlay chart.
var phaseLeaves = []Phase{
	{PhaseClosed, SubNone},
	{PhaseOpening, SubStart},
	{PhaseOpening, SubTransition},
	{PhaseOpening, SubImmediatelyOpen},
	{PhaseOpening, SubImmediatelyActivating},
	{PhaseOpening, SubSmoothlyVisuallyHidden},
	{PhaseOpening, SubSmoothlyActivating},
	{PhaseOpening, SubSmoothlyOpen},
	{PhaseOpening, SubEnd},
	{PhaseOpening, SubDone},
	{PhaseOpen, SubNone},
	{PhaseDragging, SubNone},
	{PhaseSnapping, SubStart},
	{PhaseSnapping, SubSnappingSmoothly},
	{PhaseSnapping, SubEnd},
	{PhaseSnapping, SubDone},
	{PhaseResizing, SubStart},
	{PhaseResizing, SubResizingSmoothly},
	{PhaseResizing, SubEnd},
	{PhaseResizing, SubDone},
	{PhaseClosing, SubStart},
	{PhaseClosing, SubDeactivating},
	{PhaseClosing, SubClosingSmoothly},
	{PhaseClosing, SubEnd},
	{PhaseClosing, SubDone},
}

var phaseByPath = func() map[string]Phase {
	m := make(map[string]Phase, len(phaseLeaves))
	for _, p := range phaseLeaves {
		m[p.String()] = p
	}
	return m
}()

// ParsePhase converts a leaf path such as "opening.smoothly.open".
func ParsePhase(path string) (Phase, error) {
	p, ok := phaseByPath[path]
	if !ok {
		return Phase{}, fmt.Errorf("unknown overlay phase %q", path)
	}
	return p, nil
}

// String returns the leaf path.
func (p Phase) String() string {
	if p.Sub == SubNone {
		return p.Top.String()
	}
	return p.Top.String() + "." + p.Sub.String()
}

// Resting reports whether the controller can stay in p without a pending effect.
func (p Phase) Resting() bool {
	return p.Sub == SubNone
}

// Transient reports whether p is resolved within the same event (choice or final).
func (p Phase) Transient() bool {
	return p.Sub == SubTransition || p.Sub == SubDone
}
