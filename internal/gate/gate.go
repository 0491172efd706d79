// Package gate implements the per-trial rule that keeps the Continue action
// disabled until every response control has been touched.
package gate

import (
	"errors"
	"fmt"
)

// State of a trial gate. Unlocked is terminal.
type State int

const (
	Locked State = iota
	Unlocked
)

func (s State) String() string {
	if s == Unlocked {
		return "unlocked"
	}
	return "locked"
}

// Event is a browser interaction observed on a control.
type Event string

const (
	EventChange      Event = "change"
	EventPointerDown Event = "pointerdown"
	EventKeyDown     Event = "keydown"
	EventFocus       Event = "focus"
)

var (
	ErrUnknownControl = errors.New("unknown control")
	ErrUnknownEvent   = errors.New("unknown event")
)

// Qualifies reports whether an event counts as touching a control.
func (e Event) Qualifies() bool {
	switch e {
	case EventChange, EventPointerDown, EventKeyDown, EventFocus:
		return true
	}
	return false
}

// Gate tracks which controls of one trial have been touched. It is not safe
// for concurrent use; the owner serializes access.
type Gate struct {
	touched   []bool
	remaining int
}

// New returns a locked gate over n controls.
func New(n int) *Gate {
	return &Gate{touched: make([]bool, n), remaining: n}
}

// Observe records an interaction. A control stays touched for the rest of the
// trial, so repeated events have no effect.
func (g *Gate) Observe(control int, ev Event) (State, error) {
	if control < 0 || control >= len(g.touched) {
		return g.State(), fmt.Errorf("%w: %d", ErrUnknownControl, control)
	}
	if !ev.Qualifies() {
		return g.State(), fmt.Errorf("%w: %q", ErrUnknownEvent, ev)
	}
	if !g.touched[control] {
		g.touched[control] = true
		g.remaining--
	}
	return g.State(), nil
}

func (g *Gate) State() State {
	if g.remaining == 0 {
		return Unlocked
	}
	return Locked
}

func (g *Gate) Unlocked() bool {
	return g.State() == Unlocked
}

// Touched returns a copy of the per-control touched flags.
func (g *Gate) Touched() []bool {
	out := make([]bool, len(g.touched))
	copy(out, g.touched)
	return out
}
