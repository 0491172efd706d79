// Package runner drives a participant through a timeline one step at a time,
// enforces the trial gate and records what each step produced.
package runner

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"facerate-go/internal/gate"
	"facerate-go/internal/timeline"
)

// Controls is the number of rating sliders on a trial.
const Controls = 4

const (
	MinRating = 1
	MaxRating = 7
)

var (
	ErrGateLocked      = errors.New("not every rating has been touched")
	ErrInvalidResponse = errors.New("invalid response")
	ErrNotATrial       = errors.New("current step is not a rating trial")
	ErrFinished        = errors.New("run already finished")
)

// Response is what the participant submits on a rating trial.
type Response struct {
	Ratings [Controls]int
	// RTMillis is the client-measured reaction time; negative means unknown.
	RTMillis int64
}

// Record is the data a finished step leaves behind.
type Record struct {
	Index      int                       `json:"trial_index"`
	Kind       timeline.Kind             `json:"trial_type"`
	Name       string                    `json:"name"`
	Trial      *timeline.TrialDefinition `json:"trial,omitempty"`
	RTMillis   int64                     `json:"rt"`
	Ratings    []int                     `json:"ratings,omitempty"`
	FinishedAt time.Time                 `json:"finished_at"`
}

// Hooks are called after the run lock is released. OnStepFinish runs once
// per finished step; OnFinish runs once when the closing step is reached.
type Hooks struct {
	OnStepFinish func(Record)
	OnFinish     func(*Data) error
}

// Outcome describes the step reached by Advance.
type Outcome struct {
	Step      timeline.Step
	Index     int
	Done      bool
	FinishErr error
}

// Run is one participant's pass through a timeline.
type Run struct {
	ID  string
	Doc timeline.Document

	mu         sync.Mutex
	hooks      Hooks
	cursor     int
	gate       *gate.Gate
	startedAt  time.Time
	lastActive time.Time
	finished   bool
	data       *Data
	now        func() time.Time
}

// New starts a run at the first step of doc.
func New(id string, doc timeline.Document, hooks Hooks) *Run {
	r := &Run{ID: id, Doc: doc, hooks: hooks, data: &Data{}, now: time.Now}
	r.enter(0)
	return r
}

func (r *Run) enter(i int) {
	r.cursor = i
	r.startedAt = r.now()
	r.lastActive = r.startedAt
	r.gate = nil
	if i < len(r.Doc.Steps) && r.Doc.Steps[i].Kind == timeline.KindRating {
		r.gate = gate.New(Controls)
	}
}

// Current returns the step the participant is on and its index.
func (r *Run) Current() (timeline.Step, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Doc.Steps[r.cursor], r.cursor
}

// Finished reports whether the closing step has been reached.
func (r *Run) Finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

// LastActive is the time of the last interaction with the run.
func (r *Run) LastActive() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActive
}

// Data exposes the records collected so far.
func (r *Run) Data() *Data {
	return r.data
}

// Observe forwards an interaction to the current trial's gate.
func (r *Run) Observe(control int, ev gate.Event) (gate.State, []bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gate == nil {
		return gate.Locked, nil, ErrNotATrial
	}
	r.lastActive = r.now()
	state, err := r.gate.Observe(control, ev)
	return state, r.gate.Touched(), err
}

// Advance finishes the current step and moves to the next one. resp is
// required on rating trials and ignored elsewhere.
func (r *Run) Advance(resp *Response) (Outcome, error) {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return Outcome{}, ErrFinished
	}

	step := r.Doc.Steps[r.cursor]
	now := r.now()
	rec := Record{
		Index:      r.cursor,
		Kind:       step.Kind,
		Name:       step.Name,
		Trial:      step.Trial,
		RTMillis:   now.Sub(r.startedAt).Milliseconds(),
		FinishedAt: now,
	}

	if step.Kind == timeline.KindRating {
		if !r.gate.Unlocked() {
			r.mu.Unlock()
			return Outcome{}, ErrGateLocked
		}
		if err := validate(resp); err != nil {
			r.mu.Unlock()
			return Outcome{}, err
		}
		rec.Ratings = append([]int(nil), resp.Ratings[:]...)
		if resp.RTMillis >= 0 {
			rec.RTMillis = resp.RTMillis
		}
	}

	r.data.add(rec)
	r.enter(r.cursor + 1)
	next := r.Doc.Steps[r.cursor]
	out := Outcome{Step: next, Index: r.cursor}
	if next.Kind == timeline.KindClosing || r.cursor == len(r.Doc.Steps)-1 {
		r.finished = true
		out.Done = true
	}
	r.mu.Unlock()

	if r.hooks.OnStepFinish != nil {
		r.hooks.OnStepFinish(rec)
	}
	if out.Done && r.hooks.OnFinish != nil {
		out.FinishErr = r.hooks.OnFinish(r.data)
	}
	return out, nil
}

func validate(resp *Response) error {
	if resp == nil {
		return fmt.Errorf("%w: missing ratings", ErrInvalidResponse)
	}
	for i, v := range resp.Ratings {
		if v < MinRating || v > MaxRating {
			return fmt.Errorf("%w: Q%d=%d outside %d..%d", ErrInvalidResponse, i+1, v, MinRating, MaxRating)
		}
	}
	return nil
}
