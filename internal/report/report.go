// Package report collects what a harness run observed: the ordered event
// trace, the drained coordinator output, and the results of any output
// checks.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

var (
	green     = color.New(color.FgGreen).SprintFunc()
	red       = color.New(color.FgRed).SprintFunc()
	bold      = color.New(color.Bold).SprintFunc()
	checkMark = green("✓")
	crossMark = red("✗")
)

// EventKind classifies one orchestration step.
type EventKind string

const (
	EventSpawn  EventKind = "spawn"
	EventSignal EventKind = "signal"
	EventDrain  EventKind = "drain"
)

// Event is one recorded orchestration step.
type Event struct {
	Kind   EventKind `json:"kind"`
	Target string    `json:"target"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// CheckResult is the outcome of one output check.
type CheckResult struct {
	Desc   string `json:"desc"`
	Passed bool   `json:"passed"`
}

// Report is the full record of one harness run.
type Report struct {
	RunID      string    `json:"run_id"`
	Scenario   string    `json:"scenario"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Events []Event  `json:"events"`
	Lines  []string `json:"lines"`

	// DrainTimedOut is set when the drain deadline passed with the
	// coordinator still holding its output stream open; Lines then holds
	// the partial output read so far.
	DrainTimedOut bool `json:"drain_timed_out"`

	Checks []CheckResult `json:"checks,omitempty"`

	mu sync.Mutex
}

// New creates a report for a run of the named scenario.
func New(scenario string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Scenario:  scenario,
		StartedAt: time.Now(),
		Events:    make([]Event, 0),
		Lines:     make([]string, 0),
	}
}

// Record appends one event to the trace.
func (r *Report) Record(kind EventKind, target, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Events = append(r.Events, Event{
		Kind:   kind,
		Target: target,
		Detail: detail,
		At:     time.Now(),
	})
}

// Finish stamps the end of the run.
func (r *Report) Finish() {
	r.FinishedAt = time.Now()
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond)
}

// ChecksPassed reports whether every output check passed.
func (r *Report) ChecksPassed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}

	return true
}

// WriteText emits the drained coordinator lines verbatim, in original
// order, followed by a short status trailer.
func (r *Report) WriteText(w io.Writer) error {
	for _, line := range r.Lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)

	if r.DrainTimedOut {
		fmt.Fprintf(w, "%s drain timed out, output above is partial\n", crossMark)
	}

	for _, c := range r.Checks {
		mark := checkMark
		if !c.Passed {
			mark = crossMark
		}
		fmt.Fprintf(w, " %s %s\n", mark, c.Desc)
	}

	status := bold("COMPLETED")
	if !r.ChecksPassed() {
		status = bold("FAILED")
	}
	fmt.Fprintf(w, "%s run %s (took %s)\n", status, r.RunID, r.Duration())

	return nil
}

// WriteJSON emits the full report as an indented JSON document.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
