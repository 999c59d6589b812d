package core

import (
	"fmt"
)

// Status is a stage in the application pipeline
type Status string

// Pipeline statuses in canonical order, followed by the terminal states
const (
	StatusNew       Status = "new"
	StatusApplied   Status = "applied"
	StatusRecruiter Status = "recruiter"
	StatusPhone     Status = "phone"
	StatusTechnical Status = "technical"
	StatusOnsite    Status = "onsite"
	StatusOffer     Status = "offer"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"

	// StatusNone means "no status" (no classification, no update)
	StatusNone Status = ""
)

// pipeline is the canonical forward ordering. Terminal states are not part of
// the ordering; they are absorbing and reachable from any non-terminal state.
var pipeline = []Status{
	StatusNew,
	StatusApplied,
	StatusRecruiter,
	StatusPhone,
	StatusTechnical,
	StatusOnsite,
	StatusOffer,
	StatusAccepted,
}

var pipelineIndex = func() map[Status]int {
	m := make(map[Status]int, len(pipeline))
	for i, s := range pipeline {
		m[s] = i
	}
	return m
}()

// Pipeline returns the canonical pipeline ordering (terminals excluded)
func Pipeline() []Status {
	out := make([]Status, len(pipeline))
	copy(out, pipeline)
	return out
}

// AllStatuses returns every valid status, pipeline order first then terminals
func AllStatuses() []Status {
	return append(Pipeline(), StatusRejected, StatusWithdrawn)
}

// IsTerminal reports whether the status is an absorbing terminal state
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusWithdrawn
}

// PipelineIndex returns the position of a non-terminal status in the canonical
// ordering. The second return value is false for terminals and unknown statuses.
func (s Status) PipelineIndex() (int, bool) {
	i, ok := pipelineIndex[s]
	return i, ok
}

// IsValid reports whether the status is a member of the fixed pipeline
// (including terminals)
func (s Status) IsValid() bool {
	if _, ok := pipelineIndex[s]; ok {
		return true
	}
	return s.IsTerminal()
}

// ParseStatus validates a raw status string against the fixed pipeline
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return StatusNone, fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// Advance decides whether a classified status should overwrite the current
// one. It returns the new status and true when an update should happen, or
// StatusNone and false for a no-op. The rules are:
//
//   - no classification: no update
//   - current is terminal: never update (closed applications stay closed)
//   - classified is terminal: always update (a rejection overrides progress)
//   - otherwise update only when the classified status is strictly further
//     along the pipeline than the current one (forward-only)
func Advance(current, classified Status) (Status, bool) {
	if classified == StatusNone {
		return StatusNone, false
	}
	if current.IsTerminal() {
		return StatusNone, false
	}
	if classified.IsTerminal() {
		return classified, true
	}
	curIdx, ok := current.PipelineIndex()
	if !ok {
		// Current status is outside the known pipeline (manual edit); only a
		// terminal classification may touch it, and that was handled above.
		return StatusNone, false
	}
	newIdx, ok := classified.PipelineIndex()
	if !ok {
		return StatusNone, false
	}
	if newIdx > curIdx {
		return classified, true
	}
	return StatusNone, false
}
