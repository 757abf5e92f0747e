package ingest

import (
	"fmt"
	"strings"
	"time"
)

// State is a step of the per-item pipeline.
type State string

const (
	StateStart        State = "START"
	StateDedupChecked State = "DEDUP_CHECKED"
	StateValidated    State = "VALIDATED"
	StateResolved     State = "RESOLVED"
	StateTranscoded   State = "TRANSCODED"
	StatePublished    State = "PUBLISHED"
	StatePersisted    State = "PERSISTED"
	StateDone         State = "DONE"
	StateSkipped      State = "SKIPPED"
	StateFailed       State = "FAILED"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateSkipped || s == StateFailed
}

// next lists the forward transition out of each non-terminal state. FAILED
// is reachable from all of them and SKIPPED only from DEDUP_CHECKED.
var next = map[State]State{
	StateStart:        StateDedupChecked,
	StateDedupChecked: StateValidated,
	StateValidated:    StateResolved,
	StateResolved:     StateTranscoded,
	StateTranscoded:   StatePublished,
	StatePublished:    StatePersisted,
	StatePersisted:    StateDone,
}

// CanTransition reports whether from → to is a legal edge.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	switch to {
	case StateFailed:
		return true
	case StateSkipped:
		return from == StateDedupChecked
	}
	return next[from] == to
}

// tracker walks one item through the state machine and records the trail.
type tracker struct {
	trail []State
}

func newTracker() *tracker {
	return &tracker{trail: []State{StateStart}}
}

func (t *tracker) current() State {
	return t.trail[len(t.trail)-1]
}

// advance moves to the given state. An illegal edge is a programming error.
func (t *tracker) advance(to State) {
	from := t.current()
	if !CanTransition(from, to) {
		panic(fmt.Sprintf("ingest: illegal transition %s -> %s", from, to))
	}
	t.trail = append(t.trail, to)
}

func (t *tracker) snapshot() []State {
	out := make([]State, len(t.trail))
	copy(out, t.trail)
	return out
}

// Outcome is the result of processing one manifest row.
type Outcome struct {
	ID   string
	Line int

	// State is DONE, SKIPPED or FAILED.
	State State
	// FailedAt is the last state reached before a failure.
	FailedAt State
	Trail    []State
	Err      error

	HLSPath       string
	ThumbnailPath string
	Uploaded      int
	UploadedBytes int64
	Elapsed       time.Duration
}

func (o Outcome) Succeeded() bool { return o.State == StateDone }
func (o Outcome) Skipped() bool   { return o.State == StateSkipped }
func (o Outcome) Failed() bool    { return o.State == StateFailed }

// TrailString renders the visited states, e.g. "START>DEDUP_CHECKED>SKIPPED".
func (o Outcome) TrailString() string {
	parts := make([]string, len(o.Trail))
	for i, s := range o.Trail {
		parts[i] = string(s)
	}
	return strings.Join(parts, ">")
}
