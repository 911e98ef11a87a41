// Package progress defines the per-unit progress events emitted by the
// crawl driver and the sinks that consume them. The driver is a single
// sequential worker, so events fan out synchronously; there is no
// buffering hub.
package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/ccampell/lyricscrawler/internal/resume"
)

// Action classifies what happened to a unit.
type Action string

// Supported unit actions.
const (
	// ActionAdvanced means the unit moved to a later stage.
	ActionAdvanced Action = "advanced"
	// ActionRemoved means an unreachable entity was removed from the tree.
	ActionRemoved Action = "removed"
	// ActionFailed means a song was marked permanently failed.
	ActionFailed Action = "failed"
	// ActionDeferred means a transient failure left the unit for a
	// later pass.
	ActionDeferred Action = "deferred"
	// ActionRunStart and ActionRunDone bracket a driver run.
	ActionRunStart Action = "run_start"
	ActionRunDone  Action = "run_done"
)

// Event captures one progress milestone.
type Event struct {
	// RunID identifies the driver run that emitted the event.
	RunID uuid.UUID
	// TS is the time the event was recorded.
	TS time.Time
	// Unit identifies the entity acted on; zero for run-level events.
	Unit resume.Unit
	// Action says what happened.
	Action Action
	// Name is the entity's display name, when known.
	Name string
	// Stage is the stage reached, for advanced actions.
	Stage string
	// Bytes is the raw text size for song fetch completions.
	Bytes int64
	// Dur is the wall time spent processing the unit.
	Dur time.Duration
	// Note carries low-volume context such as error text.
	Note string
}

// Sink consumes events one at a time. Sinks must tolerate events in
// any order and must not block for long; they run on the driver's
// goroutine.
type Sink interface {
	Observe(evt Event)
}

// Reporter stamps events with the run identity and time, then fans
// them out to every registered sink.
type Reporter struct {
	runID uuid.UUID
	now   func() time.Time
	sinks []Sink
}

// NewReporter builds a Reporter for one driver run.
func NewReporter(now func() time.Time, sinks ...Sink) *Reporter {
	if now == nil {
		now = time.Now
	}
	return &Reporter{runID: uuid.New(), now: now, sinks: sinks}
}

// RunID returns the identifier stamped on every event.
func (r *Reporter) RunID() uuid.UUID {
	return r.runID
}

// Emit dispatches one event to every sink. A nil Reporter is a no-op
// so callers need no guards.
func (r *Reporter) Emit(evt Event) {
	if r == nil {
		return
	}
	evt.RunID = r.runID
	if evt.TS.IsZero() {
		evt.TS = r.now()
	}
	for _, sink := range r.sinks {
		sink.Observe(evt)
	}
}
