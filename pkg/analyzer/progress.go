package analyzer

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
)

// Outcome classifies what happened to one module in a batch.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomePruned
	OutcomeSkipped
	OutcomeCached
	OutcomeFailed
	numOutcomes
)

var outcomeNames = [numOutcomes]string{"unchanged", "pruned", "skipped", "cached", "failed"}

func (o Outcome) String() string {
	if o < 0 || o >= numOutcomes {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// Event is delivered to a ProgressFunc after each module.
type Event struct {
	Path    string
	Outcome Outcome
	Done    int
	Total   int
}

// ProgressFunc observes batch progress. It may be called from several
// goroutines at once.
type ProgressFunc func(Event)

// Tracker counts processed modules by outcome. It is safe for concurrent use.
type Tracker struct {
	total    atomic.Int64
	done     atomic.Int64
	counts   [numOutcomes]atomic.Int64
	callback ProgressFunc
}

// NewTracker creates a tracker. callback may be nil.
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// Add grows the expected total by n.
func (t *Tracker) Add(n int) {
	t.total.Add(int64(n))
}

// Record marks path as finished with the given outcome.
func (t *Tracker) Record(path string, o Outcome) {
	if o >= 0 && o < numOutcomes {
		t.counts[o].Add(1)
	}
	done := t.done.Add(1)
	if t.callback != nil {
		t.callback(Event{Path: path, Outcome: o, Done: int(done), Total: t.Total()})
	}
}

func (t *Tracker) Done() int {
	return int(t.done.Load())
}

func (t *Tracker) Total() int {
	return int(t.total.Load())
}

// Count returns how many modules finished with outcome o.
func (t *Tracker) Count(o Outcome) int {
	if o < 0 || o >= numOutcomes {
		return 0
	}
	return int(t.counts[o].Load())
}

// Summary lists the non-zero outcome counts, e.g. "3 pruned, 1 failed".
func (t *Tracker) Summary() string {
	var parts []string
	for o := OutcomeUnchanged; o < numOutcomes; o++ {
		if n := t.Count(o); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, o))
		}
	}
	return strings.Join(parts, ", ")
}

type trackerKey struct{}

// WithTracker returns a context carrying tracker.
func WithTracker(ctx context.Context, tracker *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, tracker)
}

// TrackerFromContext extracts the progress tracker from the context, or nil.
func TrackerFromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(trackerKey{}).(*Tracker)
	return t
}
