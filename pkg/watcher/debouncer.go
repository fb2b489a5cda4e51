package watcher

import (
	"context"
	"time"

	"github.com/ritzau/coupling-analyzer/pkg/logging"
)

// Debouncer batches rapid file system events to avoid excessive re-analysis
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer. An event is emitted once the
// input has been quiet for quietPeriod, or maxWait after the first event of
// a burst, whichever comes first.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// run processes events and applies debouncing logic
func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		quiet       <-chan time.Time
		deadline    <-chan time.Time
		accumulated []ChangeEvent
	)

	flush := func() {
		quiet, deadline = nil, nil
		if len(accumulated) == 0 {
			return
		}

		logging.Debug("flushing accumulated events", "count", len(accumulated))
		d.output <- merge(accumulated)
		accumulated = nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			accumulated = append(accumulated, event)
			quiet = time.After(d.quietPeriod)
			if deadline == nil {
				deadline = time.After(d.maxWait)
			}

		case <-quiet:
			flush()

		case <-deadline:
			flush()
		}
	}
}

// merge folds a burst into one event. The last change decides the type.
func merge(events []ChangeEvent) ChangeEvent {
	merged := ChangeEvent{Type: events[len(events)-1].Type, Timestamp: time.Now()}
	seen := make(map[string]bool)
	for _, e := range events {
		for _, p := range e.Paths {
			if !seen[p] {
				seen[p] = true
				merged.Paths = append(merged.Paths, p)
			}
		}
	}
	return merged
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
