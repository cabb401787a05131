package checkout

import (
	"context"
	"sync"
	"time"
)

// tracker remembers the latest event of each checkout by order id so the
// widget callbacks, which arrive on other requests, can find the run.
type tracker struct {
	mu        sync.Mutex
	retention time.Duration
	runs      map[string]*trackedRun
}

type trackedRun struct {
	userID string
	last   Event
	done   chan struct{}
}

func newTracker(retention time.Duration) *tracker {
	return &tracker{
		retention: retention,
		runs:      make(map[string]*trackedRun),
	}
}

func (t *tracker) record(userID, orderID string, ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.runs[orderID]
	if !ok {
		t.prune(ev.At)
		run = &trackedRun{userID: userID, done: make(chan struct{})}
		t.runs[orderID] = run
	}
	run.last = ev
	if ev.Terminal() {
		close(run.done)
	}
}

func (t *tracker) latest(userID, orderID string) (Event, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.runs[orderID]
	if !ok || run.userID != userID {
		return Event{}, false
	}
	return run.last, true
}

func (t *tracker) wait(ctx context.Context, userID, orderID string) (Event, error) {
	t.mu.Lock()
	run, ok := t.runs[orderID]
	t.mu.Unlock()
	if !ok || run.userID != userID {
		return Event{}, ErrUnknownOrder
	}

	select {
	case <-run.done:
		ev, _ := t.latest(userID, orderID)
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// prune drops finished runs older than the retention window. Callers hold mu.
func (t *tracker) prune(now time.Time) {
	for id, run := range t.runs {
		if run.last.Terminal() && now.Sub(run.last.At) > t.retention {
			delete(t.runs, id)
		}
	}
}
