package server

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActiveRun is a dispatch that has started and not yet returned.
type ActiveRun struct {
	ID        string    `json:"id"`
	Language  string    `json:"language"`
	Origin    string    `json:"origin"`
	StartedAt time.Time `json:"started_at"`
}

// RunTracker records in-flight dispatches. It only observes them; there is
// no way to cancel a run through it.
type RunTracker struct {
	mu   sync.RWMutex
	runs map[string]ActiveRun
}

// NewRunTracker creates an empty RunTracker.
func NewRunTracker() *RunTracker {
	return &RunTracker{
		runs: make(map[string]ActiveRun),
	}
}

// Start records a new run and returns its ID.
func (rt *RunTracker) Start(language, origin string) string {
	run := ActiveRun{
		ID:        uuid.NewString(),
		Language:  language,
		Origin:    origin,
		StartedAt: time.Now().UTC(),
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.runs[run.ID] = run
	return run.ID
}

// Finish removes a run. Unknown IDs are ignored.
func (rt *RunTracker) Finish(id string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	delete(rt.runs, id)
}

// Get returns an in-flight run.
func (rt *RunTracker) Get(id string) (ActiveRun, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	run, ok := rt.runs[id]
	return run, ok
}

// List returns in-flight runs, oldest first.
func (rt *RunTracker) List() []ActiveRun {
	rt.mu.RLock()
	out := make([]ActiveRun, 0, len(rt.runs))
	for _, run := range rt.runs {
		out = append(out, run)
	}
	rt.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}
