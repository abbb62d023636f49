package progress

import "sync"

// Registry holds the trackers of running and recently finished tasks.
type Registry struct {
	trackers map[string]*Tracker
	order    []string
	limit    int
	mu       sync.Mutex
}

// NewRegistry creates a registry keeping at most limit finished trackers.
func NewRegistry(limit int) *Registry {
	if limit <= 0 {
		limit = 100
	}
	return &Registry{trackers: map[string]*Tracker{}, limit: limit}
}

// Start registers a tracker for a task. A task that is already known keeps
// its tracker, reset, so existing subscribers stay attached.
func (r *Registry) Start(taskID string) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.trackers[taskID]; ok {
		t.Reset()
		return t
	}
	t := New()
	r.order = append(r.order, taskID)
	r.trackers[taskID] = t
	r.evictLocked()
	return t
}

// Get returns the tracker of a task.
func (r *Registry) Get(taskID string) (*Tracker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trackers[taskID]
	return t, ok
}

// evictLocked drops the oldest finished trackers above the limit.
func (r *Registry) evictLocked() {
	for len(r.order) > r.limit {
		evicted := false
		for i, id := range r.order {
			if r.trackers[id].Snapshot().Phase.IsTerminal() {
				delete(r.trackers, id)
				r.order = append(r.order[:i], r.order[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			return
		}
	}
}
