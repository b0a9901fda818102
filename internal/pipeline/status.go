package pipeline

import (
	"sync"

	"github.com/monopub/engine/internal/model"
)

// StatusTracker holds the per-package PublishStatus for a run and guards
// concurrent updates from parallel phase workers.
type StatusTracker struct {
	mu       sync.RWMutex
	statuses map[string]*model.PublishStatus
	order    []string
}

// NewStatusTracker seeds a pending status for every package name, in order.
func NewStatusTracker(names []string) *StatusTracker {
	t := &StatusTracker{
		statuses: make(map[string]*model.PublishStatus, len(names)),
		order:    append([]string{}, names...),
	}
	for _, name := range names {
		t.statuses[name] = &model.PublishStatus{Package: name, Status: model.StatusPending}
	}
	return t
}

// Set transitions name's status, optionally recording a registry and/or error.
func (t *StatusTracker) Set(name string, status model.Status, registry string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.statuses[name]
	if !ok {
		s = &model.PublishStatus{Package: name}
		t.statuses[name] = s
		t.order = append(t.order, name)
	}
	s.Status = status
	if registry != "" {
		s.Registry = registry
	}
	s.Err = err
}

// Get returns a copy of name's current status.
func (t *StatusTracker) Get(name string) model.PublishStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.statuses[name]; ok {
		return *s
	}
	return model.PublishStatus{Package: name, Status: model.StatusPending}
}

// All returns every tracked status in seed order.
func (t *StatusTracker) All() []model.PublishStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.PublishStatus, 0, len(t.order))
	for _, name := range t.order {
		if s, ok := t.statuses[name]; ok {
			out = append(out, *s)
		}
	}
	return out
}
