package store

import (
	"sync"

	"github.com/mtlprog/btcbalances/internal/domain"
	"github.com/mtlprog/btcbalances/internal/reactive"
)

// Status is the fetch state of a loading section.
type Status string

const (
	StatusNone            Status = "none"
	StatusLoading         Status = "loading"
	StatusRefreshing      Status = "refreshing"
	StatusPartiallyLoaded Status = "partially-loaded"
	StatusLoaded          Status = "loaded"
)

// SectionTracker records the fetch status of each section.
type SectionTracker struct {
	reactive.Notifier

	mu       sync.RWMutex
	statuses map[domain.Section]Status
}

// NewSectionTracker creates a tracker with every section in StatusNone.
func NewSectionTracker() *SectionTracker {
	return &SectionTracker{statuses: make(map[domain.Section]Status)}
}

// Status returns the current status of section.
func (t *SectionTracker) Status(section domain.Section) Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.statuses[section]; ok {
		return s
	}
	return StatusNone
}

// SetStatus updates section's status. Subscribers are only notified on an actual change.
func (t *SectionTracker) SetStatus(section domain.Section, status Status) {
	t.mu.Lock()
	prev, ok := t.statuses[section]
	if !ok {
		prev = StatusNone
	}
	t.statuses[section] = status
	t.mu.Unlock()

	if prev != status {
		t.Notify()
	}
}

// ShouldShowLoadingScreen reports whether section is in its first load, with no data to show yet.
func (t *SectionTracker) ShouldShowLoadingScreen(section domain.Section) bool {
	return t.Status(section) == StatusLoading
}

// IsLoading reports whether any fetch for section is in flight.
func (t *SectionTracker) IsLoading(section domain.Section) bool {
	switch t.Status(section) {
	case StatusLoading, StatusRefreshing, StatusPartiallyLoaded:
		return true
	default:
		return false
	}
}
