// Package live holds the single shared live session slot and the broadcaster
// that keeps its status message current.
package live

import (
	"standbot/internal/models"
	"standbot/internal/providers"

	"go.uber.org/atomic"
)

// Slot is a single-value mailbox: the latest Install wins and readers never
// block writers.
type Slot struct {
	value   atomic.Pointer[models.LiveSession]
	metrics providers.MetricsProviderInterface
}

func NewSlot(metrics providers.MetricsProviderInterface) *Slot {
	return &Slot{metrics: metrics}
}

// Install replaces whatever the slot holds.
func (s *Slot) Install(session models.LiveSession) {
	s.value.Store(&session)
	s.metrics.SetLiveSession(session.Active())
}

// Load returns the current value or nil. The result must not be modified.
func (s *Slot) Load() *models.LiveSession {
	return s.value.Load()
}

// ClearIf empties the slot only while it still holds the session owner
// installed at start. A newer session from another conversation is kept.
func (s *Slot) ClearIf(owner, start int64) bool {
	for {
		cur := s.value.Load()
		if cur == nil || cur.Owner != owner || cur.Start != start {
			return false
		}
		if s.value.CompareAndSwap(cur, nil) {
			s.metrics.SetLiveSession(false)
			return true
		}
	}
}
