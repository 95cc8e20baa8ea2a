package app

import (
	"sync"
	"time"
)

// TaskScheduler owns the expiry timers that drive timed task windows. One
// timer per game; scheduling replaces any pending timer for that game.
type TaskScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewTaskScheduler() *TaskScheduler {
	return &TaskScheduler{timers: make(map[string]*time.Timer)}
}

// Schedule arms fn to fire for gameID after d, replacing a pending timer.
func (s *TaskScheduler) Schedule(gameID string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[gameID]; ok {
		timer.Stop()
	}
	// The firing callback must only drop its own map entry: by the time it
	// runs, Schedule may already have replaced it with a fresh timer.
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		if s.timers[gameID] == timer {
			delete(s.timers, gameID)
		}
		s.mu.Unlock()
		fn()
	})
	s.timers[gameID] = timer
}

// Cancel drops the pending timer for gameID, if any.
func (s *TaskScheduler) Cancel(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[gameID]; ok {
		timer.Stop()
		delete(s.timers, gameID)
	}
}

// Stop cancels every pending timer. Used at shutdown.
func (s *TaskScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}
