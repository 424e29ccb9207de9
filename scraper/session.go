package scraper

import (
	"errors"
	"sync"
)

// ErrAlreadyRunning is returned when a run is requested while another one
// holds the session. Second starts are rejected, never queued.
var ErrAlreadyRunning = errors.New("a scrape run is already active")

type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateStopped   State = "stopped"
	StateFailed    State = "failed"
)

// Session guards the one-run-at-a-time invariant and carries the
// cooperative stop flag. Stop requests are polled by the run loop, never
// preemptive: an in-flight page still finishes processing.
type Session struct {
	mu            sync.Mutex
	state         State
	stopRequested bool
}

func NewSession() *Session {
	return &Session{state: StateIdle}
}

// Begin claims the session for a new run.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return ErrAlreadyRunning
	}
	s.state = StateRunning
	s.stopRequested = false
	return nil
}

// RequestStop flags the active run to wind down at its next checkpoint.
// Harmless when nothing is running.
func (s *Session) RequestStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		s.stopRequested = true
	}
}

func (s *Session) StopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRequested
}

// finish records the terminal state and releases the session.
func (s *Session) finish(terminal State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = terminal
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
