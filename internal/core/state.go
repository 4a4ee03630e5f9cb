package core

import "fmt"

// State is everything the run controller knows about its conversation.
// Transitions return a new value; State is never mutated in place.
type State struct {
	Thread    *Thread
	ActiveRun *Run
	Cursor    string
}

// WithThread replaces the thread. The previous thread's run and cursor are
// dropped with it.
func (s State) WithThread(t Thread) State {
	return State{Thread: &t}
}

// WithRun records r as the active run
func (s State) WithRun(r Run) State {
	s.ActiveRun = &r
	return s
}

// ClearRun forgets the active run
func (s State) ClearRun() State {
	s.ActiveRun = nil
	return s
}

// AdvanceCursor moves the cursor to id. An empty id leaves it unchanged.
func (s State) AdvanceCursor(id string) State {
	if id != "" {
		s.Cursor = id
	}
	return s
}

// HasThread reports whether a thread has been established
func (s State) HasThread() bool {
	return s.Thread != nil && s.Thread.ID != ""
}

// HasActiveRun reports whether a run is in flight
func (s State) HasActiveRun() bool {
	return s.ActiveRun != nil
}

// Validate checks the state's internal consistency
func (s State) Validate() error {
	if s.ActiveRun != nil {
		if !s.HasThread() {
			return fmt.Errorf("active run %s without a thread", s.ActiveRun.ID)
		}
		if s.ActiveRun.ThreadID != "" && s.ActiveRun.ThreadID != s.Thread.ID {
			return fmt.Errorf("active run %s belongs to thread %s, not %s", s.ActiveRun.ID, s.ActiveRun.ThreadID, s.Thread.ID)
		}
		if s.ActiveRun.Status.IsTerminal() {
			return fmt.Errorf("active run %s is %s", s.ActiveRun.ID, s.ActiveRun.Status)
		}
	}
	return nil
}
