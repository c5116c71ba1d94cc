package command

import (
	"errors"
	"sync"
)

// SweepResult summarizes a batch run. Affected counts units that changed or
// emitted a signal; Errors holds the per-unit failures.
type SweepResult struct {
	Processed int
	Affected  int
	Skipped   int
	Failed    int
	Errors    []error
}

// Err joins the per-unit failures.
func (r SweepResult) Err() error {
	return errors.Join(r.Errors...)
}

func (r *SweepResult) fail(err error) {
	r.Failed++
	r.Errors = append(r.Errors, err)
}

// syncResult guards a SweepResult shared by concurrent workers.
type syncResult struct {
	mu     sync.Mutex
	result SweepResult
}

func (s *syncResult) update(fn func(*SweepResult)) {
	s.mu.Lock()
	fn(&s.result)
	s.mu.Unlock()
}

func (s *syncResult) snapshot() SweepResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.result
	out.Errors = append([]error(nil), s.result.Errors...)
	return out
}
