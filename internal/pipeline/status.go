package pipeline

import "sync"

// Run phases reported by Status.
const (
	PhaseIdle      = "idle"
	PhaseLoading   = "loading"
	PhaseResolving = "resolving"
	PhaseWriting   = "writing"
	PhaseDone      = "done"
	PhaseFailed    = "failed"
)

// Status is a snapshot of the current or last run.
type Status struct {
	RegNum   string `json:"reg_num,omitempty"`
	Phase    string `json:"phase"`
	Events   int    `json:"events"`
	Resolved int    `json:"resolved"`
	Error    string `json:"error,omitempty"`
}

type statusTracker struct {
	mu sync.Mutex
	s  Status
}

func (t *statusTracker) update(fn func(*Status)) {
	t.mu.Lock()
	fn(&t.s)
	t.mu.Unlock()
}

func (t *statusTracker) snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.s
	if s.Phase == "" {
		s.Phase = PhaseIdle
	}
	return s
}
