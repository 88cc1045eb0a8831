package dashboard

import (
	"sync"
	"time"

	"github.com/couchcryptid/geo-kpi-service/internal/domain"
)

// Ticket identifies one in-flight load of a page.
type Ticket uint64

// Snapshot holds the latest committed state of a page under a
// latest-request-wins rule: every load takes a Ticket before calling
// upstream, and only the holder of the newest ticket may commit.
// A response that arrives after a newer load has started is still
// returned to its own caller but never overwrites shared state.
type Snapshot[T any] struct {
	mu          sync.Mutex
	generation  uint64
	value       T
	committed   bool
	committedAt time.Time
}

// Begin starts a new load and invalidates all earlier tickets.
func (s *Snapshot[T]) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return Ticket(s.generation)
}

// Commit stores v if t is still the newest ticket and reports whether it did.
func (s *Snapshot[T]) Commit(t Ticket, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint64(t) != s.generation {
		return false
	}
	s.value = v
	s.committed = true
	s.committedAt = domain.Now()
	return true
}

// Load returns the last committed value, if any.
func (s *Snapshot[T]) Load() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.committed
}

// CommittedAt returns when the current value was committed.
func (s *Snapshot[T]) CommittedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committedAt
}
