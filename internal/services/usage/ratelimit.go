package usage

import (
	"context"
	"sync"
	"time"
)

// WindowState is the outcome of one fixed-window hit
type WindowState struct {
	Count   int
	ResetAt time.Time
	Limited bool
}

// WindowStore tracks fixed-window request counters keyed by caller identity.
//
// Semantics, identical across implementations:
//   - no window, or the window has expired: start a fresh one with count 1
//   - count below max: increment
//   - count at max: report limited without incrementing, so rejected
//     requests never extend the window
type WindowStore interface {
	// Hit registers one request attempt and returns the window state
	Hit(ctx context.Context, identifier string, max int, window time.Duration) (WindowState, error)

	// Reset evicts the window for an identifier
	Reset(ctx context.Context, identifier string) error
}

type memoryWindow struct {
	count         int
	resetAt       time.Time
	lastRequestAt time.Time
}

// MemoryWindowStore is the default single-process window store.
// Windows are created lazily and replaced, not incremented, once expired;
// they are never destroyed except by explicit Reset.
type MemoryWindowStore struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
}

// NewMemoryWindowStore creates an in-memory fixed-window store
func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{
		windows: make(map[string]*memoryWindow),
	}
}

// Hit registers one request attempt under a single coarse lock.
// Contention is acceptable at this scale; the critical section is tiny.
func (s *MemoryWindowStore) Hit(ctx context.Context, identifier string, max int, window time.Duration) (WindowState, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[identifier]
	if !ok || now.After(w.resetAt) {
		w = &memoryWindow{
			count:         1,
			resetAt:       now.Add(window),
			lastRequestAt: now,
		}
		s.windows[identifier] = w
		return WindowState{Count: 1, ResetAt: w.resetAt}, nil
	}

	if w.count < max {
		w.count++
		w.lastRequestAt = now
		return WindowState{Count: w.count, ResetAt: w.resetAt}, nil
	}

	// At the boundary the request is rejected and not counted
	w.lastRequestAt = now
	return WindowState{Count: w.count, ResetAt: w.resetAt, Limited: true}, nil
}

// Reset evicts the window for an identifier
func (s *MemoryWindowStore) Reset(ctx context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.windows, identifier)
	return nil
}
