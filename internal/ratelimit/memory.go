package ratelimit

import (
	"sync"
	"time"
)

type memoryEntry struct {
	count   int
	resetAt time.Time
}

// MemoryStore is a process-local Store on a mutex guarded map.
// State is lost on restart; in a multi-process deployment every process
// enforces its own independent limit.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*memoryEntry
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*memoryEntry),
	}
}

// Hit records a request for key and returns the current window state.
func (s *MemoryStore) Hit(key string, window time.Duration, now time.Time) (Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.windows[key]
	if entry == nil || !now.Before(entry.resetAt) {
		// first hit fixes the window start
		entry = &memoryEntry{resetAt: now.Add(window)}
		s.windows[key] = entry
	}

	entry.count++

	return Window{Count: entry.count, ResetAt: entry.resetAt}, nil
}

// Prune drops windows that elapsed before now. Called opportunistically so
// the map does not grow without bound.
func (s *MemoryStore) Prune(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.windows {
		if !now.Before(entry.resetAt) {
			delete(s.windows, key)
		}
	}
}
