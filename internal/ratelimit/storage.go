package ratelimit

import (
	"encoding/json"
	"time"

	"github.com/gofiber/storage"
)

// storageWindow is the serialized window state kept in the backing storage.
type storageWindow struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"resetAt"`
}

// StorageStore is a Store on a gofiber storage backend (mysql, redis, ...),
// letting multiple processes enforce one shared limit. Reads and writes are
// not atomic across processes, so counts near the boundary are best effort.
type StorageStore struct {
	storage storage.Storage
}

// NewStorageStore constructs a StorageStore on the given backend.
func NewStorageStore(st storage.Storage) *StorageStore {
	return &StorageStore{storage: st}
}

// Hit records a request for key and returns the current window state.
func (s *StorageStore) Hit(key string, window time.Duration, now time.Time) (Window, error) {
	var state storageWindow

	raw, err := s.storage.Get(key)
	if err != nil {
		return Window{}, err
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &state); err != nil {
			// treat corrupt state as an elapsed window
			state = storageWindow{}
		}
	}

	if state.ResetAt.IsZero() || !now.Before(state.ResetAt) {
		state = storageWindow{ResetAt: now.Add(window)}
	}

	state.Count++

	out, err := json.Marshal(state)
	if err != nil {
		return Window{}, err
	}

	if err := s.storage.Set(key, out, time.Until(state.ResetAt)); err != nil {
		return Window{}, err
	}

	return Window{Count: state.Count, ResetAt: state.ResetAt}, nil
}
