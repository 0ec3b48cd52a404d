package domtest

import (
	"errors"
	"sync"
)

// ErrStorageUnavailable is returned by a failing Storage.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Storage is an in-memory dom.Storage. Set Fail to make every call error.
type Storage struct {
	mu   sync.Mutex
	m    map[string]string
	Fail bool
}

// NewStorage returns empty storage.
func NewStorage() *Storage {
	return &Storage{m: make(map[string]string)}
}

// Get implements dom.Storage.
func (s *Storage) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return "", false, ErrStorageUnavailable
	}
	v, ok := s.m[key]
	return v, ok, nil
}

// Set implements dom.Storage.
func (s *Storage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return ErrStorageUnavailable
	}
	s.m[key] = value
	return nil
}

// Remove implements dom.Storage.
func (s *Storage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return ErrStorageUnavailable
	}
	delete(s.m, key)
	return nil
}

// Len returns the number of stored keys.
func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
