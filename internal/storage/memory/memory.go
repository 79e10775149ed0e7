package memory

import (
	"context"
	"os"
	"strings"
	"sync"

	"mypgrade/internal/storage"
)

// Store keeps values in process memory. State is lost on restart.
type Store struct {
	mu   sync.Mutex
	data map[string]string
}

var _ storage.KVStore = (*Store)(nil)

func New() *Store {
	return &Store{data: map[string]string{}}
}

// NewFromFile seeds key with the contents of path when the file exists and
// is not blank. A missing file yields an empty store.
func NewFromFile(key, path string) *Store {
	s := New()
	if path == "" {
		return s
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	if blob := strings.TrimSpace(string(raw)); blob != "" {
		s.data[key] = blob
	}
	return s
}

// Get implements storage.KVStore.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

// Set implements storage.KVStore.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
