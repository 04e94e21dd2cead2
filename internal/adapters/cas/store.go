// Package cas implements the persistent store of target build state.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultPath is where the state file lives unless configured otherwise.
const DefaultPath = ".forge/state.json"

var _ ports.StateStore = (*Store)(nil)

// Store implements ports.StateStore using a flat JSON file.
// The file is read on first access and rewritten on every Put.
type Store struct {
	path string

	mu     sync.RWMutex
	loaded bool
	cache  map[string]domain.TargetState
}

// NewStore creates a Store backed by the file at the given path.
func NewStore(path string) *Store {
	return &Store{
		path:  filepath.Clean(path),
		cache: make(map[string]domain.TargetState),
	}
}

func (s *Store) ensureLoaded() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, "failed to read state store"), "path", s.path)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.cache); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to unmarshal state store"), "path", s.path)
		}
	}
	s.loaded = true
	return nil
}

// saveLocked writes the cache to disk. The caller must hold the write lock.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.cache, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal state store")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create directory for state store"), "path", s.path)
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write state store"), "path", s.path)
	}
	return nil
}

// Get retrieves the state recorded under key. It returns nil, nil if there is none.
func (s *Store) Get(key string) (*domain.TargetState, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.cache[key]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

// Put stores the state under its key and persists the store.
// If the store cannot be written, the previous state under the key is kept.
func (s *Store) Put(state domain.TargetState) error {
	if state.Key == "" {
		return zerr.With(zerr.New("target state without key"), "target", state.Target)
	}
	if err := s.ensureLoaded(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.cache[state.Key]
	s.cache[state.Key] = state
	if err := s.saveLocked(); err != nil {
		if had {
			s.cache[state.Key] = prev
		} else {
			delete(s.cache, state.Key)
		}
		return err
	}
	return nil
}
