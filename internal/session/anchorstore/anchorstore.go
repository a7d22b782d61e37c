// Package anchorstore persists small key/value strings across CLI
// runs, most importantly the per-contest timer anchor. It is a flat
// JSON map in the user config dir; a corrupt or missing file behaves
// like an empty store rather than an error.
package anchorstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is a file-backed string map. Safe for concurrent use within
// one process; the file is rewritten whole on every mutation.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open returns a store backed by the given file. The file is created
// lazily on first write.
func Open(path string) *Store {
	return &Store{path: path}
}

// Default opens the store at its standard location under the user
// config dir.
func Default() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	return Open(filepath.Join(dir, "algobucks", "anchors.json")), nil
}

// Get returns the value for key and whether it was present.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.load()
	val, ok := m[key]
	return val, ok
}

// Set writes key once: if the key already holds a value, Set keeps it
// and reports no error. Timer anchors must never move on re-mount.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.load()
	if _, ok := m[key]; ok {
		return nil
	}
	m[key] = value
	return s.save(m)
}

// Force overwrites key regardless of any existing value.
func (s *Store) Force(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.load()
	if existing, ok := m[key]; ok && existing == value {
		return nil
	}
	m[key] = value
	return s.save(m)
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.load()
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return s.save(m)
}

func (s *Store) load() map[string]string {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return map[string]string{}
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return map[string]string{}
	}
	return m
}

func (s *Store) save(m map[string]string) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}
