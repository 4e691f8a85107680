// Package store persists all user records as a single JSON document on
// disk. One process-wide mutex guards the file; Apply holds it across
// the whole read-mutate-write unit so two concurrent handlers cannot
// lose each other's updates.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cosmodiet-go/internal/models"
)

// ErrCorrupt is returned when the backing file exists but cannot be
// parsed. This is surfaced, never masked by resetting to an empty
// document: a reset here would silently destroy every account.
var ErrCorrupt = errors.New("store: data file is not valid JSON")

type Store struct {
	mu   sync.Mutex
	path string
}

// Open validates the backing file. A missing file is fine (first boot,
// an empty document is synthesized on read); an unparsable one is not.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() (*models.Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &models.Document{Users: []models.User{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", s.path, err)
	}

	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w (%s): %v", ErrCorrupt, s.path, err)
	}
	if doc.Users == nil {
		doc.Users = []models.User{}
	}
	return &doc, nil
}

func (s *Store) persist(doc *models.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store: mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", s.path, err)
	}
	return nil
}

// Read returns the current document. Safe against writers but NOT a
// transaction: mutations must go through Apply.
func (s *Store) Read() (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Write overwrites the whole document.
func (s *Store) Write(doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(doc)
}

// Apply runs fn against the document and persists the result, all
// under the store lock. If fn returns an error nothing is written.
func (s *Store) Apply(fn func(doc *models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.persist(doc)
}
