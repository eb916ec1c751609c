package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lucasnoah/portforge/internal/errs"
	"github.com/lucasnoah/portforge/internal/lock"
)

// Store manages pipeline documents on disk, one JSON document per
// pipeline id. Every mutation goes through Update, which holds the
// pipeline's lock for the full read-modify-write so concurrent gate
// operations on the same pipeline cannot lose updates. Operations on
// different pipeline ids proceed in parallel.
type Store struct {
	baseDir string // defaults to ~/.portforge/pipelines
	locks   *lock.MutexMap
}

// NewStore creates a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir, locks: lock.NewMutexMap()}
}

// DefaultStore returns a Store at ~/.portforge/pipelines, creating the
// directory if needed.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".portforge", "pipelines")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return NewStore(dir), nil
}

// BaseDir returns the store's root directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

func (s *Store) path(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

// Create writes a new pipeline document. The id must not already exist.
func (s *Store) Create(p *Pipeline) (*Pipeline, error) {
	s.locks.Lock(p.ID)
	defer s.locks.Unlock(p.ID)

	if _, err := os.Stat(s.path(p.ID)); err == nil {
		return nil, errs.Validation("pipeline %q already exists", p.ID)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := WriteJSON(s.path(p.ID), p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get reads the pipeline document for an id.
func (s *Store) Get(id string) (*Pipeline, error) {
	var p Pipeline
	if err := ReadJSON(s.path(id), &p); err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound("pipeline", id)
		}
		return nil, err
	}
	return &p, nil
}

// Update performs a serialized read-modify-write of the pipeline
// document. If fn returns an error, nothing is written.
func (s *Store) Update(id string, fn func(*Pipeline) error) (*Pipeline, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := WriteJSON(s.path(id), p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns all pipelines sorted by creation time, oldest first.
func (s *Store) List() ([]Pipeline, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Persistence("read dir", s.baseDir, err)
	}

	var pipelines []Pipeline
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		p, err := s.Get(id)
		if err != nil {
			continue // skip broken entries
		}
		pipelines = append(pipelines, *p)
	}

	sort.Slice(pipelines, func(i, j int) bool {
		if pipelines[i].CreatedAt != pipelines[j].CreatedAt {
			return pipelines[i].CreatedAt < pipelines[j].CreatedAt
		}
		return pipelines[i].ID < pipelines[j].ID
	})
	return pipelines, nil
}

// Latest returns the pipeline whose document was most recently
// modified. Callers that track an explicit current pipeline id should
// prefer that; Latest is the fallback when no id was given.
func (s *Store) Latest() (*Pipeline, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound("pipeline", "latest")
		}
		return nil, errs.Persistence("read dir", s.baseDir, err)
	}

	var latestID string
	var latestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latestID == "" || info.ModTime().After(latestMod) {
			latestID = strings.TrimSuffix(entry.Name(), ".json")
			latestMod = info.ModTime()
		}
	}
	if latestID == "" {
		return nil, errs.NotFound("pipeline", "latest")
	}
	return s.Get(latestID)
}

// Delete removes a pipeline document.
func (s *Store) Delete(id string) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	if _, err := os.Stat(s.path(id)); os.IsNotExist(err) {
		return errs.NotFound("pipeline", id)
	}
	if err := os.Remove(s.path(id)); err != nil {
		return errs.Persistence("remove", s.path(id), err)
	}
	return nil
}
