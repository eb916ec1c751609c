package semantic

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lucasnoah/portforge/internal/lock"
	"github.com/lucasnoah/portforge/internal/pipeline"
)

// Store persists semantic findings, one JSON document per pipeline.
// A pipeline with no recorded findings reads back as an empty list.
type Store struct {
	baseDir string
	locks   *lock.MutexMap
}

// NewStore creates a findings store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir, locks: lock.NewMutexMap()}
}

// DefaultStore returns a Store at ~/.portforge/semantic, creating the
// directory if needed.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".portforge", "semantic")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return NewStore(dir), nil
}

func (s *Store) path(pipelineID string) string {
	return filepath.Join(s.baseDir, pipelineID+"_semantic_findings.json")
}

// List returns the findings recorded for a pipeline.
func (s *Store) List(pipelineID string) ([]Finding, error) {
	var findings []Finding
	if err := pipeline.ReadJSON(s.path(pipelineID), &findings); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return findings, nil
}

// Update performs a serialized read-modify-write of a pipeline's
// findings document. If fn returns an error, nothing is written.
func (s *Store) Update(pipelineID string, fn func(findings []Finding) ([]Finding, error)) ([]Finding, error) {
	s.locks.Lock(pipelineID)
	defer s.locks.Unlock(pipelineID)

	findings, err := s.List(pipelineID)
	if err != nil {
		return nil, err
	}
	findings, err = fn(findings)
	if err != nil {
		return nil, err
	}
	if err := pipeline.WriteJSON(s.path(pipelineID), findings); err != nil {
		return nil, err
	}
	return findings, nil
}

// Add upserts a finding by id into a pipeline's findings document.
func (s *Store) Add(pipelineID string, f Finding) error {
	_, err := s.Update(pipelineID, func(findings []Finding) ([]Finding, error) {
		for i := range findings {
			if findings[i].ID == f.ID {
				findings[i] = f
				return findings, nil
			}
		}
		return append(findings, f), nil
	})
	return err
}
