// Package state provides the durable JSON-backed record of installed
// applications. The store is the single source of truth for "is X installed
// at version V"; the orchestrator mutates it only through the methods here,
// and only after an install step has fully succeeded.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/glorpus-work/instill/pkg/fsutil"
	"github.com/glorpus-work/instill/pkg/model"
	"github.com/rs/zerolog"
)

// Store persists installation state to a single JSON file keyed by app id.
// Every mutating call rewrites the whole file; the map is small and writes
// are infrequent, so no incremental log is kept.
type Store struct {
	path    string
	records map[string]*model.AppStatus
	mu      sync.RWMutex
	log     zerolog.Logger
}

// New creates a store backed by the file at path, loading existing state if
// the file is present. A missing file is empty state, not an error.
func New(path string, log zerolog.Logger) (*Store, error) {
	s := &Store{
		path:    filepath.Clean(path),
		records: make(map[string]*model.AppStatus),
		log:     log,
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", s.path, err)
	}
	for id, rec := range s.records {
		rec.ID = id
	}
	log.Debug().Int("records", len(s.records)).Str("path", s.path).Msg("state loaded")
	return s, nil
}

// MarkInstalled records a successful install, overwriting any prior record
// for the app id, and persists immediately.
func (s *Store) MarkInstalled(id, version, installerPath string, deps []string) (*model.AppStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	rec := &model.AppStatus{
		ID:                    id,
		Version:               version,
		InstallerPath:         installerPath,
		Installed:             true,
		DependenciesInstalled: append([]string(nil), deps...),
		InstalledAt:           now,
		UpdatedAt:             now,
	}
	if prev, ok := s.records[id]; ok && !prev.InstalledAt.IsZero() {
		rec.InstalledAt = prev.InstalledAt
	}
	s.records[id] = rec

	if err := s.persist(); err != nil {
		return nil, err
	}
	s.log.Info().Str("app", id).Str("version", version).Msg("marked installed")
	return rec, nil
}

// MarkUninstalled flips the record for the app id to not-installed. The
// record is retained for history, not deleted.
func (s *Store) MarkUninstalled(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	rec.Installed = false
	rec.UpdatedAt = time.Now().UTC()

	if err := s.persist(); err != nil {
		return err
	}
	s.log.Info().Str("app", id).Msg("marked uninstalled")
	return nil
}

// Get returns the record for the app id, or nil if none exists.
func (s *Store) Get(id string) *model.AppStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	out := *rec
	return &out
}

// IsInstalled reports whether the app id is currently installed at the given
// version. Versions are compared as opaque strings.
func (s *Store) IsInstalled(id, version string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	return ok && rec.Installed && rec.Version == version
}

// List returns all records sorted by app id.
func (s *Store) List() []*model.AppStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.AppStatus, 0, len(s.records))
	for _, rec := range s.records {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// persist writes the full map through a temp file and an atomic rename so a
// crash mid-write never leaves a truncated state file. Caller holds mu.
func (s *Store) persist() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, fsutil.DirModeDefault); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "instill-state-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file %s: %w", s.path, err)
	}
	return nil
}
