package artifacts

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Store manages compiled artifacts and deployment records with atomic
// file persistence. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	path  string
	data  *storeData
	dirty bool
}

// NewStore creates or opens a store at the given path. A missing file
// is not an error; the store starts empty. A missing parent directory
// is created with 0700 permissions.
func NewStore(path string) (*Store, error) {
	store := &Store{
		path: path,
		data: newStoreData(),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	if err := store.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return store, nil
}

// load reads store data from disk. Returns os.ErrNotExist if the file
// doesn't exist, which callers treat as an empty store.
func (s *Store) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	// Empty file is valid - treat as empty store
	if len(data) == 0 {
		return nil
	}

	var sd storeData
	if err := json.Unmarshal(data, &sd); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreCorrupted, err)
	}
	if sd.Version > StoreVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrStoreCorrupted, sd.Version)
	}
	if sd.Artifacts == nil {
		sd.Artifacts = make(map[string]*Artifact)
	}
	if sd.Deployments == nil {
		sd.Deployments = make(map[string]*DeploymentRecord)
	}

	s.data = &sd
	s.dirty = false
	return nil
}

// syncLocked writes store data atomically using the temp file + rename
// pattern. Must be called with the write lock held.
func (s *Store) syncLocked() error {
	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tmpPath := s.path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", ErrStorePersist, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: write: %v", ErrStorePersist, err)
	}

	// Fsync before rename so a crash can't leave a truncated store.
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: fsync: %v", ErrStorePersist, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: close: %v", ErrStorePersist, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: rename: %v", ErrStorePersist, err)
	}

	s.dirty = false
	return nil
}

// Sync flushes pending changes to disk.
func (s *Store) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncLocked()
}

// Close syncs any pending changes and releases resources.
func (s *Store) Close() error {
	return s.Sync()
}

// Path returns the store file path.
func (s *Store) Path() string {
	return s.path
}

// SaveArtifact stores a compiled artifact, replacing any previous build
// of the same contract.
func (s *Store) SaveArtifact(a *Artifact) error {
	if a == nil {
		return fmt.Errorf("artifact cannot be nil")
	}
	if a.Name == "" {
		return fmt.Errorf("artifact name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Artifacts[a.Name] = copyArtifact(a)
	s.dirty = true
	return s.syncLocked()
}

// Artifact retrieves an artifact by contract name.
func (s *Store) Artifact(name string) (*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data.Artifacts[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
	}
	return copyArtifact(a), nil
}

// Artifacts returns all artifacts sorted by name.
func (s *Store) Artifacts() []*Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Artifact, 0, len(s.data.Artifacts))
	for _, a := range s.data.Artifacts {
		result = append(result, copyArtifact(a))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// DeleteArtifact removes an artifact.
func (s *Store) DeleteArtifact(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data.Artifacts[name]; !exists {
		return fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
	}

	delete(s.data.Artifacts, name)
	s.dirty = true
	return s.syncLocked()
}

// RecordDeployment stores a completed deployment. Records are
// append-only; re-recording an ID is an error.
func (s *Store) RecordDeployment(r *DeploymentRecord) error {
	if r == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if r.ID == "" {
		return fmt.Errorf("record ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data.Deployments[r.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDeploymentExists, r.ID)
	}

	s.data.Deployments[r.ID] = copyRecord(r)
	s.dirty = true
	return s.syncLocked()
}

// Deployment retrieves a deployment record by ID.
func (s *Store) Deployment(id string) (*DeploymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data.Deployments[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrDeploymentNotFound, id)
	}
	return copyRecord(r), nil
}

// Deployments returns records for one network, oldest first. An empty
// network returns every record.
func (s *Store) Deployments(network string) []*DeploymentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*DeploymentRecord, 0, len(s.data.Deployments))
	for _, r := range s.data.Deployments {
		if network != "" && r.Network != network {
			continue
		}
		result = append(result, copyRecord(r))
	}
	// ULIDs sort lexicographically in creation order.
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// LatestDeployment returns the most recent record for a contract on a
// network.
func (s *Store) LatestDeployment(network, contract string) (*DeploymentRecord, error) {
	var latest *DeploymentRecord
	for _, r := range s.Deployments(network) {
		if r.Contract == contract {
			latest = r
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: %s on %s", ErrDeploymentNotFound, contract, network)
	}
	return latest, nil
}

// Count returns the number of stored artifacts and deployment records.
func (s *Store) Count() (artifacts, deployments int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Artifacts), len(s.data.Deployments)
}
