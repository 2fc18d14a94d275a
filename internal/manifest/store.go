// Package manifest implements the append-only ledger of artifact-bundle
// versions. The ledger is a JSON document on disk; appends are serialized
// through a single writer and published atomically, so readers always see
// a fully-formed entry list or none at all.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/oakmont-ai/scorecard/internal/common"
	"github.com/oakmont-ai/scorecard/internal/model"
)

// Store is the version store over a manifest file. Artifact paths inside
// entries are stored relative to the artifact root unless absolute.
type Store struct {
	path string
	root string
	mu   sync.Mutex
}

// NewStore creates a version store over the manifest file at path, with
// relative artifact paths resolved against root.
func NewStore(path, root string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: manifest path is required", common.ErrInvalidConfig)
	}
	if root == "" {
		root = filepath.Dir(path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}
	return &Store{path: path, root: root}, nil
}

// All returns every manifest entry in creation order. A missing manifest
// file is an empty ledger, not an error.
func (s *Store) All() ([]model.ModelVersion, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var entries []model.ModelVersion
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].CreatedAt.Before(entries[b].CreatedAt)
	})
	return entries, nil
}

// Current returns the most recent entry, or ErrNoVersions for an empty
// ledger.
func (s *Store) Current() (*model.ModelVersion, error) {
	entries, err := s.All()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, common.ErrNoVersions
	}
	entry := entries[len(entries)-1]
	return &entry, nil
}

// Get returns the entry with the given version id.
func (s *Store) Get(version string) (*model.ModelVersion, error) {
	entries, err := s.All()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Version == version {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("version %q: %w", version, common.ErrNotFound)
}

// Append adds one entry to the ledger. The write is serialized and
// atomic: the updated document is staged to a temp file and renamed over
// the manifest, so a concurrent reader observes either the old or the
// new ledger, never a partial one.
func (s *Store) Append(entry model.ModelVersion) error {
	if entry.Version == "" {
		return fmt.Errorf("%w: entry version is required", common.ErrInvalidConfig)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.All()
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].Version == entry.Version {
			return fmt.Errorf("version %q: %w", entry.Version, common.ErrDuplicateEntry)
		}
	}
	entries = append(entries, entry)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".manifest-*.json")
	if err != nil {
		return fmt.Errorf("failed to stage manifest: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to flush manifest: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to publish manifest: %w", err)
	}

	return nil
}

// NextVersionID derives a fresh, monotonically increasing version id from
// the current UTC time, disambiguating collisions within one second.
func (s *Store) NextVersionID() (string, error) {
	base := "v" + time.Now().UTC().Format("20060102T150405Z")

	entries, err := s.All()
	if err != nil {
		return "", err
	}
	taken := make(map[string]bool, len(entries))
	for i := range entries {
		taken[entries[i].Version] = true
	}

	if !taken[base] {
		return base, nil
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !taken[candidate] {
			return candidate, nil
		}
	}
}

// ResolvePath resolves an artifact path from a manifest entry against the
// artifact root.
func (s *Store) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.root, p)
}

// Root returns the artifact root directory.
func (s *Store) Root() string {
	return s.root
}
