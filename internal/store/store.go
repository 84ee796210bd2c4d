// Package store reads and writes the per-profile JSON documents.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Document file names inside a profile directory.
const (
	DocConfig       = "watch-config.json"
	DocTracker      = "tracker.json"
	DocLatest       = "latest-listings.json"
	DocGeocodeCache = "geocode-cache.json"
	DocRouteCache   = "route-cache.json"
)

// DefaultDir returns the default data directory: ~/.config/flatwatch
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "flatwatch"), nil
}

// Store persists one profile's documents under dir/<profile>/.
type Store struct {
	dir string
}

// New creates a store rooted at dir for the named profile.
func New(dir, profile string) *Store {
	return &Store{dir: filepath.Join(dir, profile)}
}

// Path returns the on-disk path of a named document.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether a document is present on disk.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Load reads a document into v. A missing file leaves v untouched and
// returns os.ErrNotExist; a malformed file returns the decode error.
// Callers treat both as empty state, never as fatal.
func (s *Store) Load(name string, v any) error {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return os.ErrNotExist
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

// Write atomically replaces a document: the new content is written to a
// temp file in the same directory and renamed over the old one, so a
// crash mid-write leaves the previous document intact.
func (s *Store) Write(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating profile directory %s: %w", s.dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file for %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}
