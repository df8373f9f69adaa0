// Package store persists evaluation reports on disk, one JSON file per
// evaluation setup. Reports are immutable once written: a present key is
// always served from disk and never recomputed.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/promptlabs/promptscope/internal/models"
	"github.com/promptlabs/promptscope/internal/validation"
)

// Store reads and writes reports under a single directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates a store rooted at dir. The directory is created lazily on the
// first Save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Load returns the report stored under key. A missing file is ErrNotFound; a
// file that exists but does not decode or validate is ErrMalformedReport,
// which callers must not treat as a miss.
func (s *Store) Load(key string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.reportPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("reading report %s: %w", path, err)
	}

	if errs := validation.ValidateReportBytes(data); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s: %s", ErrMalformedReport, path, strings.Join(errs, "; "))
	}

	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrMalformedReport, path, err)
	}
	if err := report.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrMalformedReport, path, err)
	}

	return &report, nil
}

// Save validates the report and writes it under key. The write goes through a
// temp file and a rename, so readers never observe a half-written report.
func (s *Store) Save(key string, report *models.Report) error {
	if err := report.Validate(); err != nil {
		return fmt.Errorf("refusing to store invalid report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	path := s.reportPath(key)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp report file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing report file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publishing report: %w", err)
	}

	return nil
}

// Clear removes every stored report. It refuses to act on a directory that
// contains anything other than report files, since the configured path might
// point somewhere it should not.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading report directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			return fmt.Errorf("report directory contains subdirectories - refusing to delete for safety")
		}
		if filepath.Ext(entry.Name()) != ".json" {
			return fmt.Errorf("report directory contains non-report files - refusing to delete for safety")
		}
	}

	return os.RemoveAll(s.dir)
}

// Path returns the file a key maps to, whether or not it exists yet.
func (s *Store) Path(key string) string {
	return s.reportPath(key)
}

func (s *Store) reportPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}
