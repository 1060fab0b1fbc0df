// Package storage provides JSON-based persistence for scrape snapshots.
//
// Each source gets its own snapshot file (snapshot_<source>.json) under the
// data directory, recording the rows seen on the last run so that the next
// run can report only newly appeared evacuation records. A missing or
// unreadable snapshot is treated as empty.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prairiefire/wildfire-evacs/internal/evac"
)

// Storage handles persistence of record snapshots.
type Storage struct {
	dataDir string
}

// New creates a new Storage instance rooted at dataDir, creating the
// directory if needed. A leading ~/ expands to the home directory.
func New(dataDir string) (*Storage, error) {
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{dataDir: dataDir}, nil
}

// snapshotPath returns the snapshot file path for a source.
func (s *Storage) snapshotPath(source string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("snapshot_%s.json", slugify(source)))
}

// LoadSnapshot loads a source's snapshot from disk. A missing file yields
// an empty snapshot, not an error.
func (s *Storage) LoadSnapshot(source string) (*evac.Snapshot, error) {
	data, err := os.ReadFile(s.snapshotPath(source))
	if err != nil {
		if os.IsNotExist(err) {
			return evac.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot evac.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if snapshot.Records == nil {
		snapshot.Records = make(map[string]*evac.Record)
	}

	return &snapshot, nil
}

// SaveSnapshot writes a source's snapshot to disk.
func (s *Storage) SaveSnapshot(snapshot *evac.Snapshot, source string) error {
	snapshot.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.WriteFile(s.snapshotPath(source), data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}

// CreateSnapshotFromRecords creates and saves a snapshot from a record list.
func (s *Storage) CreateSnapshotFromRecords(records []*evac.Record, source string) error {
	snapshot := evac.CreateSnapshot(records, time.Now().UTC().Format(time.RFC3339))
	return s.SaveSnapshot(snapshot, source)
}

// slugify makes a source name filesystem-safe.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
