package evac

import "sort"

// Snapshot captures the records seen for one source at a point in time,
// keyed by Record.SnapshotKey.
type Snapshot struct {
	Records   map[string]*Record `json:"records"`
	UpdatedAt string             `json:"updated_at"` // RFC3339 timestamp
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Records: make(map[string]*Record),
	}
}

// CreateSnapshot builds a snapshot from a list of records.
func CreateSnapshot(records []*Record, updatedAt string) *Snapshot {
	snap := NewSnapshot()
	snap.UpdatedAt = updatedAt
	for _, rec := range records {
		snap.Records[rec.SnapshotKey()] = rec
	}
	return snap
}

// DiffResult contains the records that were not present in the previous
// snapshot, grouped by source.
type DiffResult struct {
	NewRecords []*Record
	BySource   map[string][]*Record
}

// Diff compares current records against a previous snapshot and returns the
// ones appearing for the first time. A nil previous snapshot means every
// current record is new.
func Diff(previous *Snapshot, current []*Record) *DiffResult {
	result := &DiffResult{
		NewRecords: make([]*Record, 0),
		BySource:   make(map[string][]*Record),
	}

	if previous == nil {
		previous = NewSnapshot()
	}

	for _, rec := range current {
		if _, exists := previous.Records[rec.SnapshotKey()]; exists {
			continue
		}
		result.NewRecords = append(result.NewRecords, rec)
		result.BySource[rec.SourceName] = append(result.BySource[rec.SourceName], rec)
	}

	// Sort for consistent output across runs.
	sort.Slice(result.NewRecords, func(i, j int) bool {
		if result.NewRecords[i].SourceName != result.NewRecords[j].SourceName {
			return result.NewRecords[i].SourceName < result.NewRecords[j].SourceName
		}
		if result.NewRecords[i].Authority != result.NewRecords[j].Authority {
			return result.NewRecords[i].Authority < result.NewRecords[j].Authority
		}
		return result.NewRecords[i].DateText < result.NewRecords[j].DateText
	})

	return result
}
