package evac

import (
	"testing"
	"time"
)

func makeRecord(authority, dateText string) *Record {
	return NewRecord(map[string]string{
		ColumnAuthority: authority,
		ColumnDate:      dateText,
	}, "Manitoba Evacs", "https://example.com/evacuations.html", "run-1", time.Now().UTC())
}

func TestCleanForwardFill(t *testing.T) {
	records := []*Record{
		makeRecord("A", "2024-01-01"),
		makeRecord("", "2024-01-02"),
		makeRecord("", ""),
	}

	cleaned, summary := Clean(records)

	if len(cleaned) != 3 {
		t.Fatalf("expected 3 records, got %d", len(cleaned))
	}

	expected := []string{"A", "A", ""}
	for i, want := range expected {
		if cleaned[i].Authority != want {
			t.Errorf("record %d authority = %q, expected %q", i, cleaned[i].Authority, want)
		}
	}

	if summary.AuthoritiesFilled != 1 {
		t.Errorf("expected 1 filled authority, got %d", summary.AuthoritiesFilled)
	}
	if summary.DatesParsed != 2 || summary.DatesFailed != 1 {
		t.Errorf("expected 2 parsed / 1 failed dates, got %d / %d", summary.DatesParsed, summary.DatesFailed)
	}
}

func TestCleanNoFillWithoutPredecessor(t *testing.T) {
	records := []*Record{
		makeRecord("", "2024-01-01"),
		makeRecord("B", "2024-01-02"),
	}

	cleaned, summary := Clean(records)

	if cleaned[0].Authority != "" {
		t.Errorf("record with no predecessor should keep empty authority, got %q", cleaned[0].Authority)
	}
	if summary.AuthoritiesFilled != 0 {
		t.Errorf("expected 0 filled authorities, got %d", summary.AuthoritiesFilled)
	}
}

func TestCleanDropsSectionRows(t *testing.T) {
	records := []*Record{
		makeRecord("Town of Thompson", "2024-05-01"),
		makeRecord("Evacuation Lifted", ""),
		makeRecord("REOPENED", ""),
		makeRecord("Closed", ""),
		makeRecord("Snow Lake", "2024-05-03"),
	}

	cleaned, summary := Clean(records)

	if len(cleaned) != 2 {
		t.Fatalf("expected 2 records after filtering, got %d", len(cleaned))
	}
	if summary.SectionRowsDropped != 3 {
		t.Errorf("expected 3 section rows dropped, got %d", summary.SectionRowsDropped)
	}
	if cleaned[1].Authority != "Snow Lake" {
		t.Errorf("unexpected second record authority %q", cleaned[1].Authority)
	}
}

func TestCleanFillDoesNotCrossSectionBoundary(t *testing.T) {
	// An undated row between two communities must not inherit the first
	// community's name, but the dated row after it still fills from the
	// nearest named predecessor.
	records := []*Record{
		makeRecord("Town of Thompson", "2024-05-01"),
		makeRecord("", "see local advisories"),
		makeRecord("", "2024-05-02"),
	}

	cleaned, _ := Clean(records)

	if cleaned[1].Authority != "" {
		t.Errorf("undated row should not be filled, got %q", cleaned[1].Authority)
	}
	if cleaned[2].Authority != "Town of Thompson" {
		t.Errorf("dated row should fill to Town of Thompson, got %q", cleaned[2].Authority)
	}
}

func TestCleanEventIDs(t *testing.T) {
	records := []*Record{
		makeRecord("Town of Thompson", "2024-05-01"),
		makeRecord("Town of Thompson", "2024-05-01"), // duplicate on purpose
		makeRecord("Snow Lake", "not a date"),
	}

	cleaned, summary := Clean(records)

	want := "manitoba evacs_town_of_thompson_20240501"
	if cleaned[0].EventID != want {
		t.Errorf("event id = %q, expected %q", cleaned[0].EventID, want)
	}
	if cleaned[2].EventID != "manitoba evacs_snow_lake_unknown" {
		t.Errorf("unexpected event id for unparseable date: %q", cleaned[2].EventID)
	}
	if summary.UniqueEventIDs != 2 {
		t.Errorf("expected 2 unique event ids, got %d", summary.UniqueEventIDs)
	}
	if summary.DuplicateEventIDs != 1 {
		t.Errorf("expected 1 duplicate event id, got %d", summary.DuplicateEventIDs)
	}
}

func TestDistinctAuthorities(t *testing.T) {
	records := []*Record{
		makeRecord("Town of Thompson", "2024-05-01"),
		makeRecord("Snow Lake", "2024-05-02"),
		makeRecord("Town of Thompson", "2024-05-03"),
		makeRecord("", ""),
	}

	got := DistinctAuthorities(records)
	expected := []string{"Town of Thompson", "Snow Lake"}

	if len(got) != len(expected) {
		t.Fatalf("expected %d distinct authorities, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("authority %d = %q, expected %q", i, got[i], expected[i])
		}
	}
}
