package evac

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		text     string
		expected time.Time
	}{
		{"May 28, 2025", time.Date(2025, time.May, 28, 0, 0, 0, 0, time.UTC)},
		{"Jul 4, 2024", time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC)},
		{"May 28 2025", time.Date(2025, time.May, 28, 0, 0, 0, 0, time.UTC)},
		{"2024-05-01", time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)},
		{"05/28/2025", time.Date(2025, time.May, 28, 0, 0, 0, 0, time.UTC)},
		{"28 May 2025", time.Date(2025, time.May, 28, 0, 0, 0, 0, time.UTC)},
		{"  May 28, 2025  ", time.Date(2025, time.May, 28, 0, 0, 0, 0, time.UTC)},
		{"ongoing", time.Time{}},
		{"", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ParseDate(tt.text)
			if !got.Equal(tt.expected) {
				t.Errorf("ParseDate(%q) = %v, expected %v", tt.text, got, tt.expected)
			}
		})
	}
}
