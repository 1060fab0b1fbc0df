package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLogger_Log(t *testing.T) {
	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool // should log
	}{
		{
			name:    "info message",
			level:   LevelInfo,
			message: "test message",
			fields:  Fields{"key": "value"},
			want:    true,
		},
		{
			name:    "debug below threshold",
			level:   LevelDebug,
			message: "debug message",
			want:    false,
		},
		{
			name:    "error with err",
			level:   LevelError,
			message: "error occurred",
			err:     errors.New("test error"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(LevelInfo, &buf)

			logger.log(tt.level, tt.message, tt.fields, tt.err)

			logged := buf.Len() > 0
			if logged != tt.want {
				t.Errorf("log() logged = %v, want %v", logged, tt.want)
			}
			if logged {
				var entry LogEntry
				if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
					t.Fatalf("log output is not valid JSON: %v", err)
				}
				if entry.Message != tt.message {
					t.Errorf("message = %q, want %q", entry.Message, tt.message)
				}
			}
		})
	}
}

func TestStartStage(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, &buf)

	done := logger.StartStage("matching")
	done()

	out := buf.String()
	if !strings.Contains(out, "stage completed") {
		t.Errorf("expected stage completion entry, got %q", out)
	}
	if !strings.Contains(out, `"stage":"matching"`) {
		t.Errorf("expected stage field, got %q", out)
	}
}
