package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_SetsDefault(t *testing.T) {
	l := New("info", "json")
	if slog.Default().Handler() != l.Handler() {
		t.Error("New should install the returned logger as slog default")
	}
}

func TestNewWithWriter_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("level_"+tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l := newWithWriter(&buf, tt.level, "text")

			l.Log(context.TODO(), tt.want, "should appear")
			if buf.Len() == 0 {
				t.Errorf("expected output at level %v", tt.want)
			}

			buf.Reset()
			l.Log(context.TODO(), tt.want-1, "should be suppressed")
			if buf.Len() != 0 {
				t.Errorf("level %v should suppress %v, got %s", tt.want, tt.want-1, buf.String())
			}
		})
	}
}

func TestNewWithWriter_Formats(t *testing.T) {
	var textBuf, jsonBuf bytes.Buffer

	newWithWriter(&textBuf, "info", "text").Info("hello")
	newWithWriter(&jsonBuf, "info", "json").Info("hello")

	if !strings.Contains(textBuf.String(), "source=") {
		t.Error("text format should include source")
	}

	var m map[string]any
	if err := json.Unmarshal(jsonBuf.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := m["source"]; ok {
		t.Error("json format should not include source")
	}
}
