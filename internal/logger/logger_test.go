package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithWriterUsesSeverityField(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, false, "debug")
	log.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["severity"] != "info" {
		t.Fatalf("expected severity=info, got %v", entry["severity"])
	}
	if entry["message"] != "hello" {
		t.Fatalf("expected message hello, got %v", entry["message"])
	}
}

func TestNewWithWriterDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, false, "not-a-level")
	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected debug to be filtered, got %q", buf.String())
	}
}
