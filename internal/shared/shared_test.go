package shared

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == "" || b == "" {
		t.Fatal("GenerateID() returned an empty string")
	}
	if a == b {
		t.Errorf("GenerateID() returned duplicate ids: %s", a)
	}
	if len(a) != 36 {
		t.Errorf("GenerateID() = %q, want a 36-character uuid", a)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	logger.Info("hello", "key", "value")
	if buf.Len() == 0 {
		t.Error("expected log output to the provided writer")
	}

	if logger := NewLogger(nil); logger == nil {
		t.Error("NewLogger(nil) should default to stderr, not return nil")
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "curator.log")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	logger.Info("written to file")
}
