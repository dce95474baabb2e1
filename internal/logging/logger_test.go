package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewLogger_CreatesDirAndLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	log, err := NewLogger(dir, "debug")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("log dir missing: %v", err)
	}
	if !log.Core().Enabled(-1) { // debug
		t.Fatalf("debug level should be enabled")
	}

	// Write once; just ensuring no panic / basic functionality.
	log.Info("test_message_from_logging_test")
}

func TestNewLogger_UnknownLevelIsInfo(t *testing.T) {
	log, err := NewLogger(t.TempDir(), "loud")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if log.Core().Enabled(-1) || !log.Core().Enabled(0) {
		t.Fatalf("expected info level")
	}
}
