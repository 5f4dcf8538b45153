package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sadopc/nexus/internal/config"
)

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nexus.log")
	l, err := New(config.LoggerConfig{Level: "info", Format: "json", Output: "file", Filename: path})
	if err != nil {
		t.Fatal(err)
	}

	l.WithKey("notes").WithError(errors.New("boom")).Warn("write failed")
	l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := string(data)
	if !strings.Contains(line, `"key":"notes"`) || !strings.Contains(line, `"error":"boom"`) {
		t.Fatalf("missing structured fields in %q", line)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(config.LoggerConfig{Level: "loud", Format: "json", Output: "stdout"})
	if err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.WithKey("theme").Info("discarded")
}
