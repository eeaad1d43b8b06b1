package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestOpenAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blogdedup.log")

	logger, closeFn, err := Open(slog.LevelInfo, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	logger.Info("first")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	logger, closeFn, err = Open(slog.LevelInfo, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	logger.Info("second")
	closeFn()

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(contents), "first") || !strings.Contains(string(contents), "second") {
		t.Fatalf("unexpected log file: %q", contents)
	}
}
