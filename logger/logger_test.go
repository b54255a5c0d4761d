package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewWritesRotatingFile(t *testing.T) {
	dir := t.TempDir()

	log, err := New(Options{Dir: dir, Level: "debug", Format: "json"})
	if err != nil {
		t.Fatal(err)
	}

	log.WithField("video_id", "abc").Debug("Fetching watch page")

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"video_id":"abc"`) {
		t.Errorf("expected JSON log line with video_id, got %s", data)
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	log, err := New(Options{Level: "chatty"})
	if err != nil {
		t.Fatal(err)
	}
	if log.GetLevel() != logrus.InfoLevel {
		t.Errorf("expected info level, got %s", log.GetLevel())
	}
}

func TestNewConsoleWriter(t *testing.T) {
	var buf strings.Builder

	log, err := New(Options{Level: "warn", Format: "text", Console: &buf})
	if err != nil {
		t.Fatal(err)
	}

	log.Info("hidden")
	log.Warn("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected console output %q", buf.String())
	}
}
