package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for name, want := range cases {
		if got := ParseLevel(name); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestNewFile_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "buskport.log")
	logger, err := NewFile("info", path)
	if err != nil {
		t.Fatalf("new file logger: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("schedule loaded")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `"msg":"schedule loaded"`) {
		t.Fatalf("expected info line, got %q", text)
	}
	if strings.Contains(text, "hidden") {
		t.Fatalf("debug line should be filtered, got %q", text)
	}
}

func TestDefaultFile(t *testing.T) {
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CACHE_HOME", root)
	path, err := DefaultFile()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "buskport.log" || filepath.Base(filepath.Dir(path)) != "buskport" {
		t.Fatalf("unexpected path %q", path)
	}
}
