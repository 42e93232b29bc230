package logger

import (
	"course_sync/internal/config"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestInitLoggerWritesJSONFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "agent.log")
	cfg := &config.Config{Log: config.LogConfig{File: file, Level: "debug", MaxSizeMB: 1}}
	t.Cleanup(func() { Log = zap.NewNop() })

	if err := InitLogger(cfg); err != nil {
		t.Fatalf("InitLogger returned error: %v", err)
	}
	Log.Debug("sync started", zap.String("courseId", "c1"))
	Log.Sync()

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	line := strings.TrimSpace(string(data))
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q", line)
	}
	if entry["msg"] != "sync started" || entry["courseId"] != "c1" || entry["level"] != "DEBUG" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestInitLoggerLevels(t *testing.T) {
	t.Cleanup(func() { Log = zap.NewNop() })

	tests := []struct {
		name      string
		cfg       config.Config
		wantDebug bool
		wantErr   bool
	}{
		{"debug mode", config.Config{Server: config.ServerConfig{Mode: "debug"}}, true, false},
		{"release mode", config.Config{Server: config.ServerConfig{Mode: "release"}}, false, false},
		{"explicit level wins", config.Config{Server: config.ServerConfig{Mode: "debug"}, Log: config.LogConfig{Level: "warn"}}, false, false},
		{"bad level", config.Config{Log: config.LogConfig{Level: "loud"}}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := resolveLevel(&tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error %v", err)
			}
			if err == nil && level.Enabled(zap.DebugLevel) != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", level.Enabled(zap.DebugLevel), tt.wantDebug)
			}
		})
	}
}
