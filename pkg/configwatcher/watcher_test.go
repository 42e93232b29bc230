package configwatcher

import (
	"context"
	"course_sync/internal/config"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchConfigReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("sync:\n  interval_minutes: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, dir, func(cfg *config.Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// 等待监听建立
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(path, []byte("sync:\n  interval_minutes: 7\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Sync.Interval != 7*time.Minute {
			t.Errorf("expected 7m interval, got %s", cfg.Sync.Interval)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WatchConfig returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("WatchConfig did not stop after cancel")
	}
}

func TestWatchConfigMissingDir(t *testing.T) {
	err := WatchConfig(context.Background(), filepath.Join(t.TempDir(), "missing"), func(*config.Config) {})
	if err == nil {
		t.Error("expected error for missing directory")
	}
}
