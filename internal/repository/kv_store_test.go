package repository

import (
	"context"
	"course_sync/internal/model"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteStore(t *testing.T) *GormKVStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.KVEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewGormKVStore(db)
}

func exerciseKVStore(t *testing.T, store KVStore) {
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "course_progress_1", "a"); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "course_progress_1", "b"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	store.Set(ctx, "course_progress_2", "c")
	store.Set(ctx, "courseXprogressX3", "d")
	store.Set(ctx, "user_certificates", "[]")

	v, ok, err := store.Get(ctx, "course_progress_1")
	if err != nil || !ok || v != "b" {
		t.Fatalf("expected b, got %q ok=%v err=%v", v, ok, err)
	}

	keys, err := store.Keys(ctx, "course_progress_")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "course_progress_1" || keys[1] != "course_progress_2" {
		t.Errorf("unexpected keys %v", keys)
	}

	if err := store.Delete(ctx, "course_progress_1", "user_certificates"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Get(ctx, "course_progress_1"); ok {
		t.Error("expected key to be deleted")
	}
	if err := store.Ping(ctx); err != nil {
		t.Errorf("ping failed: %v", err)
	}
}

func TestMemoryKVStore(t *testing.T) {
	exerciseKVStore(t, NewMemoryKVStore())
}

func TestGormKVStoreSQLite(t *testing.T) {
	exerciseKVStore(t, newSQLiteStore(t))
}

func TestProgressRepositoryOnSQLite(t *testing.T) {
	repo := NewProgressRepository(newSQLiteStore(t))
	ctx := context.Background()

	if err := repo.SaveSectionProgress(ctx, "c1", "s1", 2, 2); err != nil {
		t.Fatal(err)
	}
	progress, err := repo.Get(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(progress.Sections) != 1 || progress.Sections[0].Score != 2 {
		t.Errorf("unexpected progress %+v", progress)
	}
}
