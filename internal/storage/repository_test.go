package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteRepositoryGetSet(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "grades.db")

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	if _, ok, err := repo.Get(ctx, StorageKey); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}

	if err := repo.Set(ctx, StorageKey, "[]"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.Set(ctx, StorageKey, `[{"id":"a"}]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := repo.Get(ctx, StorageKey)
	if err != nil || !ok || v != `[{"id":"a"}]` {
		t.Fatalf("unexpected value %q ok=%v err=%v", v, ok, err)
	}
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestSQLiteRepositoryPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "grades.db")

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	subjects := NewSubjectRepository(repo)
	loaded := subjects.Load(ctx)
	loaded[0].Scores.A = []int{7}
	if err := subjects.Save(ctx, loaded); err != nil {
		t.Fatalf("save: %v", err)
	}
	repo.Close()

	// Reopening runs migrations again, which must be a no-op.
	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	got := NewSubjectRepository(repo).Load(ctx)
	if len(got[0].Scores.A) != 1 || got[0].Scores.A[0] != 7 {
		t.Fatalf("expected persisted score, got %+v", got[0].Scores)
	}
}
