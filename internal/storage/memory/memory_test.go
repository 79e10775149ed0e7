package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"mypgrade/internal/storage"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("expected empty store")
	}
	if err := s.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	_ = s.Set(ctx, "k", "v2")
	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || v != "v2" || s.Len() != 1 {
		t.Fatalf("unexpected get: %q %v %v", v, ok, err)
	}
}

func TestNewFromFileSeeds(t *testing.T) {
	dir := t.TempDir()

	// Missing file -> empty store, which the repository turns into defaults.
	s := NewFromFile(storage.StorageKey, filepath.Join(dir, "missing.json"))
	if s.Len() != 0 {
		t.Fatalf("expected empty store")
	}

	path := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(path, []byte("\n[{\"id\":\"math\",\"name\":\"Mathematics\",\"scores\":{\"A\":5}}]\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFile(storage.StorageKey, path)
	subs := storage.NewSubjectRepository(s).Load(context.Background())
	if len(subs) != 1 || subs[0].ID != "math" || len(subs[0].Scores.A) != 1 {
		t.Fatalf("unexpected seeded subjects: %+v", subs)
	}
}
