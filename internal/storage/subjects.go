package storage

import (
	"context"
	"fmt"
	"log/slog"

	"mypgrade/internal/core"
)

// SubjectRepository loads and saves the whole subject collection as one
// JSON blob under StorageKey.
type SubjectRepository struct {
	kv  KVStore
	key string
}

func NewSubjectRepository(kv KVStore) *SubjectRepository {
	return &SubjectRepository{kv: kv, key: StorageKey}
}

// Load returns the stored collection, upgraded to the current shape. When
// nothing is stored, or the store or blob is unusable, the default subject
// set is returned and the failure is logged.
func (r *SubjectRepository) Load(ctx context.Context) []core.Subject {
	blob, ok, err := r.kv.Get(ctx, r.key)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read saved subjects, using defaults", "key", r.key, "error", err)
		return core.DefaultSubjects()
	}
	if !ok {
		slog.InfoContext(ctx, "No saved subjects, using defaults", "key", r.key)
		return core.DefaultSubjects()
	}

	subjects, err := DecodeSubjects(blob)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to parse saved subjects, using defaults", "key", r.key, "error", err)
		return core.DefaultSubjects()
	}

	slog.InfoContext(ctx, "Loaded saved subjects", "key", r.key, "count", len(subjects))
	return subjects
}

// Save overwrites the stored blob with the full collection.
func (r *SubjectRepository) Save(ctx context.Context, subjects []core.Subject) error {
	blob, err := EncodeSubjects(subjects)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, r.key, blob); err != nil {
		return fmt.Errorf("save subjects: %w", err)
	}
	return nil
}
