package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"mypgrade/internal/amqp"
	"mypgrade/internal/core"
	applog "mypgrade/internal/log"
)

var ErrSubjectNotFound = errors.New("subject not found")

const (
	publishTimeout = 10 * time.Second
	outboxSize     = 32
)

// SubjectStore persists the whole subject collection.
type SubjectStore interface {
	Load(ctx context.Context) []core.Subject
	Save(ctx context.Context, subjects []core.Subject) error
}

// SnapshotPublisher announces the collection after each mutation.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, msg *amqp.SnapshotMessage) error
}

// GradeService owns the in-memory subject collection. Reads derive grades on
// demand; every mutation is saved, then queued for publishing. A single
// goroutine drains the queue in mutation order, off the lock.
type GradeService struct {
	mu        sync.RWMutex
	subjects  []core.Subject
	store     SubjectStore
	publisher SnapshotPublisher

	outbox  chan outboxEntry
	drained chan struct{}
	closed  bool
}

type outboxEntry struct {
	msg    *amqp.SnapshotMessage
	logger *applog.Logger
}

// NewGradeService loads the stored collection once. publisher may be nil.
func NewGradeService(ctx context.Context, store SubjectStore, publisher SnapshotPublisher) *GradeService {
	s := &GradeService{
		subjects:  store.Load(ctx),
		store:     store,
		publisher: publisher,
	}
	if publisher != nil {
		s.outbox = make(chan outboxEntry, outboxSize)
		s.drained = make(chan struct{})
		go s.publishLoop()
	}
	return s
}

// Subjects returns a copy of the current collection.
func (s *GradeService) Subjects() []core.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.CloneSubjects(s.subjects)
}

func (s *GradeService) Subject(id string) (core.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subject, ok := core.FindSubject(s.subjects, id)
	if !ok {
		return core.Subject{}, fmt.Errorf("%w: %s", ErrSubjectNotFound, id)
	}
	return core.CloneSubjects([]core.Subject{subject})[0], nil
}

func (s *GradeService) Dashboard() core.Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Aggregate(s.subjects)
}

// UpdateCriterion replaces one criterion's score list. An unknown subject id
// leaves the collection untouched and is not an error.
func (s *GradeService) UpdateCriterion(ctx context.Context, id string, key core.CriterionKey, scores []int) ([]core.Subject, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownCriterion, key)
	}
	if err := core.ValidateScores(scores); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := core.FindSubject(s.subjects, id); !ok {
		applog.FromContext(ctx).WarnContext(ctx, "Update for unknown subject ignored",
			applog.FieldSubjectID, id, applog.FieldCriterion, string(key))
		return core.CloneSubjects(s.subjects), nil
	}

	s.commit(ctx, amqp.ReasonUpdate, core.UpdateCriterionScores(s.subjects, id, key, scores))
	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogCriterionUpdated(ctx, applog.OpUpdate, id, string(key), scores)
	return core.CloneSubjects(s.subjects), nil
}

// AddScore parses raw and appends it to the criterion list.
func (s *GradeService) AddScore(ctx context.Context, id string, key core.CriterionKey, raw string) (core.Subject, error) {
	if !key.Valid() {
		return core.Subject{}, fmt.Errorf("%w: %q", core.ErrUnknownCriterion, key)
	}
	score, err := core.ParseScore(raw)
	if err != nil {
		return core.Subject{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	subject, ok := core.FindSubject(s.subjects, id)
	if !ok {
		return core.Subject{}, fmt.Errorf("%w: %s", ErrSubjectNotFound, id)
	}
	next, err := core.AppendScore(subject.Scores.Get(key), score)
	if err != nil {
		return core.Subject{}, err
	}

	return s.replace(ctx, amqp.ReasonAddScore, applog.OpAddScore, id, key, next), nil
}

// RemoveScore drops the score at index from the criterion list.
func (s *GradeService) RemoveScore(ctx context.Context, id string, key core.CriterionKey, index int) (core.Subject, error) {
	if !key.Valid() {
		return core.Subject{}, fmt.Errorf("%w: %q", core.ErrUnknownCriterion, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	subject, ok := core.FindSubject(s.subjects, id)
	if !ok {
		return core.Subject{}, fmt.Errorf("%w: %s", ErrSubjectNotFound, id)
	}
	next, err := core.RemoveScoreAt(subject.Scores.Get(key), index)
	if err != nil {
		return core.Subject{}, err
	}

	return s.replace(ctx, amqp.ReasonRemoveScore, applog.OpRemove, id, key, next), nil
}

// Reset restores the default subject set. Confirmation is the caller's job.
func (s *GradeService) Reset(ctx context.Context) []core.Subject {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commit(ctx, amqp.ReasonReset, core.Reset())
	applog.FromContext(ctx).InfoContext(ctx, "Subjects reset to defaults",
		applog.FieldOperation, applog.OpReset, applog.FieldSubjectCount, len(s.subjects))
	return core.CloneSubjects(s.subjects)
}

// replace must be called with s.mu held.
func (s *GradeService) replace(ctx context.Context, reason, op, id string, key core.CriterionKey, scores []int) core.Subject {
	s.commit(ctx, reason, core.UpdateCriterionScores(s.subjects, id, key, scores))
	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogCriterionUpdated(ctx, op, id, string(key), scores)

	subject, _ := core.FindSubject(s.subjects, id)
	return core.CloneSubjects([]core.Subject{subject})[0]
}

// commit swaps in next, saves it and queues a snapshot. Save failures are
// logged; the in-memory collection stays authoritative.
// Must be called with s.mu held.
func (s *GradeService) commit(ctx context.Context, reason string, next []core.Subject) {
	s.subjects = next
	logger := applog.FromContext(ctx)

	if err := s.store.Save(ctx, s.subjects); err != nil {
		applog.NewStructuredLogger(logger).LogError(ctx, "Failed to save subjects, keeping in-memory state", err,
			applog.ComponentStorage, applog.OpSave, applog.NewFields().WithReason(reason))
	}

	if s.outbox == nil || s.closed {
		return
	}
	s.enqueue(outboxEntry{msg: amqp.NewSnapshotMessage(reason, s.subjects), logger: logger})
}

// enqueue never blocks. Each snapshot carries the whole collection, so when
// the queue is full the oldest pending one is dropped for the newest.
// Must be called with s.mu held.
func (s *GradeService) enqueue(entry outboxEntry) {
	select {
	case s.outbox <- entry:
		return
	default:
	}

	select {
	case dropped := <-s.outbox:
		entry.logger.WithComponent(applog.ComponentAMQP).Warn("Snapshot queue full, dropping oldest snapshot",
			applog.FieldReason, dropped.msg.Reason)
	default:
	}
	select {
	case s.outbox <- entry:
	default:
		entry.logger.WithComponent(applog.ComponentAMQP).Warn("Snapshot queue full, dropping snapshot",
			applog.FieldReason, entry.msg.Reason)
	}
}

func (s *GradeService) publishLoop() {
	defer close(s.drained)
	for entry := range s.outbox {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := s.publisher.PublishSnapshot(ctx, entry.msg); err != nil {
			applog.NewStructuredLogger(entry.logger).LogError(ctx, "Failed to publish grade snapshot", err,
				applog.ComponentAMQP, applog.OpPublish, applog.NewFields().WithReason(entry.msg.Reason))
		}
		cancel()
	}
}

// Close flushes queued snapshots and releases the publisher when it holds a
// connection. Mutations after Close are saved but no longer published.
func (s *GradeService) Close() error {
	if s.outbox != nil {
		s.mu.Lock()
		if !s.closed {
			s.closed = true
			close(s.outbox)
		}
		s.mu.Unlock()
		<-s.drained
	}

	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}
