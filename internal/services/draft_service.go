package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"event-builder/models"
	"event-builder/monitoring"
	"event-builder/utils"
)

// DraftService loads a draft, applies one builder operation and stores the
// result under the draft's store lock. A failed operation is never stored.
type DraftService struct {
	Store   DraftStore
	monitor *monitoring.Monitor
	opts    []BuilderOption
}

func NewDraftService(store DraftStore, monitor *monitoring.Monitor, opts ...BuilderOption) *DraftService {
	return &DraftService{Store: store, monitor: monitor, opts: opts}
}

func (s *DraftService) Create(ctx context.Context, ownerID string) (*models.EventDraft, error) {
	b := NewDraftBuilder(utils.NewID(), ownerID, s.opts...)
	draft := b.Draft()
	if err := s.Store.Save(ctx, draft); err != nil {
		s.monitor.TrackDraftOperation("create", "error")
		return nil, err
	}
	s.monitor.TrackDraftOperation("create", "ok")
	slog.Info("Draft created", "draft_id", draft.ID, "owner_id", ownerID)
	return draft, nil
}

func (s *DraftService) Get(ctx context.Context, ownerID, draftID string) (*models.EventDraft, error) {
	return s.Store.Get(ctx, ownerID, draftID)
}

// Builder returns a builder over the stored draft without saving anything.
func (s *DraftService) Builder(ctx context.Context, ownerID, draftID string) (*EventBuilder, error) {
	draft, err := s.Store.Get(ctx, ownerID, draftID)
	if err != nil {
		return nil, err
	}
	return NewEventBuilder(draft, s.opts...), nil
}

func (s *DraftService) Discard(ctx context.Context, ownerID, draftID string) error {
	unlock, err := s.Store.Lock(ctx, ownerID, draftID)
	if err != nil {
		s.monitor.TrackDraftOperation("discard", "busy")
		return err
	}
	defer unlock()

	if err := s.Store.Delete(ctx, ownerID, draftID); err != nil {
		return err
	}
	s.monitor.TrackDraftOperation("discard", "ok")
	return nil
}

// Mutate runs fn against the stored draft and saves the draft only when fn
// succeeds. operation labels the metric.
func (s *DraftService) Mutate(ctx context.Context, ownerID, draftID, operation string, fn func(b *EventBuilder) error) (*models.EventDraft, error) {
	unlock, err := s.Store.Lock(ctx, ownerID, draftID)
	if err != nil {
		s.monitor.TrackDraftOperation(operation, "busy")
		return nil, err
	}
	defer unlock()

	b, err := s.Builder(ctx, ownerID, draftID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if err := fn(b); err != nil {
		s.monitor.TrackDraftOperation(operation, "rejected")
		return nil, err
	}

	draft := b.Draft()
	if err := s.Store.Save(ctx, draft); err != nil {
		s.monitor.TrackDraftOperation(operation, "error")
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	s.monitor.TrackDraftOperation(operation, "ok")
	slog.Debug("Draft updated", "draft_id", draftID, "operation", operation, "took", time.Since(start))
	return draft, nil
}
