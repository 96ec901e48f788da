package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"event-builder/internal/status"
	"event-builder/models"
	"event-builder/monitoring"

	"github.com/redis/go-redis/v9"
)

// SubmissionService runs a stored draft through EventBuilder.Submit and
// handles everything around it: one submit per draft at a time, a bounded
// wait on the event API, the audit log and the follow-up notifications.
type SubmissionService struct {
	Drafts   *DraftService
	Redis    redis.Cmdable
	Creator  EventCreator
	Log      SubmissionLog
	Events   EventPublisher
	Notifier Notifier

	Timeout time.Duration
	LockTTL time.Duration

	monitor *monitoring.Monitor
	now     func() time.Time
}

type SubmissionConfig struct {
	Timeout time.Duration
	LockTTL time.Duration
}

func NewSubmissionService(
	drafts *DraftService,
	redisClient redis.Cmdable,
	creator EventCreator,
	log SubmissionLog,
	events EventPublisher,
	notifier Notifier,
	monitor *monitoring.Monitor,
	cfg SubmissionConfig,
) *SubmissionService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.LockTTL < cfg.Timeout {
		cfg.LockTTL = 2 * cfg.Timeout
	}
	return &SubmissionService{
		Drafts:   drafts,
		Redis:    redisClient,
		Creator:  creator,
		Log:      log,
		Events:   events,
		Notifier: notifier,
		Timeout:  cfg.Timeout,
		LockTTL:  cfg.LockTTL,
		monitor:  monitor,
		now:      time.Now,
	}
}

func submitLockKey(draftID string) string {
	return fmt.Sprintf("lock:submit:%s", draftID)
}

// Submit sends the owner's draft to the event API. While one submit of a
// draft is in flight, others get status.ErrSubmissionInProgress. On success
// the stored draft is replaced by a fresh one; on failure it is left as is.
func (s *SubmissionService) Submit(ctx context.Context, ownerID, draftID string) (*models.CreatedEvent, error) {
	lockKey := submitLockKey(draftID)
	acquired, err := s.Redis.SetNX(ctx, lockKey, ownerID, s.LockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire submit lock: %w", err)
	}
	if !acquired {
		return nil, status.ErrSubmissionInProgress
	}
	defer func() {
		if err := s.Redis.Del(context.Background(), lockKey).Err(); err != nil {
			slog.Error("Failed to release submit lock", "error", err, "draft_id", draftID)
		}
	}()

	// Edits wait until the reset draft is stored, so none can bring the
	// submitted draft back.
	unlock, err := s.Drafts.Store.Lock(ctx, ownerID, draftID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	b, err := s.Drafts.Builder(ctx, ownerID, draftID)
	if err != nil {
		return nil, err
	}
	title := b.draft.Title

	callCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	start := time.Now()
	created, submitErr := b.Submit(callCtx, s.Creator)
	elapsed := time.Since(start)

	rec := models.SubmissionRecord{
		DraftID:     draftID,
		OwnerID:     ownerID,
		Title:       title,
		SubmittedAt: s.now(),
	}

	var verr *ValidationError
	switch {
	case errors.As(submitErr, &verr):
		rec.Outcome = models.SubmissionRejected
		rec.Message = verr.Message
		elapsed = 0
	case submitErr != nil:
		rec.Outcome = models.SubmissionFailed
		rec.Message = submitErr.Error()
	default:
		rec.Outcome = models.SubmissionSucceeded
		rec.EventID = created.ID
		rec.Message = "Event submitted"
	}
	s.monitor.TrackSubmission(string(rec.Outcome), elapsed)
	s.audit(ctx, rec)

	if submitErr != nil {
		kind := NotificationFailed
		if rec.Outcome == models.SubmissionRejected {
			kind = NotificationRejected
		}
		s.notify(ownerID, Notification{Type: kind, DraftID: draftID, Message: rec.Message})
		slog.Info("Submission not accepted", "draft_id", draftID, "outcome", rec.Outcome, "error", submitErr)
		return nil, submitErr
	}

	// The event exists now; a failed save only leaves the old draft behind.
	if err := s.Drafts.Store.Save(ctx, b.Draft()); err != nil {
		slog.Error("Failed to store reset draft", "error", err, "draft_id", draftID)
	}

	if s.Events != nil {
		if err := s.Events.PublishSubmitted(ctx, rec); err != nil {
			slog.Error("Failed to publish submission", "error", err, "draft_id", draftID)
		}
	}
	s.notify(ownerID, Notification{Type: NotificationSubmitted, DraftID: draftID, EventID: created.ID, Message: rec.Message})

	slog.Info("Event submitted", "draft_id", draftID, "event_id", created.ID, "took", elapsed)
	return created, nil
}

// History lists the owner's submission attempts, newest first.
func (s *SubmissionService) History(ctx context.Context, ownerID string, limit int) ([]models.SubmissionRecord, error) {
	if s.Log == nil {
		return []models.SubmissionRecord{}, nil
	}
	return s.Log.List(ctx, ownerID, limit)
}

func (s *SubmissionService) audit(ctx context.Context, rec models.SubmissionRecord) {
	if s.Log == nil {
		return
	}
	if err := s.Log.Record(ctx, rec); err != nil {
		slog.Error("Failed to record submission", "error", err, "draft_id", rec.DraftID)
	}
}

func (s *SubmissionService) notify(ownerID string, n Notification) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ownerID, n); err != nil {
		slog.Error("Failed to notify organizer", "error", err, "owner_id", ownerID)
	}
}
