package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"event-builder/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

const SubmissionsCollection = "event_submissions"

// SubmissionLog is the audit trail of submit attempts.
type SubmissionLog interface {
	Record(ctx context.Context, rec models.SubmissionRecord) error
	List(ctx context.Context, ownerID string, limit int) ([]models.SubmissionRecord, error)
}

type PocketBaseSubmissionLog struct {
	app core.App
}

func NewPocketBaseSubmissionLog(app core.App) *PocketBaseSubmissionLog {
	return &PocketBaseSubmissionLog{app: app}
}

func (l *PocketBaseSubmissionLog) Record(ctx context.Context, rec models.SubmissionRecord) error {
	collection, err := l.app.FindCollectionByNameOrId(SubmissionsCollection)
	if err != nil {
		return fmt.Errorf("find %s collection: %w", SubmissionsCollection, err)
	}

	record := core.NewRecord(collection)
	record.Set("draft_id", rec.DraftID)
	record.Set("owner_id", rec.OwnerID)
	record.Set("event_id", rec.EventID)
	record.Set("title", rec.Title)
	record.Set("outcome", string(rec.Outcome))
	record.Set("message", rec.Message)
	record.Set("submitted_at", rec.SubmittedAt)

	if err := l.app.SaveWithContext(ctx, record); err != nil {
		return fmt.Errorf("save submission: %w", err)
	}
	return nil
}

func (l *PocketBaseSubmissionLog) List(_ context.Context, ownerID string, limit int) ([]models.SubmissionRecord, error) {
	records, err := l.app.FindRecordsByFilter(
		SubmissionsCollection,
		"owner_id = {:ownerId}",
		"-submitted_at",
		limit,
		0,
		dbx.Params{"ownerId": ownerID},
	)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	out := make([]models.SubmissionRecord, 0, len(records))
	for _, r := range records {
		out = append(out, models.SubmissionRecord{
			DraftID:     r.GetString("draft_id"),
			OwnerID:     r.GetString("owner_id"),
			EventID:     r.GetString("event_id"),
			Title:       r.GetString("title"),
			Outcome:     models.SubmissionOutcome(r.GetString("outcome")),
			Message:     r.GetString("message"),
			SubmittedAt: r.GetDateTime("submitted_at").Time(),
		})
	}
	return out, nil
}

// MemorySubmissionLog keeps the audit trail in process memory.
type MemorySubmissionLog struct {
	mu      sync.Mutex
	records []models.SubmissionRecord
}

func NewMemorySubmissionLog() *MemorySubmissionLog {
	return &MemorySubmissionLog{}
}

func (l *MemorySubmissionLog) Record(_ context.Context, rec models.SubmissionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

// List returns the owner's records, newest first.
func (l *MemorySubmissionLog) List(_ context.Context, ownerID string, limit int) ([]models.SubmissionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []models.SubmissionRecord{}
	for _, r := range l.records {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
