package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"event-builder/internal/status"
	"event-builder/models"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisDraftStore(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisDraftStore(client, 72*time.Hour)
	ctx := context.Background()

	draft := newTestBuilder(t).Draft()
	data, err := json.Marshal(draft)
	require.NoError(t, err)

	mock.ExpectSet("draft:user-1:draft-1", data, 72*time.Hour).SetVal("OK")
	require.NoError(t, store.Save(ctx, draft))

	mock.ExpectGet("draft:user-1:draft-1").SetVal(string(data))
	got, err := store.Get(ctx, "user-1", "draft-1")
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)
	assert.Equal(t, draft.TicketPhases[0].Combinations[0].ID, got.TicketPhases[0].Combinations[0].ID)
	assert.True(t, draft.UpdatedAt.Equal(got.UpdatedAt))

	mock.ExpectGet("draft:user-1:missing").RedisNil()
	_, err = store.Get(ctx, "user-1", "missing")
	assert.ErrorIs(t, err, status.ErrDraftNotFound)

	mock.ExpectGet("draft:user-1:broken").SetErr(errors.New("connection refused"))
	_, err = store.Get(ctx, "user-1", "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, status.ErrDraftNotFound)

	mock.ExpectDel("draft:user-1:draft-1").SetVal(1)
	require.NoError(t, store.Delete(ctx, "user-1", "draft-1"))

	mock.ExpectDel("draft:user-1:draft-1").SetVal(0)
	assert.ErrorIs(t, store.Delete(ctx, "user-1", "draft-1"), status.ErrDraftNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisDraftStore_CorruptValue(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisDraftStore(client, time.Hour)

	mock.ExpectGet("draft:user-1:draft-1").SetVal("{not json")
	_, err := store.Get(context.Background(), "user-1", "draft-1")
	assert.ErrorContains(t, err, "decode draft")
}

func TestMemoryDraftStore(t *testing.T) {
	store := NewMemoryDraftStore()
	ctx := context.Background()
	draft := newTestBuilder(t).Draft()

	_, err := store.Get(ctx, "user-1", "draft-1")
	assert.ErrorIs(t, err, status.ErrDraftNotFound)

	require.NoError(t, store.Save(ctx, draft))

	got, err := store.Get(ctx, "user-1", "draft-1")
	require.NoError(t, err)
	assert.Equal(t, "draft-1", got.ID)

	// owners do not see each other's drafts
	_, err = store.Get(ctx, "user-2", "draft-1")
	assert.ErrorIs(t, err, status.ErrDraftNotFound)

	// returned drafts are copies
	got.Title = "changed"
	again, _ := store.Get(ctx, "user-1", "draft-1")
	assert.Empty(t, again.Title)

	require.NoError(t, store.Delete(ctx, "user-1", "draft-1"))
	assert.ErrorIs(t, store.Delete(ctx, "user-1", "draft-1"), status.ErrDraftNotFound)
}

func TestDraftService_Mutate(t *testing.T) {
	store := NewMemoryDraftStore()
	svc := NewDraftService(store, nil,
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(sequentialIDs()),
	)
	ctx := context.Background()

	draft, err := svc.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, draft.ID)
	assert.Equal(t, "user-1", draft.OwnerID)

	updated, err := svc.Mutate(ctx, "user-1", draft.ID, "add_sector", func(b *EventBuilder) error {
		_, err := b.AddSector("VIP", "25")
		return err
	})
	require.NoError(t, err)
	assert.Len(t, updated.TicketSectors, 2)

	_, err = svc.Mutate(ctx, "user-1", draft.ID, "remove_sector", func(b *EventBuilder) error {
		if err := b.RemoveSector("vip"); err != nil {
			return err
		}
		return b.RemoveSector("general")
	})
	require.ErrorIs(t, err, status.ErrLastEntry)

	// a failed operation is not persisted, even its successful first half
	stored, err := svc.Get(ctx, "user-1", draft.ID)
	require.NoError(t, err)
	assert.Len(t, stored.TicketSectors, 2)

	_, err = svc.Mutate(ctx, "user-2", draft.ID, "add_profile", func(b *EventBuilder) error { return nil })
	assert.ErrorIs(t, err, status.ErrDraftNotFound)

	require.NoError(t, svc.Discard(ctx, "user-1", draft.ID))
	_, err = svc.Get(ctx, "user-1", draft.ID)
	assert.ErrorIs(t, err, status.ErrDraftNotFound)
}

type failingStore struct {
	*MemoryDraftStore
}

func (failingStore) Save(context.Context, *models.EventDraft) error {
	return errors.New("disk full")
}

func TestDraftService_SaveError(t *testing.T) {
	mem := NewMemoryDraftStore()
	require.NoError(t, mem.Save(context.Background(), newTestBuilder(t).Draft()))
	svc := NewDraftService(failingStore{mem}, nil)

	_, err := svc.Mutate(context.Background(), "user-1", "draft-1", "update_event", func(b *EventBuilder) error {
		b.UpdateEventFields(EventFields{Title: ptr("x")})
		return nil
	})
	assert.ErrorContains(t, err, "update_event")

	_, err = svc.Create(context.Background(), "user-1")
	assert.Error(t, err)
}

func TestDraftService_ConcurrentMutationsAllLand(t *testing.T) {
	store := NewMemoryDraftStore()
	svc := NewDraftService(store, nil)
	require.NoError(t, store.Save(context.Background(), newTestBuilder(t).Draft()))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Mutate(context.Background(), "user-1", "draft-1", "add_profile", func(b *EventBuilder) error {
				// stands in for store round-trip latency
				time.Sleep(5 * time.Millisecond)
				_, err := b.AddProfile(fmt.Sprintf("P%d", i), "")
				return err
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := store.Get(context.Background(), "user-1", "draft-1")
	require.NoError(t, err)
	assert.Len(t, stored.BuyerProfiles, 21)
	assert.Empty(t, store.locks)
}

func TestMemoryDraftStore_LockBusy(t *testing.T) {
	store := NewMemoryDraftStore()
	store.LockWait = 20 * time.Millisecond
	ctx := context.Background()

	unlock, err := store.Lock(ctx, "user-1", "draft-1")
	require.NoError(t, err)

	_, err = store.Lock(ctx, "user-1", "draft-1")
	assert.ErrorIs(t, err, status.ErrDraftBusy)

	// other drafts are not affected
	other, err := store.Lock(ctx, "user-1", "draft-2")
	require.NoError(t, err)
	other()

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.Lock(cancelled, "user-1", "draft-1")
	assert.ErrorIs(t, err, context.Canceled)

	unlock()
	unlock()
	again, err := store.Lock(ctx, "user-1", "draft-1")
	require.NoError(t, err)
	again()
}

func TestRedisDraftStore_Lock(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisDraftStore(client, time.Hour)
	store.LockWait = time.Second
	store.newToken = func() string { return "token-1" }
	ctx := context.Background()
	key := "lock:draft:user-1:draft-1"

	mock.ExpectSetNX(key, "token-1", 30*time.Second).SetVal(false)
	mock.ExpectSetNX(key, "token-1", 30*time.Second).SetVal(true)
	mock.ExpectEval(releaseLockScript, []string{key}, "token-1").SetVal(int64(1))

	unlock, err := store.Lock(ctx, "user-1", "draft-1")
	require.NoError(t, err)
	unlock()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisDraftStore_LockBusy(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisDraftStore(client, time.Hour)
	store.LockWait = 0
	store.newToken = func() string { return "token-1" }

	mock.ExpectSetNX("lock:draft:user-1:draft-1", "token-1", 30*time.Second).SetVal(false)
	_, err := store.Lock(context.Background(), "user-1", "draft-1")
	assert.ErrorIs(t, err, status.ErrDraftBusy)

	mock.ExpectSetNX("lock:draft:user-1:draft-1", "token-1", 30*time.Second).SetErr(errors.New("connection refused"))
	_, err = store.Lock(context.Background(), "user-1", "draft-1")
	assert.ErrorContains(t, err, "lock draft")

	assert.NoError(t, mock.ExpectationsWereMet())
}
