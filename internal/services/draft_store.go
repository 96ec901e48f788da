package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"event-builder/internal/status"
	"event-builder/models"
	"event-builder/utils"

	"github.com/redis/go-redis/v9"
)

// DraftStore keeps drafts between requests. Get returns
// status.ErrDraftNotFound for unknown or expired drafts.
//
// Lock serializes writers of one draft: every load-change-save cycle runs
// while holding it. It waits up to the store's lock wait and then returns
// status.ErrDraftBusy. The returned func releases the lock.
type DraftStore interface {
	Get(ctx context.Context, ownerID, draftID string) (*models.EventDraft, error)
	Save(ctx context.Context, draft *models.EventDraft) error
	Delete(ctx context.Context, ownerID, draftID string) error
	Lock(ctx context.Context, ownerID, draftID string) (func(), error)
}

const (
	defaultLockTTL    = 30 * time.Second
	defaultLockWait   = 5 * time.Second
	lockRetryInterval = 25 * time.Millisecond
)

// releaseLockScript deletes the lock only while it still holds our token.
const releaseLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

func draftKey(ownerID, draftID string) string {
	return fmt.Sprintf("draft:%s:%s", ownerID, draftID)
}

func draftLockKey(ownerID, draftID string) string {
	return fmt.Sprintf("lock:draft:%s:%s", ownerID, draftID)
}

type RedisDraftStore struct {
	Redis redis.Cmdable
	TTL   time.Duration

	// LockTTL must outlive the longest write, a submit included.
	LockTTL  time.Duration
	LockWait time.Duration

	newToken func() string
}

func NewRedisDraftStore(redisClient redis.Cmdable, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{
		Redis:    redisClient,
		TTL:      ttl,
		LockTTL:  defaultLockTTL,
		LockWait: defaultLockWait,
		newToken: utils.NewID,
	}
}

func (s *RedisDraftStore) Lock(ctx context.Context, ownerID, draftID string) (func(), error) {
	key := draftLockKey(ownerID, draftID)
	token := s.newToken()
	deadline := time.Now().Add(s.LockWait)

	for {
		acquired, err := s.Redis.SetNX(ctx, key, token, s.LockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("lock draft: %w", err)
		}
		if acquired {
			break
		}
		if !time.Now().Before(deadline) {
			return nil, status.ErrDraftBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := s.Redis.Eval(context.Background(), releaseLockScript, []string{key}, token).Err(); err != nil {
				slog.Error("Failed to release draft lock", "error", err, "key", key)
			}
		})
	}, nil
}

func (s *RedisDraftStore) Get(ctx context.Context, ownerID, draftID string) (*models.EventDraft, error) {
	data, err := s.Redis.Get(ctx, draftKey(ownerID, draftID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, status.ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}

	var draft models.EventDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &draft, nil
}

// Save writes the draft and restarts its TTL.
func (s *RedisDraftStore) Save(ctx context.Context, draft *models.EventDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.Redis.Set(ctx, draftKey(draft.OwnerID, draft.ID), data, s.TTL).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, ownerID, draftID string) error {
	n, err := s.Redis.Del(ctx, draftKey(ownerID, draftID)).Result()
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	if n == 0 {
		return status.ErrDraftNotFound
	}
	return nil
}

// MemoryDraftStore keeps encoded drafts in process memory. Drafts never
// expire.
type MemoryDraftStore struct {
	LockWait time.Duration

	mu     sync.Mutex
	drafts map[string][]byte
	locks  map[string]*draftLock
}

type draftLock struct {
	held    chan struct{}
	waiters int
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{
		LockWait: defaultLockWait,
		drafts:   make(map[string][]byte),
		locks:    make(map[string]*draftLock),
	}
}

func (s *MemoryDraftStore) Lock(ctx context.Context, ownerID, draftID string) (func(), error) {
	key := draftKey(ownerID, draftID)

	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &draftLock{held: make(chan struct{}, 1)}
		s.locks[key] = l
	}
	l.waiters++
	s.mu.Unlock()

	done := func() {
		s.mu.Lock()
		l.waiters--
		if l.waiters == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}

	timer := time.NewTimer(s.LockWait)
	defer timer.Stop()

	select {
	case l.held <- struct{}{}:
	case <-ctx.Done():
		done()
		return nil, ctx.Err()
	case <-timer.C:
		done()
		return nil, status.ErrDraftBusy
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.held
			done()
		})
	}, nil
}

func (s *MemoryDraftStore) Get(_ context.Context, ownerID, draftID string) (*models.EventDraft, error) {
	s.mu.Lock()
	data, ok := s.drafts[draftKey(ownerID, draftID)]
	s.mu.Unlock()
	if !ok {
		return nil, status.ErrDraftNotFound
	}

	var draft models.EventDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &draft, nil
}

func (s *MemoryDraftStore) Save(_ context.Context, draft *models.EventDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	s.mu.Lock()
	s.drafts[draftKey(draft.OwnerID, draft.ID)] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryDraftStore) Delete(_ context.Context, ownerID, draftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := draftKey(ownerID, draftID)
	if _, ok := s.drafts[key]; !ok {
		return status.ErrDraftNotFound
	}
	delete(s.drafts, key)
	return nil
}
