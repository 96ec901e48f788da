package utils

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"event-builder/internal/status"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Circuit Breaker Tests

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(clock *fakeClock) *CircuitBreaker {
	return NewCircuitBreakerWithSettings("test", BreakerSettings{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      10 * time.Second,
		FailureRatio: 0.5,
		Now:          clock.Now,
	})
}

func TestCircuitBreaker_NewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker("test")

	assert.Equal(t, "test", cb.Name())
	assert.Equal(t, uint32(20), cb.maxRequests)
	assert.Equal(t, 60*time.Second, cb.interval)
	assert.Equal(t, 30*time.Second, cb.timeout)
	assert.Equal(t, 0.6, cb.failureRatio)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_ExecuteSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	result, err := cb.Execute(ctx, func() (any, error) {
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.counts.Requests)
	assert.Equal(t, uint32(1), cb.counts.TotalSuccesses)
	assert.Equal(t, uint32(0), cb.counts.TotalFailures)
}

func TestCircuitBreaker_ExecuteFailure(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	expectedError := errors.New("test error")
	result, err := cb.Execute(ctx, func() (any, error) {
		return nil, expectedError
	})

	assert.ErrorIs(t, err, expectedError)
	assert.Nil(t, result)
	assert.Equal(t, uint32(1), cb.counts.TotalFailures)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_CancelledContext(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := cb.Execute(ctx, func() (any, error) {
		called = true
		return nil, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Equal(t, uint32(0), cb.counts.Requests)
}

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := newTestBreaker(clock)
	ctx := context.Background()
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(ctx, func() (any, error) { return nil, boom })
	}
	require.Equal(t, StateOpen, cb.State())

	_, err := cb.Execute(ctx, func() (any, error) { return "never", nil })
	assert.ErrorIs(t, err, status.ErrCircuitOpen)

	clock.Advance(11 * time.Second)
	assert.Equal(t, StateHalfOpen, cb.State())

	result, err := cb.Execute(ctx, func() (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := newTestBreaker(clock)
	ctx := context.Background()
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(ctx, func() (any, error) { return nil, boom })
	}
	clock.Advance(11 * time.Second)

	_, err := cb.Execute(ctx, func() (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_ClosedIntervalResetsCounts(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := newTestBreaker(clock)
	ctx := context.Background()
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_, _ = cb.Execute(ctx, func() (any, error) { return nil, boom })
	}
	clock.Advance(2 * time.Minute)

	_, _ = cb.Execute(ctx, func() (any, error) { return nil, boom })
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.counts.TotalFailures)
}

func TestCircuitBreaker_Concurrent(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cb.Execute(ctx, func() (any, error) { return nil, nil })
		}()
	}
	wg.Wait()

	assert.Equal(t, uint32(10), cb.counts.TotalSuccesses)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}

// Slug Tests

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		expected string
	}{
		{"Simple", "VIP", "vip"},
		{"Spaces", "General Admission", "general-admission"},
		{"Diacritics", "Niños", "ninos"},
		{"Accents", "Tercera Edad Café", "tercera-edad-cafe"},
		{"Punctuation runs", "  Early -- Bird!! ", "early-bird"},
		{"Digits", "Zone 2B", "zone-2b"},
		{"Only symbols", "!!!", ""},
		{"Empty", "", ""},
		{"Whitespace", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.label))
		})
	}
}

func TestNormalizer_Normalize(t *testing.T) {
	fixed := time.UnixMilli(1704067200123)
	n := NewNormalizer(func() time.Time { return fixed })

	assert.Equal(t, "preventa", n.Normalize("Preventa", "phase"))
	assert.Equal(t, "phase-1704067200123", n.Normalize("???", "phase"))
	assert.Equal(t, "sector-1704067200123", n.Normalize("", "sector"))
}

func TestNormalizer_DefaultClock(t *testing.T) {
	n := NewNormalizer(nil)
	assert.Regexp(t, regexp.MustCompile(`^profile-\d+$`), n.Normalize("", "profile"))
}

// Random Tests

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(4)
	require.NoError(t, err)
	assert.Len(t, code, 8)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]+$`), code)

	other, err := GenerateCode(4)
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

// Redis Tests

func TestRedisHealthCheck(t *testing.T) {
	client, mock := redismock.NewClientMock()

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, RedisHealthCheck(client))

	mock.ExpectPing().SetErr(errors.New("connection refused"))
	err := RedisHealthCheck(client)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis health check failed")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisOptions(t *testing.T) {
	opts := redisOptions("redis://:secret@cache:6380/2", RedisPool{Size: 8, MinIdleConns: 2, MaxRetries: 1})
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 8, opts.PoolSize)
	assert.Equal(t, 2, opts.MinIdleConns)
	assert.Equal(t, 1, opts.MaxRetries)

	// plain host:port with go-redis defaults kept
	opts = redisOptions("localhost:6379", RedisPool{})
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Zero(t, opts.PoolSize)
	assert.Zero(t, opts.MaxRetries)
}
