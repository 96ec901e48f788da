package monitoring

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

var (
	storedDrafts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_builder_stored_drafts",
			Help: "Current number of drafts kept in Redis",
		},
	)

	draftOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_builder_draft_operations_total",
			Help: "Total draft edit operations",
		},
		[]string{"operation", "status"},
	)

	submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_builder_submissions_total",
			Help: "Total event submissions by outcome",
		},
		[]string{"outcome"},
	)

	submissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "event_builder_submission_duration_seconds",
			Help:    "Duration of calls to the event API",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"outcome"},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_builder_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)
)

const draftKeyPattern = "draft:*"

// Monitor records builder metrics. A nil *Monitor is valid and still
// records, so services can be built without one in tests.
type Monitor struct {
	redis    redis.Cmdable
	interval time.Duration
}

func NewMonitor(redisClient redis.Cmdable) *Monitor {
	return &Monitor{redis: redisClient, interval: 30 * time.Second}
}

// Run refreshes the stored-draft gauge until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.collectDraftMetrics(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Monitor) collectDraftMetrics(ctx context.Context) {
	count, err := m.CountDrafts(ctx)
	if err != nil {
		slog.Error("Failed to count drafts", "error", err)
		return
	}
	storedDrafts.Set(float64(count))
}

// CountDrafts walks the draft keyspace with SCAN.
func (m *Monitor) CountDrafts(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := m.redis.Scan(ctx, cursor, draftKeyPattern, 500).Result()
		if err != nil {
			return 0, err
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

// Track draft operations
func (m *Monitor) TrackDraftOperation(operation, status string) {
	draftOperations.WithLabelValues(operation, status).Inc()
}

// Track submission outcome and event API latency
func (m *Monitor) TrackSubmission(outcome string, duration time.Duration) {
	submissions.WithLabelValues(outcome).Inc()
	if duration > 0 {
		submissionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	}
}

func (m *Monitor) TrackRateLimited(route string) {
	rateLimited.WithLabelValues(route).Inc()
}

// Serve exposes /metrics on its own port until ctx is done.
func Serve(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Metrics server listening", "port", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
