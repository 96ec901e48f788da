package security

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"event-builder/monitoring"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/hook"
	"github.com/redis/go-redis/v9"
)

const rateLimitWindow = time.Minute

type RateLimiter struct {
	redis   redis.Cmdable
	limit   int64
	monitor *monitoring.Monitor
	now     func() time.Time
}

func NewRateLimiter(redisClient redis.Cmdable, perMinute int, monitor *monitoring.Monitor) *RateLimiter {
	return &RateLimiter{
		redis:   redisClient,
		limit:   int64(perMinute),
		monitor: monitor,
		now:     time.Now,
	}
}

// identifier prefers the authenticated user over the client IP.
func identifier(e *core.RequestEvent) string {
	if e.Auth != nil {
		return "user:" + e.Auth.Id
	}
	return "ip:" + e.RealIP()
}

func (r *RateLimiter) key(e *core.RequestEvent) string {
	window := r.now().Truncate(rateLimitWindow).Unix()
	return fmt.Sprintf("ratelimit:%s:%d", identifier(e), window)
}

// DraftRateLimit caps mutating builder requests per caller per minute.
// Reads pass through untouched. Redis errors let the request through.
func (r *RateLimiter) DraftRateLimit() *hook.Handler[*core.RequestEvent] {
	return &hook.Handler[*core.RequestEvent]{
		Id: "eventBuilderRateLimit",
		Func: func(e *core.RequestEvent) error {
			if r.limit <= 0 || e.Request.Method == "GET" || e.Request.Method == "HEAD" {
				return e.Next()
			}

			ctx := e.Request.Context()
			key := r.key(e)
			count, err := r.redis.Incr(ctx, key).Result()
			if err != nil {
				slog.Error("Rate limit check failed", "error", err, "key", key)
				return e.Next()
			}
			if count == 1 {
				r.redis.Expire(ctx, key, rateLimitWindow)
			}
			if count > r.limit {
				r.monitor.TrackRateLimited(e.Request.Pattern)
				return apis.NewTooManyRequestsError("Rate limit exceeded. Please try again later.", nil)
			}
			return e.Next()
		},
	}
}

// AntiBot rejects clients announcing themselves as crawlers.
func (r *RateLimiter) AntiBot() *hook.Handler[*core.RequestEvent] {
	return &hook.Handler[*core.RequestEvent]{
		Id: "eventBuilderAntiBot",
		Func: func(e *core.RequestEvent) error {
			if isSuspiciousUserAgent(e.Request.Header.Get("User-Agent")) {
				return apis.NewForbiddenError("Access denied", nil)
			}
			return e.Next()
		},
	}
}

func isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(strings.ToLower(ua), pattern) {
			return true
		}
	}
	return false
}
