package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	apperrors "natours/internal/errors"
)

const counterTimeout = 100 * time.Millisecond

// Counter is an expiring shared counter. *cache.Client implements it.
type Counter interface {
	Enabled() bool
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// WindowStore is a fixed-window rate limiter store backed by a shared
// counter, so every instance of the service sees the same budget. Counter
// errors let the request through.
type WindowStore struct {
	counter Counter
	limit   int64
	window  time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewWindowStore allows limit requests per identifier per window.
func NewWindowStore(counter Counter, limit int, window time.Duration, logger *slog.Logger) *WindowStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &WindowStore{
		counter: counter,
		limit:   int64(limit),
		window:  window,
		logger:  logger,
		now:     time.Now,
	}
}

// Allow implements middleware.RateLimiterStore.
func (s *WindowStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), counterTimeout)
	defer cancel()

	bucket := s.now().Truncate(s.window).Unix()
	key := fmt.Sprintf("ratelimit:%s:%d", identifier, bucket)
	n, err := s.counter.Incr(ctx, key, s.window)
	if err != nil {
		s.logger.Warn("rate limit counter unavailable", "error", err)
		return true, nil
	}
	return n <= s.limit, nil
}

// RateLimit limits each client IP to limit requests per window. The shared
// counter is used when it is enabled, an in-process token bucket otherwise.
func RateLimit(counter Counter, limit int, window time.Duration, logger *slog.Logger) echo.MiddlewareFunc {
	var store middleware.RateLimiterStore
	if counter != nil && counter.Enabled() {
		store = NewWindowStore(counter, limit, window, logger)
	} else {
		store = middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(limit) / window.Seconds()),
			Burst:     limit,
			ExpiresIn: window,
		})
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(echo.Context, string, error) error {
			return apperrors.ErrTooManyRequests
		},
	})
}
