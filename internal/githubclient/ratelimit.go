package githubclient

import (
	"context"
	"sync"
	"time"

	"github.com/google/go-github/v55/github"
	"go.uber.org/zap"
)

// RateLimiter paces requests to the GitHub API. It enforces a minimum delay
// between calls and blocks until the limit resets when the API reports no
// remaining quota. All methods are safe for concurrent use.
type RateLimiter struct {
	mu        sync.Mutex
	minDelay  time.Duration
	lastCall  time.Time
	remaining int
	resetAt   time.Time
	logger    *zap.Logger
	now       func() time.Time
}

// NewRateLimiter creates a rate limiter with the given minimum delay between
// requests.
func NewRateLimiter(minDelay time.Duration, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		minDelay:  minDelay,
		remaining: -1, // unknown until the first response
		logger:    logger,
		now:       time.Now,
	}
}

// Wait blocks until the next request is allowed to go out.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	now := r.now()
	var delay time.Duration
	if !r.lastCall.IsZero() {
		if elapsed := now.Sub(r.lastCall); elapsed < r.minDelay {
			delay = r.minDelay - elapsed
		}
	}
	if r.remaining == 0 && r.resetAt.After(now) {
		if until := r.resetAt.Sub(now); until > delay {
			delay = until
		}
		r.logger.Warn("rate limit exhausted, waiting for reset",
			zap.Time("reset_at", r.resetAt),
			zap.Duration("wait", delay))
	}
	r.lastCall = now.Add(delay)
	r.mu.Unlock()

	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Update records the rate information from an API response.
func (r *RateLimiter) Update(rate github.Rate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remaining = rate.Remaining
	r.resetAt = rate.Reset.Time
	if rate.Remaining > 0 && rate.Remaining < 50 {
		r.logger.Warn("rate limit running low",
			zap.Int("remaining", rate.Remaining),
			zap.Time("reset_at", rate.Reset.Time))
	}
}

// Remaining returns the last reported remaining quota, or -1 if unknown.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}
