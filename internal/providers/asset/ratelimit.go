package asset

import (
	"sync"
	"time"

	"assetmatch/internal/domain"
)

const (
	minuteWindow = time.Minute
	dayWindow    = 24 * time.Hour
)

// RateLimiter keeps independent per-minute and per-day counters for one provider.
// The minute counter restarts once a full minute has passed since the last
// admitted request; the day counter restarts 24h after its window opened.
type RateLimiter struct {
	provider string
	limit    *domain.RateLimit
	now      func() time.Time

	mu          sync.Mutex
	minuteCount int
	dayCount    int
	lastRequest time.Time
	dayStart    time.Time
}

// NewRateLimiter returns a limiter for the given ceilings. A nil limit never throttles.
func NewRateLimiter(provider string, limit *domain.RateLimit, now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	var copied *domain.RateLimit
	if limit != nil {
		l := *limit
		copied = &l
	}
	return &RateLimiter{provider: provider, limit: copied, now: now}
}

// Allow checks both windows and, when neither is exhausted, records the request.
// Check and increment happen under one lock so concurrent callers are all counted.
func (r *RateLimiter) Allow() error {
	if r == nil || r.limit == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.dayStart.IsZero() || now.Sub(r.dayStart) > dayWindow {
		r.dayStart = now
		r.dayCount = 0
	}
	if !r.lastRequest.IsZero() && now.Sub(r.lastRequest) > minuteWindow {
		r.minuteCount = 0
	}

	if rpm := r.limit.RequestsPerMinute; rpm > 0 && r.minuteCount >= rpm {
		return &domain.RateLimitError{Provider: r.provider, Window: domain.WindowMinute, Limit: rpm}
	}
	if rpd := r.limit.RequestsPerDay; rpd > 0 && r.dayCount >= rpd {
		return &domain.RateLimitError{Provider: r.provider, Window: domain.WindowDay, Limit: rpd}
	}

	r.minuteCount++
	r.dayCount++
	r.lastRequest = now
	return nil
}

// Usage reports the current counters.
func (r *RateLimiter) Usage() (minute, day int) {
	if r == nil {
		return 0, 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.minuteCount, r.dayCount
}
