package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// sweepThreshold is the bucket count above which expired buckets are evicted.
const sweepThreshold = 1024

type bucket struct {
	count int
	until time.Time
}

// ipLimiter counts requests per client in fixed windows.
type ipLimiter struct {
	limit int
	per   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// take records one request for key. It reports whether the request is
// admitted, how many remain in the window and when the window resets.
func (l *ipLimiter) take(key string) (ok bool, remaining int, reset time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := l.now()
	b, found := l.buckets[key]
	if !found || !t.Before(b.until) {
		if !found && len(l.buckets) >= sweepThreshold {
			l.sweep(t)
		}
		b = &bucket{until: t.Add(l.per)}
		l.buckets[key] = b
	}
	if b.count >= l.limit {
		return false, 0, b.until
	}
	b.count++
	return true, l.limit - b.count, b.until
}

func (l *ipLimiter) sweep(t time.Time) {
	for key, b := range l.buckets {
		if !t.Before(b.until) {
			delete(l.buckets, key)
		}
	}
}

// RateLimit caps requests per client IP in fixed windows of length per.
// A non-positive limit disables the check. Rejections carry Retry-After and
// the API's JSON error body.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	return rateLimit(limit, per, time.Now)
}

func rateLimit(limit int, per time.Duration, now func() time.Time) func(http.Handler) http.Handler {
	l := &ipLimiter{limit: limit, per: per, now: now, buckets: make(map[string]*bucket)}
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining, reset := l.take(clientIPForRateLimit(r))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				retry := int(math.Ceil(reset.Sub(now()).Seconds()))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "rate_limited",
					"details": "too many requests, retry in " + strconv.Itoa(retry) + "s",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIPForRateLimit(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}

	return r.RemoteAddr
}
