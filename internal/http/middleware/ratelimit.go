package middleware

import (
	"net/http"
	"sync"
	"time"
)

// ipLimiter applies a token-bucket limit per client IP. Buckets refill
// continuously at rate tokens/sec up to burst.
type ipLimiter struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	rate    float64
	burst   int
}

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

func newIPLimiter(rate float64, burst int) *ipLimiter {
	l := &ipLimiter{
		buckets: make(map[string]*tokenBucket),
		rate:    rate,
		burst:   burst,
	}
	go l.evictStale()
	return l
}

// allow spends one token for ip, refilling the bucket for the time
// elapsed since the last request first.
func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[ip]
	if !ok {
		b = &tokenBucket{tokens: float64(l.burst), seen: now}
		l.buckets[ip] = b
	}

	b.tokens += now.Sub(b.seen).Seconds() * l.rate
	if b.tokens > float64(l.burst) {
		b.tokens = float64(l.burst)
	}
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// evictStale drops buckets idle for ten minutes so one-off visitors do
// not accumulate forever.
func (l *ipLimiter) evictStale() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-10 * time.Minute)
		l.mu.Lock()
		for ip, b := range l.buckets {
			if b.seen.Before(cutoff) {
				delete(l.buckets, ip)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimit rejects requests above rate requests/sec (with the given
// burst) per client IP with 429 and a JSON error body, matching the
// widget's expectations on the public endpoints.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := newIPLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// chi's RealIP middleware rewrites RemoteAddr from
			// X-Real-Ip / X-Forwarded-For before this runs.
			if !limiter.allow(r.RemoteAddr) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Too many requests. Please try again shortly."}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
