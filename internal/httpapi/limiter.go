package httpapi

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// windowLimiter allows up to limit attempts per key in each fixed window.
type windowLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	buckets map[string]*attemptBucket
}

type attemptBucket struct {
	resetAt time.Time
	count   int
}

func newWindowLimiter(limit int, window time.Duration) *windowLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &windowLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*attemptBucket),
	}
}

func (l *windowLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	at := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.evict(at)
	bucket, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &attemptBucket{resetAt: at.Add(l.window), count: 1}
		return true
	}
	if bucket.count >= l.limit {
		return false
	}
	bucket.count++
	return true
}

// evict drops expired buckets so idle clients do not accumulate.
func (l *windowLimiter) evict(at time.Time) {
	for key, bucket := range l.buckets {
		if !at.Before(bucket.resetAt) {
			delete(l.buckets, key)
		}
	}
}

// clientKey identifies the caller by remote IP, without the port.
func clientKey(r *http.Request) string {
	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return host
}
