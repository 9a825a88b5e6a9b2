package surrogated

import (
	"fmt"
	"math"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitError is returned when a client submits studies faster than allowed
type RateLimitError struct {
	Client     string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many study submissions from %s, retry after %s", e.Client, e.RetryAfter)
}

// RetryAfterSeconds rounds the wait up to whole seconds, minimum one
func (e *RateLimitError) RetryAfterSeconds() int {
	return max(int(math.Ceil(e.RetryAfter.Seconds())), 1)
}

// MinIdleTTL is the shortest time a client bucket is kept after its last use
const MinIdleTTL = 10 * time.Minute

// SubmitLimiter throttles study submissions with one token bucket per client.
// A nil limiter admits everything.
//
// Buckets unused for the idle TTL are swept. The TTL is never shorter than the
// time a bucket needs to refill completely, so a swept client returns to a full
// bucket exactly as if it had been kept.
type SubmitLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	buckets   map[string]*clientBucket
	lastSweep time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewSubmitLimiter allows perSecond submissions per client with the given
// burst. It returns nil when perSecond is not positive.
func NewSubmitLimiter(perSecond float64, burst int) *SubmitLimiter {
	if perSecond <= 0 {
		return nil
	}
	burst = max(burst, 1)
	refill := time.Duration(float64(burst) / perSecond * float64(time.Second))
	return &SubmitLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idleTTL: max(refill, MinIdleTTL),
		now:     time.Now,
		buckets: make(map[string]*clientBucket),
	}
}

// Allow takes a token for client or returns a *RateLimitError
func (l *SubmitLimiter) Allow(client string) error {
	if l == nil {
		return nil
	}
	now := l.now()
	bucket := l.touch(client, now)
	if bucket.AllowN(now, 1) {
		return nil
	}
	// Reserve only to learn the wait; cancelling returns the token.
	res := bucket.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	res.CancelAt(now)
	return &RateLimitError{Client: client, RetryAfter: delay}
}

// touch returns the client's limiter, creating it on first use, and sweeps
// idle buckets at most once per idle TTL
func (l *SubmitLimiter) touch(client string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[client]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[client] = b
	}
	b.lastSeen = now

	if now.Sub(l.lastSweep) >= l.idleTTL {
		for key, other := range l.buckets {
			if now.Sub(other.lastSeen) >= l.idleTTL {
				delete(l.buckets, key)
			}
		}
		l.lastSweep = now
	}
	return b.limiter
}

// clients returns the number of tracked client buckets
func (l *SubmitLimiter) clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// clientKey strips the port from a remote address
func clientKey(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	if addr == "" {
		return "unknown"
	}
	return addr
}
