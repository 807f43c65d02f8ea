package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	localSweepInterval = time.Minute
	localStaleAfter    = 3 * time.Minute
)

type localClient struct {
	lim  *rate.Limiter
	seen time.Time
}

// LocalLimiter is an in-process per-IP limiter used when Redis is not configured.
// Buckets idle for a few minutes are swept.
type LocalLimiter struct {
	mu      sync.Mutex
	clients map[string]*localClient
	r       rate.Limit
	burst   int
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewLocalLimiter creates a limiter and starts its sweep goroutine.
// Call Close to stop it.
func NewLocalLimiter(rps float64, burst int) *LocalLimiter {
	l := newLocalLimiter(rps, burst, time.Now)
	go l.sweepLoop()
	return l
}

func newLocalLimiter(rps float64, burst int, now func() time.Time) *LocalLimiter {
	return &LocalLimiter{
		clients: make(map[string]*localClient),
		r:       rate.Limit(rps),
		burst:   burst,
		now:     now,
		stop:    make(chan struct{}),
	}
}

// CheckIP consumes one token from the bucket of ip.
func (l *LocalLimiter) CheckIP(_ context.Context, ip string) (*RateLimitResult, error) {
	now := l.now()
	lim := l.get(ip, now)

	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return &RateLimitResult{Allowed: false, RetryAfter: time.Second}, nil
	}

	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		retry := delay.Round(time.Second)
		if retry < time.Second {
			retry = time.Second
		}
		return &RateLimitResult{Allowed: false, RetryAfter: retry}, nil
	}

	return &RateLimitResult{Allowed: true, Remaining: int64(lim.TokensAt(now))}, nil
}

// Close stops the sweep goroutine.
func (l *LocalLimiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *LocalLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if c, ok := l.clients[ip]; ok {
		c.seen = now
		return c.lim
	}
	lim := rate.NewLimiter(l.r, l.burst)
	l.clients[ip] = &localClient{lim: lim, seen: now}
	return lim
}

func (l *LocalLimiter) sweepLoop() {
	ticker := time.NewTicker(localSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.sweep(l.now())
		}
	}
}

func (l *LocalLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, c := range l.clients {
		if now.Sub(c.seen) > localStaleAfter {
			delete(l.clients, ip)
		}
	}
}

func (l *LocalLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
