package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/api/problem"
	"golang.org/x/time/rate"
)

type RateLimitTier string

const (
	TierPublic RateLimitTier = "public"
	// TierLogin covers login and registration, limited per 15 minutes
	TierLogin RateLimitTier = "login"
)

// RateLimitConfig sets per-client budgets. Zero disables a tier.
type RateLimitConfig struct {
	PublicPerMinute   int
	LoginPer15Minutes int
}

// RateLimiter keeps one token bucket per client and tier.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	cfg      RateLimitConfig
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter starts a background sweep of idle entries; call Stop to end it.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		cfg:      cfg,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		tier := tierFor(r)
		limiter := rl.limiter(tier, clientKey(r))
		if limiter == nil || limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter(tier)))
		problem.Write(w, r, http.StatusTooManyRequests, problem.TypeRateLimited,
			"Too many requests, please try again later", nil, "")
	})
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) retryAfter(tier RateLimitTier) int {
	if tier == TierLogin {
		if rl.cfg.LoginPer15Minutes <= 0 {
			return 60
		}
		return int((15 * time.Minute / time.Duration(rl.cfg.LoginPer15Minutes)).Seconds())
	}
	return 60
}

func (rl *RateLimiter) limiter(tier RateLimitTier, key string) *rate.Limiter {
	var every time.Duration
	var burst int
	switch tier {
	case TierLogin:
		if rl.cfg.LoginPer15Minutes <= 0 {
			return nil
		}
		every = 15 * time.Minute / time.Duration(rl.cfg.LoginPer15Minutes)
		burst = rl.cfg.LoginPer15Minutes
	default:
		if rl.cfg.PublicPerMinute <= 0 {
			return nil
		}
		every = time.Minute / time.Duration(rl.cfg.PublicPerMinute)
		burst = rl.cfg.PublicPerMinute
	}

	lookup := string(tier) + ":" + key

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if entry, ok := rl.limiters[lookup]; ok {
		entry.lastSeen = rl.now()
		return entry.limiter
	}
	limiter := rate.NewLimiter(rate.Every(every), burst)
	rl.limiters[lookup] = &limiterEntry{limiter: limiter, lastSeen: rl.now()}
	return limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(15 * time.Minute)
		case <-rl.stop:
			return
		}
	}
}

// cleanup drops entries idle for longer than ttl
func (rl *RateLimiter) cleanup(ttl time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > ttl {
			delete(rl.limiters, key)
		}
	}
}

func tierFor(r *http.Request) RateLimitTier {
	if strings.HasSuffix(r.URL.Path, "/auth/login") || strings.HasSuffix(r.URL.Path, "/auth/register") {
		return TierLogin
	}
	return TierPublic
}

// clientKey is the connection's remote IP. Forwarding headers are ignored;
// the mock API is not meant to sit behind a proxy.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
