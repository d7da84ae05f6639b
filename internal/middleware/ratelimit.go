package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/eatrite/backend/internal/errors"
	"github.com/eatrite/backend/internal/httputil"
	"github.com/eatrite/backend/internal/logging"
)

// maxTrackedKeys bounds the limiter map before cleanup resets it.
const maxTrackedKeys = 10000

// RateLimiter throttles requests per client key: the authenticated user when
// the request context already carries one, otherwise the remote address.
// Mounted ahead of the router (and therefore ahead of authentication) the
// context is never populated yet, so throttling is per remote address.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
	logger   *logging.Logger
	stop     chan struct{}
}

// NewRateLimiter creates a rate limiter.
func NewRateLimiter(requestsPerSecond, burst int, logger *logging.Logger) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		logger:   logger,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Handler returns the rate limiting middleware handler.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := GetUserID(r.Context())
		if key == "" {
			key = r.RemoteAddr
		}

		if !rl.getLimiter(key).Allow() {
			rl.logger.LogSecurityEvent(r.Context(), "rate_limit_exceeded", map[string]interface{}{
				"key":    key,
				"path":   r.URL.Path,
				"method": r.Method,
			})
			httputil.WriteError(w, errors.RateLimitExceeded(int(rl.rate), "1s"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// StartCleanup periodically resets the limiter map so abandoned keys do not
// accumulate. Calling it twice is a no-op; Stop terminates the goroutine.
func (rl *RateLimiter) StartCleanup(interval time.Duration) {
	rl.mu.Lock()
	if rl.stop != nil {
		rl.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	rl.stop = stop
	rl.mu.Unlock()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.mu.Lock()
				if len(rl.limiters) > maxTrackedKeys {
					rl.limiters = make(map[string]*rate.Limiter)
				}
				rl.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

// Stop terminates the cleanup goroutine. Safe to call without a prior
// StartCleanup, and more than once.
func (rl *RateLimiter) Stop() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.stop != nil {
		close(rl.stop)
		rl.stop = nil
	}
}
