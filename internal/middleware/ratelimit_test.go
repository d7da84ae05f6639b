package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/eatrite/backend/internal/logging"
)

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	rl := NewRateLimiter(100, 100, logging.NewDefault("test"))

	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want %d", i, res.Code, http.StatusOK)
		}
	}
}

func TestRateLimiterBlocksBurstOverflow(t *testing.T) {
	rl := NewRateLimiter(1, 2, logging.NewDefault("test"))

	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		statuses = append(statuses, res.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Fatalf("first two statuses = %v, want 200s", statuses[:2])
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Fatalf("third status = %d, want %d", statuses[2], http.StatusTooManyRequests)
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, 1, logging.NewDefault("test"))

	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, addr := range []string{"10.0.0.3:1", "10.0.0.4:1", "10.0.0.5:1"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.RemoteAddr = addr
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusOK {
			t.Fatalf("addr %s status = %d, want %d", addr, res.Code, http.StatusOK)
		}
	}
}

func TestRateLimiterCleanupStops(t *testing.T) {
	rl := NewRateLimiter(1, 1, logging.NewDefault("test"))

	rl.StartCleanup(time.Millisecond)
	// Second start is a no-op rather than a second goroutine.
	rl.StartCleanup(time.Millisecond)

	rl.Stop()
	// Stop is idempotent and safe after shutdown.
	rl.Stop()

	rl.mu.RLock()
	stopped := rl.stop == nil
	rl.mu.RUnlock()
	if !stopped {
		t.Fatal("stop channel still set after Stop")
	}
}

func TestRateLimiterCleanupResetsOversizedMap(t *testing.T) {
	rl := NewRateLimiter(1, 1, logging.NewDefault("test"))
	defer rl.Stop()

	rl.mu.Lock()
	for i := 0; i < maxTrackedKeys+1; i++ {
		rl.limiters[string(rune(i))+"-key"] = rate.NewLimiter(rl.rate, rl.burst)
	}
	rl.mu.Unlock()

	rl.StartCleanup(time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		rl.mu.RLock()
		n := len(rl.limiters)
		rl.mu.RUnlock()
		if n == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("limiter map not reset by cleanup")
}

func TestRateLimiterPrefersUserKey(t *testing.T) {
	rl := NewRateLimiter(1, 1, logging.NewDefault("test"))

	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Same address, different authenticated users: both pass.
	for _, userID := range []string{"user-a", "user-b"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/preferences", nil)
		req.RemoteAddr = "10.0.0.6:1"
		req = req.WithContext(logging.WithUserID(req.Context(), userID))
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusOK {
			t.Fatalf("user %s status = %d, want %d", userID, res.Code, http.StatusOK)
		}
	}
}
