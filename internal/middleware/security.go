package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aequanimitas-app/backend/pkg/clientip"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// --- In-process per-IP limiting (1/s, burst 10), in front of the Redis limiter ---

var (
	limiterEntries   = make(map[string]*limiterEntry)
	limiterEntriesMu sync.Mutex
	cleanupStarted   bool
)

const (
	globalRateLimitRPS   = 1
	globalRateLimitBurst = 10
	limiterCleanupEvery  = 5 * time.Minute
	limiterTTL           = 30 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

func limiterFor(ip string) *rate.Limiter {
	limiterEntriesMu.Lock()
	defer limiterEntriesMu.Unlock()
	startCleanupOnce()
	e, ok := limiterEntries[ip]
	if !ok {
		e = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(globalRateLimitRPS), globalRateLimitBurst),
			lastUse: time.Now(),
		}
		limiterEntries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func startCleanupOnce() {
	if cleanupStarted {
		return
	}
	cleanupStarted = true
	go func() {
		ticker := time.NewTicker(limiterCleanupEvery)
		defer ticker.Stop()
		for range ticker.C {
			limiterEntriesMu.Lock()
			now := time.Now()
			for ip, e := range limiterEntries {
				if now.Sub(e.lastUse) > limiterTTL {
					delete(limiterEntries, ip)
				}
			}
			limiterEntriesMu.Unlock()
		}
	}()
}

// GlobalRateLimit limits each IP to 1 req/s, burst 10. Returns 429 when exceeded.
func GlobalRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientip.RealClientIP(r)
		if !limiterFor(ip).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"message":"Too many requests. Please slow down."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProductionSecurity returns the middleware stack used in production:
// SecurityHeaders → GlobalRateLimit.
func ProductionSecurity() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		GlobalRateLimit,
	}
}
