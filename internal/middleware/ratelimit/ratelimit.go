// Package ratelimit provides per-client request rate limiting for the
// HTTP API.
package ratelimit

import (
	"net/http"
	"sync"
	"time"
)

// Config holds rate limiter settings.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

// Limiter tracks request counts per client IP over a sliding one-minute
// window.
type Limiter struct {
	mu           sync.Mutex
	clients      map[string]*clientWindow
	stopCleanup  chan struct{}
	shutdownOnce sync.Once

	requestsPerMinute int
	cleanupInterval   time.Duration
}

type clientWindow struct {
	lastRequest time.Time
	requests    int
}

func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}

	l := &Limiter{
		clients:           make(map[string]*clientWindow),
		stopCleanup:       make(chan struct{}),
		requestsPerMinute: config.RequestsPerMinute,
		cleanupInterval:   config.CleanupInterval,
	}
	go l.runCleanup()
	return l
}

// Allow reports whether another request from the client fits the window.
func (l *Limiter) Allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.clients[clientIP]
	if !ok {
		l.clients[clientIP] = &clientWindow{lastRequest: now, requests: 1}
		return true
	}

	if now.Sub(w.lastRequest) > time.Minute {
		w.requests = 1
		w.lastRequest = now
		return true
	}

	w.requests++
	w.lastRequest = now
	return w.requests <= l.requestsPerMinute
}

// ActiveClients returns how many client windows are currently tracked.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Stop ends the background cleanup goroutine. Safe to call twice.
func (l *Limiter) Stop() {
	l.shutdownOnce.Do(func() {
		close(l.stopCleanup)
	})
}

func (l *Limiter) runCleanup() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.dropStale()
		case <-l.stopCleanup:
			return
		}
	}
}

func (l *Limiter) dropStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, w := range l.clients {
		if w.lastRequest.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
}

// Middleware rejects over-limit requests with 429 before they reach the
// handler. extractIP decides which request header identifies the client.
func (l *Limiter) Middleware(extractIP func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(extractIP(r)) {
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
