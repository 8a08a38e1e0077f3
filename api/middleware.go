package api

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type RateLimiter struct {
	requests map[string]*ClientRequests
	mu       sync.Mutex
	max      int
	window   time.Duration
	keys     *KeyStore
}

type ClientRequests struct {
	count    int
	lastSeen time.Time
}

const (
	defaultMaxRequests = 100             // Maximum requests per window
	defaultWindow      = time.Minute * 5 // Window duration
)

// NewRateLimiter allows limit requests per client IP per window. Requests
// carrying a valid API key are not counted.
func NewRateLimiter(limit int, window time.Duration, keys *KeyStore) *RateLimiter {
	if limit <= 0 {
		limit = defaultMaxRequests
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &RateLimiter{
		requests: make(map[string]*ClientRequests),
		max:      limit,
		window:   window,
		keys:     keys,
	}
}

func (l *RateLimiter) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check for API key in Authorization header
		apiKey := r.Header.Get("Authorization")
		if apiKey != "" && l.keys != nil && l.keys.ValidateAPIKey(apiKey) {
			// API key is valid, bypass rate limiting
			next.ServeHTTP(w, r)
			return
		}

		// Get client IP
		clientIP, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			clientIP = r.RemoteAddr
		}

		l.mu.Lock()

		// Clean up old entries
		now := time.Now()
		for ip, req := range l.requests {
			if now.Sub(req.lastSeen) > l.window {
				delete(l.requests, ip)
			}
		}

		// Get or create client requests
		client, exists := l.requests[clientIP]
		if !exists {
			client = &ClientRequests{lastSeen: now}
			l.requests[clientIP] = client
		}

		reset := time.Unix(client.lastSeen.Add(l.window).Unix(), 0).Format(time.RFC3339)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.max))

		// Check rate limit
		if client.count >= l.max {
			l.mu.Unlock()
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", reset)
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		// Increment request count
		client.count++
		client.lastSeen = now
		remaining := l.max - client.count
		reset = time.Unix(client.lastSeen.Add(l.window).Unix(), 0).Format(time.RFC3339)
		l.mu.Unlock()

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", reset)

		next.ServeHTTP(w, r)
	})
}
