package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitManager manages per-IP rate limiters with lifecycle control.
type RateLimitManager struct {
	visitors   map[string]*visitor
	visitorsMu sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewRateLimitManager creates a new rate limit manager with context-based lifecycle.
func NewRateLimitManager(ctx context.Context) *RateLimitManager {
	managerCtx, cancel := context.WithCancel(ctx)

	m := &RateLimitManager{
		visitors: make(map[string]*visitor),
		ctx:      managerCtx,
		cancel:   cancel,
	}

	m.wg.Add(1)
	go m.cleanupLoop()

	return m
}

// GetVisitor retrieves or creates a rate limiter for the given IP.
func (m *RateLimitManager) GetVisitor(ip string, requestsPerWindow int, windowSeconds int, burst int) *rate.Limiter {
	m.visitorsMu.Lock()
	defer m.visitorsMu.Unlock()

	if requestsPerWindow <= 0 {
		return nil
	}

	v, exists := m.visitors[ip]
	if !exists {
		if windowSeconds <= 0 {
			windowSeconds = 60
		}

		limitPerSecond := float64(requestsPerWindow) / float64(windowSeconds)
		limit := rate.Limit(limitPerSecond)
		if limitPerSecond <= 0 {
			limit = rate.Inf
		}

		if burst <= 0 || burst < requestsPerWindow {
			burst = requestsPerWindow
		}

		limiter := rate.NewLimiter(limit, burst)
		m.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (m *RateLimitManager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.removeStaleVisitors(3 * time.Minute)
		}
	}
}

func (m *RateLimitManager) removeStaleVisitors(maxAge time.Duration) {
	m.visitorsMu.Lock()
	defer m.visitorsMu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for ip, v := range m.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(m.visitors, ip)
		}
	}
}

// Shutdown stops the cleanup goroutine and waits for it to exit.
func (m *RateLimitManager) Shutdown() {
	m.cancel()
	m.wg.Wait()
}
