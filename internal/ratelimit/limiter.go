// Package ratelimit paces requests per host.
package ratelimit

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter implements per-host rate limiting
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter allowing requestsPerSecond per host.
// A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait blocks until a request to rawURL's host is allowed
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host, err := hostOf(rawURL)
	if err != nil {
		return err
	}
	return l.limiter(host).Wait(ctx)
}

// allow reports whether a request may proceed now, consuming a token if so
func (l *Limiter) allow(rawURL string) bool {
	host, err := hostOf(rawURL)
	if err != nil {
		return false
	}
	return l.limiter(host).Allow()
}

// ApplyCrawlDelay slows a host down to one request per delay when that is
// stricter than the current rate. Used for robots.txt Crawl-delay.
func (l *Limiter) ApplyCrawlDelay(rawURL string, delay time.Duration) {
	if delay <= 0 {
		return
	}
	host, err := hostOf(rawURL)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.defaultRate
	if lim, exists := l.limiters[host]; exists {
		current = lim.Limit()
	}
	if every := rate.Every(delay); every < current {
		l.limiters[host] = rate.NewLimiter(every, 1)
	}
}

func (l *Limiter) limiter(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, exists := l.limiters[host]
	if !exists {
		lim = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.limiters[host] = lim
	}
	return lim
}

func hostOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return parsed.Host, nil
}
