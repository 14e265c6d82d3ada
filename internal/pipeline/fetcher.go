package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/ppiankov/tenderwatch/internal/cache"
	"github.com/ppiankov/tenderwatch/internal/logger"
	"github.com/ppiankov/tenderwatch/internal/model"
	"github.com/ppiankov/tenderwatch/internal/ratelimit"
	"github.com/ppiankov/tenderwatch/internal/util"
)

// ErrDisallowed is returned when robots.txt forbids fetching a URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// StatusError reports a non-2xx response
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", e.Status)
}

// FetchError is returned once every attempt for a URL has failed
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// fetchSleepFunc waits between attempts; tests replace it to avoid real delays
var fetchSleepFunc = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Fetcher fetches HTML pages with retry, optional robots.txt checks, per-host pacing and caching
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	retry      RetryPolicy
	jitter     func() float64
	robots     *util.RobotsChecker
	limiter    *ratelimit.Limiter
	pages      cache.PageStore
	log        logger.Logger
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithLimiter paces requests per host
func WithLimiter(l *ratelimit.Limiter) FetcherOption {
	return func(f *Fetcher) { f.limiter = l }
}

// WithCache memoizes successful fetches in pages
func WithCache(pages cache.PageStore) FetcherOption {
	return func(f *Fetcher) { f.pages = pages }
}

// WithRobots enables robots.txt checks
func WithRobots() FetcherOption {
	return func(f *Fetcher) {
		f.robots = util.NewRobotsChecker(f.httpClient, f.userAgent)
	}
}

// WithLogger sets the logger for retry warnings
func WithLogger(l logger.Logger) FetcherOption {
	return func(f *Fetcher) { f.log = l }
}

// WithJitter overrides the jitter source, which must return values in [0,1)
func WithJitter(fn func() float64) FetcherOption {
	return func(f *Fetcher) { f.jitter = fn }
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(cfg model.HTTPConfig, opts ...FetcherOption) *Fetcher {
	retry := DefaultRetryPolicy()
	if cfg.RetryAttempts > 0 {
		retry.MaxAttempts = cfg.RetryAttempts
	}
	if cfg.RetryBaseDelay > 0 {
		retry.BaseDelay = cfg.RetryBaseDelay
	}

	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 5_000_000
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: util.NewTransport(cfg.HTTPProxy, cfg.HTTPSProxy),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
		retry:     retry,
		jitter:    rand.Float64,
		log:       logger.NewNop(),
	}

	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchResult contains the fetched page
type FetchResult struct {
	Body       []byte
	FinalURL   string
	StatusCode int
	FromCache  bool
}

// Fetch retrieves rawURL, retrying failed attempts with linear backoff.
// After the last attempt the error is a *FetchError wrapping the final cause.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.pages != nil {
		if page, ok := f.pages.Get(rawURL); ok {
			return &FetchResult{Body: page.Body, FinalURL: page.FinalURL, StatusCode: http.StatusOK, FromCache: true}, nil
		}
	}

	if f.robots != nil {
		allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, &FetchError{URL: rawURL, Attempts: 0, Err: err}
		}
		if !allowed {
			return nil, &FetchError{URL: rawURL, Attempts: 0, Err: ErrDisallowed}
		}
		if f.limiter != nil {
			f.limiter.ApplyCrawlDelay(rawURL, crawlDelay)
		}
	}

	attempts := f.retry.Attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			if f.pages != nil {
				page := cache.Page{Body: result.Body, FinalURL: result.FinalURL}
				f.pages.Put(rawURL, page)
				if result.FinalURL != rawURL {
					f.pages.Put(result.FinalURL, page)
				}
			}
			return result, nil
		}
		lastErr = err

		if !isRetryableFetchError(err) || ctx.Err() != nil {
			return nil, &FetchError{URL: rawURL, Attempts: attempt, Err: err}
		}
		if attempt == attempts {
			break
		}

		delay := f.retry.Backoff(attempt, f.jitter())
		f.log.Warn("GET failed, retrying",
			logger.String("url", rawURL),
			logger.Int("attempt", attempt),
			logger.Int("max_attempts", attempts),
			logger.Duration("sleep", delay),
			logger.Error(err),
		)
		if err := fetchSleepFunc(ctx, delay); err != nil {
			return nil, &FetchError{URL: rawURL, Attempts: attempt, Err: err}
		}
	}

	return nil, &FetchError{URL: rawURL, Attempts: attempts, Err: lastErr}
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &requestError{err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		Body:       body,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}, nil
}

// requestError marks failures building the request, which no retry can fix
type requestError struct {
	err error
}

func (e *requestError) Error() string { return "create request: " + e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

// isRetryableFetchError reports whether another attempt could succeed.
// Every network failure and every non-2xx status is retried.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return false
	}
	if errors.Is(err, ErrDisallowed) || errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// FetchPage returns the body and final URL of rawURL; it satisfies adapters.PageFetcher
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string) ([]byte, string, error) {
	result, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, "", err
	}
	return result.Body, result.FinalURL, nil
}
