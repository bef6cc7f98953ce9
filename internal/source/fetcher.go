package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// FetchError reports that the source page could not be retrieved
type FetchError struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d after %d attempt(s)", e.URL, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("fetch %s after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err wraps a FetchError
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// FetcherConfig configures the HTTP fetcher
type FetcherConfig struct {
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxBodyBytes   int64
}

// HTTPFetcher downloads listing pages with retry on 429 and 5xx
type HTTPFetcher struct {
	config     FetcherConfig
	httpClient *http.Client
}

// NewHTTPFetcher creates a fetcher; zero config values get defaults
func NewHTTPFetcher(cfg FetcherConfig) *HTTPFetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 10 << 20
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &HTTPFetcher{
		config: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
	}
}

// NewHTTPFetcherForSource creates a fetcher using the descriptor's request settings
func NewHTTPFetcherForSource(d *Descriptor) *HTTPFetcher {
	return NewHTTPFetcher(FetcherConfig{
		UserAgent:  d.UserAgent,
		Timeout:    d.Timeout,
		MaxRetries: d.MaxRetries,
	})
}

// Fetch returns the body of pageURL or a *FetchError
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	var (
		lastErr    error
		lastStatus int
		retryAfter time.Duration
	)

	attempts := f.config.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			wait := f.backoff(attempt, retryAfter)
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, &FetchError{URL: pageURL, Attempts: attempt - 1, Err: ctx.Err()}
			case <-t.C:
			}
		}

		body, status, ra, err := f.do(ctx, pageURL)
		if err == nil {
			return body, nil
		}

		lastErr, lastStatus, retryAfter = err, status, ra
		if !retryable(status, err) || ctx.Err() != nil {
			return nil, &FetchError{URL: pageURL, StatusCode: status, Attempts: attempt, Err: err}
		}
	}

	return nil, &FetchError{URL: pageURL, StatusCode: lastStatus, Attempts: attempts, Err: lastErr}
}

var errStatus = errors.New("unexpected status")

func (f *HTTPFetcher) do(ctx context.Context, pageURL string) ([]byte, int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		var ra time.Duration
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			ra = time.Duration(secs) * time.Second
		}
		return nil, resp.StatusCode, ra, fmt.Errorf("%w: %s", errStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, 0, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, 0, nil
}

func (f *HTTPFetcher) backoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return min(retryAfter, f.config.MaxBackoff)
	}
	d := f.config.InitialBackoff << (attempt - 2)
	return min(d, f.config.MaxBackoff)
}

func retryable(status int, err error) bool {
	if status == http.StatusTooManyRequests || status >= 500 {
		return true
	}
	// transport errors carry no status
	return status == 0 && err != nil
}
