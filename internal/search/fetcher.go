package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"
)

const (
	fetchAttempts    = 3
	fetchMaxRedirect = 3
)

// StatusError is a non-2xx answer to a page fetch
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Page is a fetched HTML document
type Page struct {
	HTML        string
	ContentType string
	FinalURL    string
}

// Fetcher downloads result pages for scraping retrievers
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	backoff   func(attempt int) time.Duration
}

// NewFetcher copies httpClient, caps its redirects and limits body size
func NewFetcher(httpClient *http.Client, userAgent string, maxBytes int64) *Fetcher {
	var client http.Client
	if httpClient != nil {
		client = *httpClient
	} else {
		client.Timeout = 30 * time.Second
	}
	client.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		if len(via) >= fetchMaxRedirect {
			return fmt.Errorf("stopped after %d redirects", fetchMaxRedirect)
		}
		return nil
	}
	if maxBytes <= 0 {
		maxBytes = 2 << 20
	}

	return &Fetcher{
		client:    &client,
		userAgent: userAgent,
		maxBytes:  maxBytes,
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<attempt) * time.Second
		},
	}
}

// Get performs a single GET
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{Code: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}

	return &Page{
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// GetWithRetry retries transient failures with exponential backoff
func (f *Fetcher) GetWithRetry(ctx context.Context, rawURL string) (*Page, error) {
	var err error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		var page *Page
		if page, err = f.Get(ctx, rawURL); err == nil {
			return page, nil
		}
		if !transient(err) || attempt == fetchAttempts-1 {
			break
		}

		wait := time.NewTimer(f.backoff(attempt))
		select {
		case <-ctx.Done():
			wait.Stop()
			return nil, ctx.Err()
		case <-wait.C:
		}
	}
	return nil, err
}

// transient reports whether a failed fetch is worth repeating
func transient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var status *StatusError
	if errors.As(err, &status) {
		return status.Code == http.StatusTooManyRequests || status.Code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}
