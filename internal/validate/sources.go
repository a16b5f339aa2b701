package validate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/veritas/internal/model"
)

const checkMaxRetries = 3

// SourceChecker probes evidence source URLs concurrently and records reachability
type SourceChecker struct {
	httpClient *http.Client
	maxWorkers int
	userAgent  string
	backoff    func(attempt int) time.Duration
}

// NewSourceChecker creates a checker using httpClient for HEAD requests
func NewSourceChecker(httpClient *http.Client, maxWorkers int, userAgent string) *SourceChecker {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	client := *httpClient
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 3 {
			return fmt.Errorf("stopped after 3 redirects")
		}
		return nil
	}
	if maxWorkers <= 0 {
		maxWorkers = 8
	}

	return &SourceChecker{
		httpClient: &client,
		maxWorkers: maxWorkers,
		userAgent:  userAgent,
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<attempt) * time.Second
		},
	}
}

type checkResult struct {
	statusCode int
	err        string
	reachable  bool
}

// Check returns a copy of items with Reachable set on every item that has a source URL.
// Items without a URL are left unchecked. Cancellation marks pending items unreachable.
func (c *SourceChecker) Check(ctx context.Context, items []model.EvidenceItem) []model.EvidenceItem {
	out := make([]model.EvidenceItem, len(items))
	copy(out, items)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, c.maxWorkers)

	for i := range out {
		if out[i].SourceURL == "" {
			continue
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				out[idx].Reachable = boolPtr(false)
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			result := c.checkWithRetry(ctx, out[idx].SourceURL)
			out[idx].Reachable = boolPtr(result.reachable)
		}(i)
	}

	wg.Wait()
	return out
}

func (c *SourceChecker) checkOnce(ctx context.Context, rawURL string) checkResult {
	result := c.request(ctx, http.MethodHead, rawURL)
	// Some servers refuse HEAD outright
	if result.statusCode == http.StatusMethodNotAllowed || result.statusCode == http.StatusNotImplemented {
		result = c.request(ctx, http.MethodGet, rawURL)
	}
	return result
}

func (c *SourceChecker) request(ctx context.Context, method, rawURL string) checkResult {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return checkResult{err: fmt.Sprintf("create request: %v", err)}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return checkResult{err: fmt.Sprintf("request failed: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	return checkResult{
		statusCode: resp.StatusCode,
		reachable:  resp.StatusCode >= 200 && resp.StatusCode < 400,
	}
}

// checkWithRetry retries transient failures with exponential backoff
func (c *SourceChecker) checkWithRetry(ctx context.Context, rawURL string) checkResult {
	var result checkResult
	for attempt := 0; attempt < checkMaxRetries; attempt++ {
		result = c.checkOnce(ctx, rawURL)
		if !isRetryable(result) || ctx.Err() != nil {
			return result
		}
		if attempt == checkMaxRetries-1 {
			break
		}
		wait := time.NewTimer(c.backoff(attempt))
		select {
		case <-ctx.Done():
			wait.Stop()
			return checkResult{err: ctx.Err().Error()}
		case <-wait.C:
		}
	}
	return result
}

// isRetryable reports 5xx, 429 and transient network failures
func isRetryable(result checkResult) bool {
	if result.statusCode >= 500 && result.statusCode < 600 {
		return true
	}
	if result.statusCode == http.StatusTooManyRequests {
		return true
	}
	s := strings.ToLower(result.err)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}

func boolPtr(b bool) *bool {
	return &b
}
