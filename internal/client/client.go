// Package client talks to a remote Veritas /verify endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/veritas/internal/model"
	"github.com/ppiankov/veritas/internal/pipeline"
	"github.com/ppiankov/veritas/internal/score"
)

// Client calls a remote verification service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for baseURL (e.g. http://localhost:8000).
// A nil httpClient gets a default with a 120s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/verify")
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// VerifyURL is the endpoint used for verification and probing
func (c *Client) VerifyURL() string {
	return c.baseURL + "/verify"
}

// Verify submits text and returns the normalized report.
// Progress is reported around the single remote call.
func (c *Client) Verify(ctx context.Context, text string, onProgress model.ProgressFunc) (*model.Report, error) {
	if strings.TrimSpace(text) == "" {
		return nil, pipeline.ErrInvalidInput
	}
	emit := func(stage string, percent int) {
		if onProgress != nil && ctx.Err() == nil {
			onProgress(model.ProgressEvent{Stage: stage, Percent: percent})
		}
	}

	body, err := json.Marshal(model.VerifyRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.VerifyURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	emit(pipeline.StageExtracting, 10)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &pipeline.TransportError{Stage: "remote", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, &pipeline.TransportError{Stage: "remote", Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, raw)
	}

	var wire model.VerifyResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &pipeline.TransportError{Stage: "remote", Err: fmt.Errorf("decode response: %w", err)}
	}
	emit(pipeline.StageAggregating, 90)

	results := wire.ClaimResults()
	trust := model.ClampConfidence(wire.OverallTrustScore)
	report := &model.Report{
		ID:                uuid.NewString(),
		CreatedAt:         time.Now().UTC(),
		OverallTrustScore: trust,
		Label:             score.Label(trust),
		Stats:             score.Tally(results),
		Claims:            results,
	}
	emit(pipeline.StageComplete, 100)
	return report, nil
}

// Run adapts Verify to the pipeline call shape
func (c *Client) Run(ctx context.Context, text string, onProgress model.ProgressFunc) (*model.Report, error) {
	return c.Verify(ctx, text, onProgress)
}

// Probe performs a GET on the verify endpoint. Any HTTP response means reachable.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.VerifyURL(), nil)
	if err != nil {
		return fmt.Errorf("create probe: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	return resp.Body.Close()
}

// StatusError is a non-200 answer from the service
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	return e.Detail
}

func statusError(code int, body []byte) error {
	var e model.ErrorResponse
	if err := json.Unmarshal(body, &e); err != nil || strings.TrimSpace(e.Detail) == "" {
		return &StatusError{Code: code, Detail: fmt.Sprintf("Server Error: %d", code)}
	}
	if code == http.StatusBadRequest {
		return fmt.Errorf("%w: %s", pipeline.ErrInvalidInput, e.Detail)
	}
	if code == http.StatusBadGateway || code == http.StatusServiceUnavailable {
		return &pipeline.TransportError{Stage: "remote", Err: &StatusError{Code: code, Detail: e.Detail}}
	}
	return &StatusError{Code: code, Detail: e.Detail}
}
