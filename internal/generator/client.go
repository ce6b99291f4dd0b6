// Package generator talks to the external content-generation webhook. The
// workflow behind it is opaque; the contract is the request/response shape
// here, and every field of the response is treated as optional.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resumeguru/internal/model"
)

// ErrUpstreamDegraded is returned after the bounded retry budget is spent on
// transient provider failures. Callers show a degraded-service notice, never
// the raw error.
var ErrUpstreamDegraded = errors.New("generator upstream degraded")

const fallbackMessage = "I apologize, but I didn't receive a proper response."

// Request is the webhook payload. Source, Type and DisableToolUse are set
// by the client itself: the webhook is a shared automation endpoint and must
// be able to tell resume-creation traffic apart, and must never run
// unrelated tool actions on our behalf.
type Request struct {
	Message        string `json:"message"`
	SessionID      string `json:"sessionId"`
	UserID         string `json:"userId"`
	UserEmail      string `json:"userEmail"`
	Timestamp      string `json:"timestamp"`
	Source         string `json:"source"`
	Type           string `json:"type"`
	DisableToolUse bool   `json:"disableToolUse"`
}

type Response struct {
	Message       string               `json:"message"`
	ResumeHTML    string               `json:"resumeHtml"`
	CollectedInfo *model.CollectedInfo `json:"collectedInfo"`
	Error         string               `json:"error"`
}

type Config struct {
	WebhookURL string
	Source     string
	Type       string
	Timeout    time.Duration
	// MaxAttempts bounds retries on transient upstream failures. Non-transient
	// failures (4xx) are never retried.
	MaxAttempts int
	RetryDelay  time.Duration
}

type Client struct {
	httpClient *http.Client
	cfg        Config
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
	}
}

// Generate sends one turn to the webhook and returns a defensively parsed
// response: array payloads are unwrapped to their first element and missing
// fields fall back to safe defaults instead of failing the turn.
func (c *Client) Generate(ctx context.Context, bearerToken string, req Request) (*Response, error) {
	req.Source = c.cfg.Source
	req.Type = c.cfg.Type
	req.DisableToolUse = true
	if req.Timestamp == "" {
		req.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal generator request failed: %w", err)
	}

	var lastTransient error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 && c.cfg.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.RetryDelay):
			}
		}

		resp, transient, err := c.post(ctx, bearerToken, body)
		if err == nil {
			return resp, nil
		}
		if !transient {
			return nil, err
		}
		lastTransient = err
	}
	return nil, fmt.Errorf("%w: %v", ErrUpstreamDegraded, lastTransient)
}

func (c *Client) post(ctx context.Context, bearerToken string, body []byte) (*Response, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("build generator request failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if bearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearerToken)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, false, fmt.Errorf("generator request failed: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read generator response failed: %w", err)
	}

	if httpResp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("generator status %d: %s", httpResp.StatusCode, truncate(raw, 256))
	}
	if httpResp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("generator status %d: %s", httpResp.StatusCode, truncate(raw, 256))
	}

	parsed, err := parseResponse(raw)
	if err != nil {
		return nil, false, err
	}
	if parsed.Message == "" && isProviderError(parsed.Error) {
		return nil, true, fmt.Errorf("generator provider error: %s", parsed.Error)
	}
	if parsed.Message == "" {
		parsed.Message = fallbackMessage
	}
	return parsed, false, nil
}

// parseResponse accepts either a bare object or the array wrapping the
// workflow engine sometimes emits, unwrapping to the first element.
func parseResponse(raw []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty generator response")
	}

	if trimmed[0] == '[' {
		var wrapped []json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("parse generator array response failed: %w", err)
		}
		if len(wrapped) == 0 {
			return nil, errors.New("empty generator array response")
		}
		trimmed = wrapped[0]
	}

	var resp Response
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("parse generator response failed: %w", err)
	}
	return &resp, nil
}

// isProviderError classifies the error strings the workflow echoes when its
// own model provider fails; only those are worth retrying.
func isProviderError(msg string) bool {
	if msg == "" {
		return false
	}
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "provider") ||
		strings.Contains(lower, "upstream") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "overloaded")
}

func truncate(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
