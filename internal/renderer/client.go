package renderer

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
)

var (
	// ErrUnavailable covers health-check and transport failures: the render
	// service cannot be reached at all.
	ErrUnavailable = errors.New("render service unavailable")
	// ErrBadDocument covers 2xx responses that are not usable: wrong
	// content type or a body that is not a well-formed document.
	ErrBadDocument = errors.New("render service returned an invalid document")
)

const (
	ContentTypeHTML = "text/html"
	ContentTypePDF  = "application/pdf"
)

// Client calls the render service. Responses are only trusted after the
// status, content-type and (for HTML) doctype checks pass; anything else is
// a failure the caller must not record a download for.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("build health request failed: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// Preview renders the markup to a print-ready document. It returns the
// document bytes and the normalized content type (text/html or
// application/pdf).
func (c *Client) Preview(ctx context.Context, html string) ([]byte, string, error) {
	payload, err := json.Marshal(map[string]string{"html": html})
	if err != nil {
		return nil, "", fmt.Errorf("marshal preview request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/preview-resume", bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("build preview request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: preview status %d", ErrBadDocument, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read preview response failed: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, ContentTypePDF):
		if len(body) == 0 {
			return nil, "", fmt.Errorf("%w: empty pdf body", ErrBadDocument)
		}
		return body, ContentTypePDF, nil
	case strings.Contains(contentType, ContentTypeHTML):
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(string(body))), "<!doctype html") {
			return nil, "", fmt.Errorf("%w: body is not a full html document", ErrBadDocument)
		}
		return body, ContentTypeHTML, nil
	default:
		return nil, "", fmt.Errorf("%w: unexpected content type %q", ErrBadDocument, contentType)
	}
}
