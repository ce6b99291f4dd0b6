package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestClient(url string) *Client {
	return NewClient(Config{
		WebhookURL:  url,
		Source:      "resume-guru-frontend",
		Type:        "resume-creation",
		MaxAttempts: 3,
		RetryDelay:  0,
	})
}

func TestGenerateObjectResponse(t *testing.T) {
	var gotReq Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer token123" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message":    "What roles are you targeting?",
			"resumeHtml": "<div>draft</div>",
		})
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).Generate(context.Background(), "token123", Request{
		Message:   "hello",
		SessionID: "sid-1",
		UserID:    "7",
		UserEmail: "jane@example.com",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Message != "What roles are you targeting?" {
		t.Fatalf("message = %q", resp.Message)
	}
	if resp.ResumeHTML != "<div>draft</div>" {
		t.Fatalf("resumeHtml = %q", resp.ResumeHTML)
	}

	if gotReq.Source != "resume-guru-frontend" || gotReq.Type != "resume-creation" {
		t.Fatalf("request tags = %q/%q", gotReq.Source, gotReq.Type)
	}
	if !gotReq.DisableToolUse {
		t.Fatal("disableToolUse must always be sent")
	}
	if gotReq.Timestamp == "" {
		t.Fatal("timestamp must be filled in")
	}
}

func TestGenerateUnwrapsArrayResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"message":"first"},{"message":"second"}]`))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).Generate(context.Background(), "", Request{Message: "hi"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Message != "first" {
		t.Fatalf("message = %q, want first element", resp.Message)
	}
}

func TestGenerateEmptyMessageFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).Generate(context.Background(), "", Request{Message: "hi"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Message != fallbackMessage {
		t.Fatalf("message = %q, want fallback", resp.Message)
	}
}

func TestGenerateMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).Generate(context.Background(), "", Request{Message: "hi"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), "", Request{Message: "hi"})
	if !errors.Is(err, ErrUpstreamDegraded) {
		t.Fatalf("err = %v, want ErrUpstreamDegraded", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("attempts = %d, want 3", got)
	}
}

func TestGenerateRetriesProviderErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"error":"model provider overloaded"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), "", Request{Message: "hi"})
	if !errors.Is(err, ErrUpstreamDegraded) {
		t.Fatalf("err = %v, want ErrUpstreamDegraded", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("attempts = %d, want 3", got)
	}
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), "", Request{Message: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrUpstreamDegraded) {
		t.Fatal("4xx must not be classified as degraded upstream")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("attempts = %d, want 1", got)
	}
}
