package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type summarizerFunc func(ctx context.Context, text string, maxSentences int) (string, error)

func (f summarizerFunc) Summarize(ctx context.Context, text string, maxSentences int) (string, error) {
	return f(ctx, text, maxSentences)
}

func postSummarize(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestSummarizeHandler(t *testing.T) {
	var gotText string
	var gotMax int
	handler := NewSummarizeHandler(summarizerFunc(func(ctx context.Context, text string, maxSentences int) (string, error) {
		gotText = text
		gotMax = maxSentences
		return "A recap.", nil
	}), 0)

	w := postSummarize(handler, `{"text": "hello world", "maxSentences": 2}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %s", ct)
	}

	var resp SummarizeResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Expected decodable response, got %v", err)
	}
	if resp.Summary != "A recap." {
		t.Errorf("Expected summary text, got %q", resp.Summary)
	}
	if _, err := time.Parse(time.RFC3339, resp.Timestamp); err != nil {
		t.Errorf("Expected RFC3339 timestamp, got %q", resp.Timestamp)
	}
	if gotText != "hello world" {
		t.Errorf("Expected text forwarded, got %q", gotText)
	}
	if gotMax != 2 {
		t.Errorf("Expected maxSentences 2, got %d", gotMax)
	}
}

func TestSummarizeHandler_DefaultMaxSentences(t *testing.T) {
	var gotMax int
	record := summarizerFunc(func(ctx context.Context, text string, maxSentences int) (string, error) {
		gotMax = maxSentences
		return "A recap.", nil
	})

	w := postSummarize(NewSummarizeHandler(record, 0), `{"text": "hello world"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if gotMax != DefaultMaxSentences {
		t.Errorf("Expected default maxSentences %d, got %d", DefaultMaxSentences, gotMax)
	}

	// A configured server default applies when the request omits the cap
	w = postSummarize(NewSummarizeHandler(record, 5), `{"text": "hello world"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if gotMax != 5 {
		t.Errorf("Expected configured maxSentences 5, got %d", gotMax)
	}

	// The request value wins over the server default
	w = postSummarize(NewSummarizeHandler(record, 5), `{"text": "hello world", "maxSentences": 1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if gotMax != 1 {
		t.Errorf("Expected request maxSentences 1, got %d", gotMax)
	}
}

func TestSummarizeHandler_EmptyText(t *testing.T) {
	handler := NewSummarizeHandler(summarizerFunc(func(ctx context.Context, text string, maxSentences int) (string, error) {
		if strings.TrimSpace(text) == "" {
			return "", nil
		}
		return "A recap.", nil
	}), 0)

	w := postSummarize(handler, `{"text": ""}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp SummarizeResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Summary != "" {
		t.Errorf("Expected empty summary, got %q", resp.Summary)
	}
}

func TestSummarizeHandler_MethodNotAllowed(t *testing.T) {
	handler := NewSummarizeHandler(summarizerFunc(func(ctx context.Context, text string, maxSentences int) (string, error) {
		t.Error("Summarizer should not be called")
		return "", nil
	}), 0)

	req := httptest.NewRequest(http.MethodGet, "/summarize", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestSummarizeHandler_MalformedBody(t *testing.T) {
	handler := NewSummarizeHandler(summarizerFunc(func(ctx context.Context, text string, maxSentences int) (string, error) {
		t.Error("Summarizer should not be called")
		return "", nil
	}), 0)

	w := postSummarize(handler, `{not json`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Expected decodable error body, got %v", err)
	}
	if resp.Error != "invalid_request" {
		t.Errorf("Expected invalid_request code, got %q", resp.Error)
	}
	if resp.Message == "" {
		t.Error("Expected a human-readable message")
	}
}

func TestSummarizeHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"timeout", &SummarizeError{Kind: ErrKindTimeout}, http.StatusGatewayTimeout, "timeout"},
		{"upstream", &SummarizeError{Kind: ErrKindUpstreamFailure}, http.StatusBadGateway, "upstream_failure"},
		{"invalid input", &SummarizeError{Kind: ErrKindInvalidInput}, http.StatusBadRequest, "invalid_input"},
		{"untyped", bytes.ErrTooLarge, http.StatusBadGateway, "upstream_failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewSummarizeHandler(summarizerFunc(func(ctx context.Context, text string, maxSentences int) (string, error) {
				return "", tt.err
			}), 0)

			w := postSummarize(handler, `{"text": "hello world"}`)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			var resp ErrorResponse
			json.NewDecoder(w.Body).Decode(&resp)
			if resp.Error != tt.expectedCode {
				t.Errorf("Expected error code %q, got %q", tt.expectedCode, resp.Error)
			}
		})
	}
}
