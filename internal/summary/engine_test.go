package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatCompletionJSON(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	})
	return string(body)
}

func newTestEngine(srv *httptest.Server, timeout time.Duration) *Engine {
	return NewEngine(EngineConfig{
		BaseURL: srv.URL,
		Model:   "test-model",
		Timeout: timeout,
	})
}

func TestEngine_Summarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatCompletionJSON("  The speaker greeted the audience.  "))
	}))
	defer srv.Close()

	engine := newTestEngine(srv, 5*time.Second)

	result, err := engine.Summarize(context.Background(), "Hello everyone, welcome to the talk.", 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result != "The speaker greeted the audience." {
		t.Errorf("Expected trimmed summary, got %q", result)
	}
}

func TestEngine_EmptyInputSkipsUpstream(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, chatCompletionJSON("should never be requested"))
	}))
	defer srv.Close()

	engine := newTestEngine(srv, 5*time.Second)

	for _, text := range []string{"", "   ", "\n\t "} {
		result, err := engine.Summarize(context.Background(), text, 3)
		if err != nil {
			t.Fatalf("Expected no error for %q, got %v", text, err)
		}
		if result != "" {
			t.Errorf("Expected empty summary for %q, got %q", text, result)
		}
	}

	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("Expected zero upstream calls, got %d", n)
	}
}

func TestEngine_PromptFormat(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatCompletionJSON("Summary."))
	}))
	defer srv.Close()

	engine := newTestEngine(srv, 5*time.Second)

	if _, err := engine.Summarize(context.Background(), "transcript text", 2); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if captured.Model != "test-model" {
		t.Errorf("Expected model test-model, got %q", captured.Model)
	}
	if len(captured.Messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(captured.Messages))
	}
	msg := captured.Messages[0]
	if msg.Role != "user" {
		t.Errorf("Expected user role, got %q", msg.Role)
	}
	if !strings.HasPrefix(msg.Content, "transcript text") {
		t.Errorf("Expected prompt to start with the transcript, got %q", msg.Content)
	}
	if !strings.Contains(msg.Content, "Summarize the above in 2 sentences.") {
		t.Errorf("Expected sentence instruction in prompt, got %q", msg.Content)
	}
}

func TestEngine_DefaultMaxSentences(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatCompletionJSON("Summary."))
	}))
	defer srv.Close()

	engine := newTestEngine(srv, 5*time.Second)

	if _, err := engine.Summarize(context.Background(), "some text", 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(captured.Messages[0].Content, "in 3 sentences") {
		t.Errorf("Expected default of 3 sentences, got %q", captured.Messages[0].Content)
	}
}

func TestEngine_TruncatesLongSummaries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatCompletionJSON("One. Two. Three. Four. Five."))
	}))
	defer srv.Close()

	engine := newTestEngine(srv, 5*time.Second)

	result, err := engine.Summarize(context.Background(), "long transcript", 2)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result != "One. Two." {
		t.Errorf("Expected %q, got %q", "One. Two.", result)
	}
}

func TestEngine_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		fmt.Fprint(w, chatCompletionJSON("too late"))
	}))
	defer srv.Close()

	engine := newTestEngine(srv, 100*time.Millisecond)

	_, err := engine.Summarize(context.Background(), "some transcript", 3)
	if err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
	if !IsTimeout(err) {
		t.Errorf("Expected timeout kind, got %v", err)
	}
}

func TestEngine_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "model not loaded"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	engine := newTestEngine(srv, 5*time.Second)

	_, err := engine.Summarize(context.Background(), "some transcript", 3)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if ErrorKind(err) != ErrKindUpstreamFailure {
		t.Errorf("Expected upstream_failure kind, got %v", ErrorKind(err))
	}
}

func TestEngine_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "chatcmpl-test", "object": "chat.completion", "choices": []}`)
	}))
	defer srv.Close()

	engine := newTestEngine(srv, 5*time.Second)

	_, err := engine.Summarize(context.Background(), "some transcript", 3)
	if err == nil {
		t.Fatal("Expected error for empty choices, got nil")
	}
	if ErrorKind(err) != ErrKindUpstreamFailure {
		t.Errorf("Expected upstream_failure kind, got %v", ErrorKind(err))
	}
}
