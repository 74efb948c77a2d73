// Package summary generates and schedules bounded summaries of the live
// transcript. The model behind it is opaque: anything speaking the OpenAI
// chat-completions protocol works, the default being a local SmolLM2 served
// by the Docker Model Runner.
package summary

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/rs/zerolog"

	"github.com/scribeflow/transcribe-gateway/internal/observability"
)

// Default request bounds, matching the summarization service contract
const (
	DefaultMaxSentences = 3
	DefaultTimeout      = 30 * time.Second
)

// Summarizer turns transcript text into a summary of at most maxSentences
// sentences. Empty input yields "" without any upstream call.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxSentences int) (string, error)
}

// Engine is the model-backed Summarizer
type Engine struct {
	client  oai.Client
	model   string
	timeout time.Duration
	logger  zerolog.Logger
}

// EngineConfig configures the summarization engine
type EngineConfig struct {
	BaseURL     string        // OpenAI-compatible endpoint; empty uses the OpenAI default
	APIKey      string        // optional; local model runners ignore it
	Model       string
	Timeout     time.Duration // per-request bound; DefaultTimeout when zero
	HTTPTimeout time.Duration // transport-inclusive bound; Timeout+5s when zero
}

// NewEngine creates an engine for the given endpoint and model
func NewEngine(cfg EngineConfig) *Engine {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpTimeout := cfg.HTTPTimeout
	if httpTimeout <= 0 {
		httpTimeout = timeout + 5*time.Second
	}

	opts := []option.RequestOption{
		// Transport-level backstop behind the per-request context deadline
		option.WithHTTPClient(&http.Client{Timeout: httpTimeout}),
		// Failures surface to the caller; nothing here retries on its own
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Engine{
		client:  oai.NewClient(opts...),
		model:   cfg.Model,
		timeout: timeout,
		logger:  observability.GetLogger().With().Str("component", "summary_engine").Logger(),
	}
}

// Summarize implements Summarizer. The request is bounded by the engine
// timeout; a deadline hit surfaces as a timeout-kind SummarizeError.
func (e *Engine) Summarize(ctx context.Context, text string, maxSentences int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if maxSentences < 1 {
		maxSentences = DefaultMaxSentences
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	prompt := fmt.Sprintf("%s\n\nSummarize the above in %d sentences.", text, maxSentences)

	start := time.Now()
	resp, err := e.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: shared.ChatModel(e.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.UserMessage(prompt),
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &SummarizeError{Kind: ErrKindTimeout, Err: err}
		}
		return "", &SummarizeError{Kind: ErrKindUpstreamFailure, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &SummarizeError{Kind: ErrKindUpstreamFailure, Err: fmt.Errorf("empty choices in response")}
	}

	result := EnforceSentenceLimit(strings.TrimSpace(resp.Choices[0].Message.Content), maxSentences)

	e.logger.Debug().
		Int("input_chars", len(text)).
		Int("summary_chars", len(result)).
		Dur("latency", time.Since(start)).
		Msg("Summary generated")

	return result, nil
}
