package summary

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

	"github.com/rs/zerolog"

	"github.com/scribeflow/transcribe-gateway/internal/observability"
)

// Client is a Summarizer backed by a remote gateway's POST /summarize
// endpoint. It lets one gateway delegate summarization to another instead
// of talking to a model directly.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a client for the gateway at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout + 5*time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     observability.GetLogger().With().Str("component", "summary_client").Logger(),
	}
}

// Summarize implements Summarizer over HTTP
func (c *Client) Summarize(ctx context.Context, text string, maxSentences int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if maxSentences < 1 {
		maxSentences = DefaultMaxSentences
	}

	body, err := json.Marshal(SummarizeRequest{Text: text, MaxSentences: maxSentences})
	if err != nil {
		return "", &SummarizeError{Kind: ErrKindInvalidInput, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/summarize", bytes.NewReader(body))
	if err != nil {
		return "", &SummarizeError{Kind: ErrKindUpstreamFailure, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &SummarizeError{Kind: ErrKindTimeout, Err: err}
		}
		return "", &SummarizeError{Kind: ErrKindUpstreamFailure, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &errResp) == nil && errResp.Message != "" {
			return "", &SummarizeError{
				Kind: ErrKindUpstreamFailure,
				Err:  fmt.Errorf("summarize failed with status %d: %s", resp.StatusCode, errResp.Message),
			}
		}
		return "", &SummarizeError{
			Kind: ErrKindUpstreamFailure,
			Err:  fmt.Errorf("summarize failed with status %d", resp.StatusCode),
		}
	}

	var result SummarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &SummarizeError{Kind: ErrKindUpstreamFailure, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	c.logger.Debug().Int("summary_chars", len(result.Summary)).Msg("Remote summary received")
	return result.Summary, nil
}
