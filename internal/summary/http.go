package summary

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/scribeflow/transcribe-gateway/internal/observability"
)

// SummarizeRequest is the POST /summarize request body
type SummarizeRequest struct {
	Text         string `json:"text"`
	MaxSentences int    `json:"maxSentences,omitempty"`
}

// SummarizeResponse is the POST /summarize success body
type SummarizeResponse struct {
	Summary   string `json:"summary"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the body returned with any non-2xx status
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewSummarizeHandler returns the POST /summarize handler backed by the
// given summarizer. defaultMaxSentences caps summaries when the request
// omits maxSentences; values below 1 fall back to DefaultMaxSentences.
func NewSummarizeHandler(summarizer Summarizer, defaultMaxSentences int) http.HandlerFunc {
	if defaultMaxSentences < 1 {
		defaultMaxSentences = DefaultMaxSentences
	}
	logger := observability.GetLogger().With().Str("component", "summarize_handler").Logger()

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only POST is supported")
			return
		}

		var req SummarizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON with a text field")
			return
		}

		maxSentences := req.MaxSentences
		if maxSentences < 1 {
			maxSentences = defaultMaxSentences
		}

		result, err := summarizer.Summarize(r.Context(), req.Text, maxSentences)
		if err != nil {
			logger.Error().Err(err).Msg("Summarization failed")
			switch ErrorKind(err) {
			case ErrKindTimeout:
				writeError(w, http.StatusGatewayTimeout, "timeout", "summarization service did not respond in time")
			case ErrKindInvalidInput:
				writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
			default:
				writeError(w, http.StatusBadGateway, "upstream_failure", "summarization service request failed")
			}
			return
		}

		writeJSON(w, http.StatusOK, SummarizeResponse{
			Summary:   result,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
