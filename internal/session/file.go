package session

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/scribeflow/transcribe-gateway/internal/audio"
	"github.com/scribeflow/transcribe-gateway/internal/observability"
	"github.com/scribeflow/transcribe-gateway/internal/stream"
	"github.com/scribeflow/transcribe-gateway/internal/transcript"
)

// trailingFinalWait is how long after the file drains we keep listening for
// the closing final fragment before settling for what arrived
const trailingFinalWait = 3 * time.Second

// FileTranscriber runs one-shot transcriptions of WAV files. The file is
// decoded to capture-format PCM and streamed through the same relay path a
// live session uses.
type FileTranscriber struct {
	streamURL      string
	connectTimeout time.Duration
	finalWait      time.Duration
	logger         zerolog.Logger
}

// NewFileTranscriber creates a transcriber that streams through streamURL
func NewFileTranscriber(streamURL string, connectTimeout time.Duration) *FileTranscriber {
	return &FileTranscriber{
		streamURL:      streamURL,
		connectTimeout: connectTimeout,
		finalWait:      trailingFinalWait,
		logger:         observability.GetLogger().With().Str("component", "file_transcriber").Logger(),
	}
}

// Transcribe streams the file at path and returns the committed transcript.
// isFinal reports whether the upstream service finalized the text; false
// means only interim results arrived before the wait expired.
func (ft *FileTranscriber) Transcribe(ctx context.Context, path string) (text string, isFinal bool, err error) {
	source := audio.NewFileSource(path)
	coord := transcript.NewCoordinator()
	client := stream.NewClient(stream.ClientConfig{
		URL:            ft.streamURL,
		ConnectTimeout: ft.connectTimeout,
	})

	if err := client.Connect(ctx); err != nil {
		return "", false, err
	}
	defer client.Stop()
	defer source.Stop()

	if err := client.StartCapture(ctx, source); err != nil {
		return "", false, classifyCaptureError(err)
	}

	start := time.Now()
	sawFinal := false
	drained := source.Drained()
	var grace <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return coord.Transcript(), sawFinal, ctx.Err()

		case <-drained:
			// All audio sent; allow the trailing final to arrive
			drained = nil
			grace = time.After(ft.finalWait)

		case <-grace:
			ft.logger.Debug().Dur("elapsed", time.Since(start)).Msg("No trailing final, returning interim state")
			return coord.Transcript(), sawFinal, nil

		case ev, ok := <-client.Events():
			if !ok {
				return coord.Transcript(), sawFinal, nil
			}
			switch ev.Type {
			case stream.EventFragment:
				coord.Apply(ev.Fragment.Text, ev.Fragment.Final)
				if ev.Fragment.Final {
					sawFinal = true
					if drained == nil {
						// The final for the last audio we sent
						ft.logger.Debug().Dur("elapsed", time.Since(start)).Msg("File transcription finalized")
						return coord.Transcript(), true, nil
					}
				}
			case stream.EventError:
				ft.logger.Warn().Err(ev.Err).Msg("Stream error during file transcription")
			case stream.EventClosed:
				return coord.Transcript(), sawFinal, nil
			}
		}
	}
}

// TranscribeFileRequest is the POST /transcribe-file request body
type TranscribeFileRequest struct {
	FilePath string `json:"filePath"`
}

// TranscribeFileResponse is the POST /transcribe-file success body
type TranscribeFileResponse struct {
	Transcript string `json:"transcript"`
	IsFinal    bool   `json:"isFinal"`
	Timestamp  string `json:"timestamp"`
}

// ErrorResponse is the body returned with any non-2xx status
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewTranscribeFileHandler returns the POST /transcribe-file handler
func NewTranscribeFileHandler(transcriber *FileTranscriber) http.HandlerFunc {
	logger := observability.GetLogger().With().Str("component", "transcribe_file_handler").Logger()

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only POST is supported")
			return
		}

		var req TranscribeFileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FilePath == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON with a filePath field")
			return
		}

		text, isFinal, err := transcriber.Transcribe(r.Context(), req.FilePath)
		if err != nil {
			logger.Error().Err(err).Str("file", req.FilePath).Msg("File transcription failed")
			switch {
			case SessionErrKind(err) == CaptureDeviceUnavailable:
				writeError(w, http.StatusNotFound, "file_not_found", "audio file does not exist")
			case SessionErrKind(err) == PermissionDenied:
				writeError(w, http.StatusForbidden, "permission_denied", "audio file is not readable")
			case stream.ConnectErrKind(err) != "":
				writeError(w, http.StatusBadGateway, "stream_unavailable", "could not open a transcription stream")
			default:
				writeError(w, http.StatusInternalServerError, "transcription_failed", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusOK, TranscribeFileResponse{
			Transcript: text,
			IsFinal:    isFinal,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
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
