// Package session ties the streaming pieces together: one RecordingSession
// owns a stream client, an audio source, the transcript state and an
// optional summarization schedule. Sessions are constructed per caller;
// nothing here is shared process-wide, so any number can run concurrently.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scribeflow/transcribe-gateway/internal/audio"
	"github.com/scribeflow/transcribe-gateway/internal/config"
	"github.com/scribeflow/transcribe-gateway/internal/observability"
	"github.com/scribeflow/transcribe-gateway/internal/stream"
	"github.com/scribeflow/transcribe-gateway/internal/summary"
	"github.com/scribeflow/transcribe-gateway/internal/transcript"
)

// State is the lifecycle position of a RecordingSession
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Config configures a RecordingSession
type Config struct {
	// StreamURL is the WebSocket endpoint to transcribe through, usually
	// this gateway's own relay
	StreamURL string

	// APIKey is only needed when dialing the upstream service directly
	APIKey string

	// ConnectTimeout bounds session start
	ConnectTimeout time.Duration

	// Source provides the audio
	Source audio.Source

	// Summarizer enables periodic summaries when set
	Summarizer          summary.Summarizer
	SummaryInterval     time.Duration
	MaxSummarySentences int
}

// FromConfig builds a session Config from the service environment.
// streamURL is the relay endpoint the session dials. summarizeURL, when
// non-empty, enables periodic summaries through that gateway's
// POST /summarize contract. The caller supplies the audio Source.
func FromConfig(cfg *config.Config, streamURL, summarizeURL string) Config {
	c := Config{
		StreamURL:           streamURL,
		ConnectTimeout:      time.Duration(cfg.ConnectTimeout) * time.Second,
		SummaryInterval:     time.Duration(cfg.SummaryInterval) * time.Second,
		MaxSummarySentences: cfg.SummaryMaxSentences,
	}
	if summarizeURL != "" {
		c.Summarizer = summary.NewClient(summarizeURL, time.Duration(cfg.SummaryHTTPTimeout)*time.Second)
	}
	return c
}

// RecordingSession is one live transcription session
type RecordingSession struct {
	id     string
	client *stream.Client
	source audio.Source
	coord  *transcript.Coordinator
	sched  *summary.Scheduler

	mu      sync.RWMutex
	state   State
	started bool
	lastErr error

	done     chan struct{}
	stopOnce sync.Once

	metrics *observability.Metrics
	logger  zerolog.Logger
}

// New creates a session; call Start to begin streaming
func New(cfg Config) *RecordingSession {
	id := uuid.New().String()
	metrics := observability.NewSessionMetrics(id)
	coord := transcript.NewCoordinator()

	s := &RecordingSession{
		id: id,
		client: stream.NewClient(stream.ClientConfig{
			URL:            cfg.StreamURL,
			APIKey:         cfg.APIKey,
			ConnectTimeout: cfg.ConnectTimeout,
			Metrics:        metrics,
		}),
		source:  cfg.Source,
		coord:   coord,
		state:   StateIdle,
		done:    make(chan struct{}),
		metrics: metrics,
		logger: observability.WithCorrelationID(observability.NewCorrelationID()).
			With().Str("session_id", id).Logger(),
	}

	if cfg.Summarizer != nil {
		s.sched = summary.NewScheduler(summary.SchedulerConfig{
			Interval:     cfg.SummaryInterval,
			MaxSentences: cfg.MaxSummarySentences,
			Summarizer:   cfg.Summarizer,
			Source:       coord.Transcript,
			Metrics:      metrics,
		})
	}

	return s
}

// Start connects the stream, begins audio capture and launches the event
// loop. It returns once the socket is open; fragments then accumulate in
// the background until Stop.
func (s *RecordingSession) Start(ctx context.Context) error {
	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		return fmt.Errorf("session already stopped")
	default:
	}
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("session already started (state %s)", state)
	}
	s.state = StateConnecting
	s.mu.Unlock()

	if err := s.client.Connect(ctx); err != nil {
		// Nothing was consumed; the session may retry Start
		s.setState(StateIdle)
		s.setErr(err)
		return err
	}

	// A session may run without a source and only consume fragments
	if s.source != nil {
		if err := s.client.StartCapture(ctx, s.source); err != nil {
			err = classifyCaptureError(err)
			s.setErr(err)
			s.Stop()
			return err
		}
	}

	s.mu.Lock()
	s.state = StateStreaming
	s.started = true
	s.mu.Unlock()

	s.metrics.RecordSessionStart()
	if s.sched != nil {
		s.sched.Start(ctx)
	}
	go s.eventLoop()

	s.logger.Info().Str("state", StateStreaming.String()).Msg("Recording session started")
	return nil
}

// eventLoop applies stream events to the session until the stream ends or
// the session stops. After Stop no event mutates session state; remaining
// buffered events are discarded.
func (s *RecordingSession) eventLoop() {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.client.Events():
			if !ok {
				s.Stop()
				return
			}
			// The select may hand us a buffered event in the same instant
			// the session stops; nothing may touch state past that point.
			select {
			case <-s.done:
				return
			default:
			}
			switch ev.Type {
			case stream.EventConnected:
				s.logger.Debug().Msg("Upstream session acknowledged")
			case stream.EventFragment:
				s.coord.Apply(ev.Fragment.Text, ev.Fragment.Final)
			case stream.EventError:
				s.setErr(ev.Err)
				s.metrics.RecordError("stream", "session")
				s.logger.Warn().Err(ev.Err).Msg("Stream error")
			case stream.EventClosed:
				s.Stop()
				return
			}
		}
	}
}

// Stop ends the session: capture stops, the summary schedule halts and the
// socket closes. Safe to call at any time, any number of times; a second
// call has no observable effect. An in-flight summarization request is
// left to finish.
func (s *RecordingSession) Stop() {
	s.stopOnce.Do(func() {
		s.setState(StateStopping)
		close(s.done)

		if s.source != nil {
			s.source.Stop()
		}
		if s.sched != nil {
			s.sched.Stop()
		}
		s.client.Stop()

		s.mu.Lock()
		started := s.started
		s.state = StateIdle
		s.mu.Unlock()

		// The session gauge only moves for sessions that actually streamed
		if started {
			s.metrics.RecordSessionEnd()
		}
		s.logger.Info().Msg("Recording session stopped")
	})
}

// ID returns the session identifier
func (s *RecordingSession) ID() string {
	return s.id
}

// State returns the current lifecycle state
func (s *RecordingSession) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Err returns the most recent session error, if any
func (s *RecordingSession) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Transcript returns the committed transcript
func (s *RecordingSession) Transcript() string {
	return s.coord.Transcript()
}

// Pending returns the provisional interim suffix, if any
func (s *RecordingSession) Pending() string {
	return s.coord.Pending()
}

// Display returns the committed transcript plus any pending interim text
func (s *RecordingSession) Display() string {
	return s.coord.Display()
}

// ClearTranscript resets the transcript state
func (s *RecordingSession) ClearTranscript() {
	s.coord.Clear()
}

// Summaries returns recorded summaries, newest first. Nil when
// summarization is not configured.
func (s *RecordingSession) Summaries() []summary.SummaryItem {
	if s.sched == nil {
		return nil
	}
	return s.sched.History()
}

// SummaryUpdates returns the summary notification channel, or nil when
// summarization is not configured
func (s *RecordingSession) SummaryUpdates() <-chan summary.SummaryItem {
	if s.sched == nil {
		return nil
	}
	return s.sched.Updates()
}

// ForceSummary summarizes the current transcript immediately
func (s *RecordingSession) ForceSummary(ctx context.Context) (summary.SummaryItem, error) {
	if s.sched == nil {
		return summary.SummaryItem{}, fmt.Errorf("summarization not configured for this session")
	}
	return s.sched.ForceSummary(ctx)
}

func (s *RecordingSession) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *RecordingSession) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
