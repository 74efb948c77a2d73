package summary

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/scribeflow/transcribe-gateway/internal/observability"
)

// DefaultInterval is the periodic summarization cadence
const DefaultInterval = 60 * time.Second

const updatesBufferSize = 8

// Scheduler periodically summarizes the current transcript. Each tick it
// snapshots the transcript and skips the request when it is empty, unchanged
// since the last successful summary, or a previous request is still in
// flight. Requests run detached from the scheduler loop so Stop never
// cancels one mid-call.
type Scheduler struct {
	interval     time.Duration
	maxSentences int
	summarizer   Summarizer
	source       func() string
	history      *History

	mu       sync.Mutex
	baseline string // transcript snapshot of the last successful summary
	inFlight bool

	updates  chan SummaryItem
	done     chan struct{}
	stopOnce sync.Once

	metrics *observability.Metrics
	logger  zerolog.Logger
}

// SchedulerConfig configures a Scheduler
type SchedulerConfig struct {
	Interval     time.Duration // DefaultInterval when zero
	MaxSentences int           // DefaultMaxSentences when zero
	Summarizer   Summarizer
	Source       func() string // transcript snapshot provider
	Metrics      *observability.Metrics
}

// NewScheduler creates a scheduler; call Start to begin the periodic loop
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxSentences := cfg.MaxSentences
	if maxSentences < 1 {
		maxSentences = DefaultMaxSentences
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NewSessionMetrics("summary-scheduler")
	}

	return &Scheduler{
		interval:     interval,
		maxSentences: maxSentences,
		summarizer:   cfg.Summarizer,
		source:       cfg.Source,
		history:      NewHistory(),
		updates:      make(chan SummaryItem, updatesBufferSize),
		done:         make(chan struct{}),
		metrics:      metrics,
		logger:       observability.GetLogger().With().Str("component", "summary_scheduler").Logger(),
	}
}

// Start launches the periodic loop. The first summary fires immediately,
// subsequent ones every interval.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.fire()

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire()
		}
	}
}

// fire snapshots the transcript and launches a summarization request unless
// the skip conditions hold
func (s *Scheduler) fire() {
	text := s.source()

	if reason := s.begin(text); reason != "" {
		s.metrics.RecordSummarySkip(reason)
		s.logger.Debug().Str("reason", reason).Msg("Summary skipped")
		return
	}

	// Detached from the loop context so Stop cannot cancel a request
	// mid-call; the summarizer applies its own timeout.
	go func() {
		if _, err := s.complete(context.Background(), text); err != nil {
			s.logger.Warn().Err(err).Msg("Periodic summary failed")
		}
	}()
}

// begin claims the in-flight slot for text. It returns the skip reason, or
// "" when the caller may proceed.
func (s *Scheduler) begin(text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return "in_flight"
	}
	if strings.TrimSpace(text) == "" {
		return "empty"
	}
	if text == s.baseline {
		return "unchanged"
	}
	s.inFlight = true
	return ""
}

// complete runs one summarization request and releases the in-flight slot.
// On success the result is recorded in history, the debounce baseline
// advances, and subscribers are notified.
func (s *Scheduler) complete(ctx context.Context, text string) (SummaryItem, error) {
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	s.metrics.RecordSummaryStart()
	result, err := s.summarizer.Summarize(ctx, text, s.maxSentences)
	s.metrics.RecordSummaryEnd(err == nil)
	if err != nil {
		s.metrics.RecordError(string(ErrorKind(err)), "summary_scheduler")
		return SummaryItem{}, err
	}

	item := NewSummaryItem(result)
	if result != "" {
		s.history.Prepend(item)
	}

	s.mu.Lock()
	s.baseline = text
	s.mu.Unlock()

	select {
	case s.updates <- item:
	default:
		s.logger.Debug().Msg("Updates channel full, dropping summary notification")
	}

	return item, nil
}

// ForceSummary summarizes the current transcript immediately, bypassing the
// interval and the unchanged-transcript check. It blocks until the request
// finishes. An empty transcript yields an empty item without an upstream
// call; when a request is already in flight it returns ErrSummaryInFlight
// rather than issuing an overlapping one.
func (s *Scheduler) ForceSummary(ctx context.Context) (SummaryItem, error) {
	text := s.source()
	if strings.TrimSpace(text) == "" {
		s.metrics.RecordSummarySkip("empty")
		return NewSummaryItem(""), nil
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		s.metrics.RecordSummarySkip("in_flight")
		return SummaryItem{}, ErrSummaryInFlight
	}
	s.inFlight = true
	s.mu.Unlock()

	return s.complete(ctx, text)
}

// Updates returns the summary notification channel. Notifications are
// dropped when the buffer is full; the channel is never closed.
func (s *Scheduler) Updates() <-chan SummaryItem {
	return s.updates
}

// History returns the recorded summaries, most recent first
func (s *Scheduler) History() []SummaryItem {
	return s.history.Items()
}

// Latest returns the most recent summary, if any
func (s *Scheduler) Latest() (SummaryItem, bool) {
	return s.history.Latest()
}

// Stop halts the periodic loop. An in-flight request is left to finish.
// Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}
