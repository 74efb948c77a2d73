package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "transcribe_gateway_active_sessions",
		Help: "Number of active recording sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcribe_gateway_sessions_total",
		Help: "Total number of recording sessions processed",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transcribe_gateway_session_duration_seconds",
		Help:    "Duration of recording sessions in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	// Relay metrics
	activeProxyConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "transcribe_gateway_active_proxy_connections",
		Help: "Number of open client/upstream relay pairs",
	})

	totalProxyConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcribe_gateway_proxy_connections_total",
		Help: "Total number of relay pairs established",
	})

	framesRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcribe_gateway_frames_relayed_total",
		Help: "Total frames forwarded by the relay",
	}, []string{"direction", "kind"}) // direction: "inbound" or "outbound"; kind: "binary" or "text"

	// Transcript metrics
	transcriptFragments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcribe_gateway_transcript_fragments_total",
		Help: "Total transcript fragments received",
	}, []string{"finality"}) // finality: "interim" or "final"

	// Summarization metrics
	summaryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcribe_gateway_summary_requests_total",
		Help: "Total number of summarization requests",
	}, []string{"status"})

	summarySkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcribe_gateway_summary_skips_total",
		Help: "Scheduled summarization fires skipped before issuing a request",
	}, []string{"reason"}) // reason: "empty", "unchanged" or "in_flight"

	summaryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transcribe_gateway_summary_latency_seconds",
		Help:    "Summarization request latency in seconds",
		Buckets: []float64{0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcribe_gateway_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Audio metrics
	audioBytesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcribe_gateway_audio_bytes_total",
		Help: "Total audio bytes processed",
	}, []string{"direction"}) // direction: "in" or "out"

	audioChunksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcribe_gateway_audio_chunks_dropped_total",
		Help: "Audio chunks dropped because the socket was not ready",
	})
)

// Metrics tracks metrics for a single recording session
type Metrics struct {
	sessionID        string
	startTime        time.Time
	summaryStartTime time.Time
	mu               sync.Mutex
}

// NewSessionMetrics creates a new metrics tracker for a session
func NewSessionMetrics(sessionID string) *Metrics {
	return &Metrics{
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

// RecordSessionStart records the start of a session
func (m *Metrics) RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records the end of a session
func (m *Metrics) RecordSessionEnd() {
	activeSessions.Dec()
	duration := time.Since(m.startTime).Seconds()
	sessionDuration.Observe(duration)
}

// RecordFragment records one received transcript fragment
func (m *Metrics) RecordFragment(final bool) {
	finality := "interim"
	if final {
		finality = "final"
	}
	transcriptFragments.WithLabelValues(finality).Inc()
}

// RecordSummaryStart records the start of a summarization request
func (m *Metrics) RecordSummaryStart() {
	m.mu.Lock()
	m.summaryStartTime = time.Now()
	m.mu.Unlock()
}

// RecordSummaryEnd records the end of a summarization request
func (m *Metrics) RecordSummaryEnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.summaryStartTime.IsZero() {
		latency := time.Since(m.summaryStartTime).Seconds()
		summaryLatency.Observe(latency)
	}

	status := "success"
	if !success {
		status = "error"
	}
	summaryRequests.WithLabelValues(status).Inc()
}

// RecordSummarySkip records a scheduled fire that issued no request
func (m *Metrics) RecordSummarySkip(reason string) {
	summarySkips.WithLabelValues(reason).Inc()
}

// RecordError records an error
func (m *Metrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordAudioBytes records audio bytes processed
func (m *Metrics) RecordAudioBytes(direction string, bytes int64) {
	audioBytesProcessed.WithLabelValues(direction).Add(float64(bytes))
}

// RecordChunkDropped records an audio chunk dropped while the socket was not ready
func (m *Metrics) RecordChunkDropped() {
	audioChunksDropped.Inc()
}

// RecordProxyConnectionOpened records a newly established relay pair
func RecordProxyConnectionOpened() {
	activeProxyConnections.Inc()
	totalProxyConnections.Inc()
}

// RecordProxyConnectionClosed records a torn-down relay pair
func RecordProxyConnectionClosed() {
	activeProxyConnections.Dec()
}

// RecordFrameRelayed records one frame forwarded by the relay
func RecordFrameRelayed(direction, kind string) {
	framesRelayed.WithLabelValues(direction, kind).Inc()
}

// RecordRelayError records a relay error without a session tracker
func RecordRelayError(errorType string) {
	errorsTotal.WithLabelValues(errorType, "relay").Inc()
}
