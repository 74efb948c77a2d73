package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scribeflow/transcribe-gateway/internal/config"
	"github.com/scribeflow/transcribe-gateway/internal/observability"
	"github.com/scribeflow/transcribe-gateway/internal/relay"
	"github.com/scribeflow/transcribe-gateway/internal/session"
	"github.com/scribeflow/transcribe-gateway/internal/summary"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	wsEndpoint := fmt.Sprintf("ws://localhost:%s/ws", cfg.Port)
	if cfg.PublicURL != "" {
		base := strings.TrimRight(cfg.PublicURL, "/")
		base = strings.Replace(base, "https://", "wss://", 1)
		base = strings.Replace(base, "http://", "ws://", 1)
		wsEndpoint = base + "/ws"
	}

	logger.Info().
		Str("port", cfg.Port).
		Str("ws_endpoint", wsEndpoint).
		Str("stt_upstream", cfg.STTUpstreamURL).
		Str("summary_model", cfg.SummaryModel).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Transcribe Gateway Service starting")

	// Summarization engine shared by the /summarize endpoint
	engine := summary.NewEngine(summary.EngineConfig{
		BaseURL:     cfg.SummaryBaseURL,
		APIKey:      cfg.SummaryAPIKey,
		Model:       cfg.SummaryModel,
		Timeout:     time.Duration(cfg.SummaryTimeout) * time.Second,
		HTTPTimeout: time.Duration(cfg.SummaryHTTPTimeout) * time.Second,
	})

	// File transcription dials back through the local relay so the
	// upstream credential stays in one place.
	transcriber := session.NewFileTranscriber(
		fmt.Sprintf("ws://localhost:%s/ws", cfg.Port),
		time.Duration(cfg.ConnectTimeout)*time.Second,
	)

	// Create HTTP server
	mux := http.NewServeMux()

	// Register relay WebSocket handler
	mux.HandleFunc("/ws", relay.NewProxy(cfg).Handler())

	// On-demand summarization endpoint
	mux.HandleFunc("/summarize", summary.NewSummarizeHandler(engine, cfg.SummaryMaxSentences))

	// Recorded-audio transcription endpoint
	mux.HandleFunc("/transcribe-file", session.NewTranscribeFileHandler(transcriber))

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness endpoint - create health check functions here to avoid import cycles.
	// Both checks validate configuration shape; neither dials out.
	sttCheck := func(ctx context.Context) (bool, error) {
		if cfg.DeepgramAPIKey == "" {
			return false, fmt.Errorf("speech service credential not configured")
		}
		u, err := url.Parse(cfg.STTUpstreamURL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return false, fmt.Errorf("invalid STT upstream URL %q", cfg.STTUpstreamURL)
		}
		return true, nil
	}

	summarizerCheck := func(ctx context.Context) (bool, error) {
		u, err := url.Parse(cfg.SummaryBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return false, fmt.Errorf("invalid summary base URL %q", cfg.SummaryBaseURL)
		}
		if cfg.SummaryModel == "" {
			return false, fmt.Errorf("summary model not configured")
		}
		return true, nil
	}

	mux.HandleFunc("/ready", observability.ReadinessHandler(sttCheck, summarizerCheck))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Create HTTP server with timeouts. No WriteTimeout: a /transcribe-file
	// response takes as long as the recording it replays, and the WebSocket
	// connections are hijacked and manage their own deadlines.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", wsEndpoint).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
