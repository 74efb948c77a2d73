package audio

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/scribeflow/transcribe-gateway/internal/observability"
)

// Capture format spoken by the whole pipeline: 16 kHz mono 16-bit
// little-endian PCM, emitted in 100 ms chunks.
const (
	SampleRate     = 16000
	Channels       = 1
	BytesPerSample = 2

	ChunkMillis   = 100
	ChunkDuration = ChunkMillis * time.Millisecond
	ChunkBytes    = SampleRate * Channels * BytesPerSample * ChunkMillis / 1000 // 3200
)

// toneAmplitude is the peak amplitude of the synthetic test tone
const toneAmplitude = 8000

// Source produces raw PCM chunks at a fixed cadence. Chunks arrive on the
// channel returned by Chunks; the channel is closed when the source drains,
// is stopped, or its context ends.
type Source interface {
	Start(ctx context.Context) error
	Chunks() <-chan []byte
	Stop()
}

// SyntheticSource generates a continuous sine tone. It stands in for a real
// capture device in tests and demos.
type SyntheticSource struct {
	freq     float64
	chunks   chan []byte
	done     chan struct{}
	stopOnce sync.Once
	logger   zerolog.Logger
}

// NewSyntheticSource creates a tone source at the given frequency
func NewSyntheticSource(freqHz float64) *SyntheticSource {
	return &SyntheticSource{
		freq:   freqHz,
		chunks: make(chan []byte, 8),
		done:   make(chan struct{}),
		logger: observability.GetLogger().With().Str("component", "synthetic_source").Logger(),
	}
}

// Start begins emitting chunks on the capture cadence
func (s *SyntheticSource) Start(ctx context.Context) error {
	go s.generate(ctx)
	return nil
}

func (s *SyntheticSource) generate(ctx context.Context) {
	defer close(s.chunks)

	ticker := time.NewTicker(ChunkDuration)
	defer ticker.Stop()

	phase := 0.0
	step := 2 * math.Pi * s.freq / SampleRate

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			samples := make([]int16, ChunkBytes/BytesPerSample)
			for i := range samples {
				samples[i] = int16(toneAmplitude * math.Sin(phase))
				phase += step
			}

			select {
			case s.chunks <- SamplesToBytes(samples):
			default:
				// Consumer is behind; late audio has no value for a live feed
				s.logger.Debug().Msg("Synthetic chunk dropped, consumer not keeping up")
			}
		}
	}
}

// Chunks returns the chunk delivery channel
func (s *SyntheticSource) Chunks() <-chan []byte {
	return s.chunks
}

// Stop stops the source; safe to call multiple times
func (s *SyntheticSource) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

// FileSource replays a WAV file as capture-format chunks on the capture
// cadence. The file is decoded up front, normalized to 16 kHz mono, staged
// in a ring buffer and drained chunk by chunk.
type FileSource struct {
	path     string
	buf      *RingBuffer
	chunks   chan []byte
	drained  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	logger   zerolog.Logger
}

// NewFileSource creates a source replaying the WAV file at path
func NewFileSource(path string) *FileSource {
	return &FileSource{
		path:    path,
		chunks:  make(chan []byte, 8),
		drained: make(chan struct{}),
		done:    make(chan struct{}),
		logger:  observability.GetLogger().With().Str("component", "file_source").Str("file", filepath.Base(path)).Logger(),
	}
}

// Start decodes the file and begins emitting chunks. Decode and read errors
// are returned here, before any chunk is produced.
func (f *FileSource) Start(ctx context.Context) error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read audio file: %w", err)
	}

	samples, rate, err := DecodeWAV(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(f.path), err)
	}
	if rate != SampleRate {
		f.logger.Debug().Int("from_rate", rate).Int("to_rate", SampleRate).Msg("Resampling file audio")
		samples = Resample(samples, rate, SampleRate)
	}

	pcm := SamplesToBytes(samples)
	f.buf = NewRingBuffer(len(pcm) + 1)
	f.buf.Write(pcm)

	// RMS in the log makes "transcript came back empty" triage fast:
	// a near-zero level means the file itself is silent.
	f.logger.Debug().
		Int("pcm_bytes", len(pcm)).
		Float64("rms", CalculateRMS(samples)).
		Msg("File staged for replay")
	go f.pump(ctx)
	return nil
}

func (f *FileSource) pump(ctx context.Context) {
	defer close(f.chunks)

	ticker := time.NewTicker(ChunkDuration)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			chunk := make([]byte, ChunkBytes)
			n := f.buf.Read(chunk)
			if n == 0 {
				// Every chunk has been handed off; signal the drain
				close(f.drained)
				return
			}

			// Unlike the live sources, file chunks are not droppable: a lost
			// chunk is lost transcript. Block until consumed or stopped.
			select {
			case f.chunks <- chunk[:n]:
			case <-f.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

// Chunks returns the chunk delivery channel
func (f *FileSource) Chunks() <-chan []byte {
	return f.chunks
}

// Drained closes once the whole file has been consumed. A source that is
// stopped or cancelled early never signals it.
func (f *FileSource) Drained() <-chan struct{} {
	return f.drained
}

// Stop stops the source; safe to call multiple times
func (f *FileSource) Stop() {
	f.stopOnce.Do(func() {
		close(f.done)
	})
}
