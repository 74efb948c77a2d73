package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/scribeflow/transcribe-gateway/internal/audio"
	"github.com/scribeflow/transcribe-gateway/internal/observability"
)

// DefaultConnectTimeout bounds the opening handshake
const DefaultConnectTimeout = 10 * time.Second

const eventsBufferSize = 100

// EventType identifies what an Event carries
type EventType int

const (
	// EventConnected is the upstream service's session-open acknowledgment
	EventConnected EventType = iota

	// EventFragment carries one transcript fragment
	EventFragment

	// EventError reports an abnormal stream failure
	EventError

	// EventClosed is the last event; the channel closes after it
	EventClosed
)

// Event is one item on the stream's event channel. Consumers receive a
// linear event sequence instead of installing socket callbacks, so state
// transitions stay testable without a live connection.
type Event struct {
	Type     EventType
	Fragment Fragment
	Err      error
}

// ClientConfig configures a streaming client
type ClientConfig struct {
	// URL is the ws:// or wss:// endpoint, session query parameters included
	URL string

	// APIKey is sent as "Authorization: Token <key>" when set. Connections
	// through the relay leave it empty; the relay injects the credential.
	APIKey string

	// ConnectTimeout bounds the dial; DefaultConnectTimeout when zero
	ConnectTimeout time.Duration

	Metrics *observability.Metrics
}

// Client is one streaming transcription connection. Construct with
// NewClient, call Connect, then consume Events until it closes.
type Client struct {
	url            string
	apiKey         string
	connectTimeout time.Duration

	mu     sync.RWMutex
	conn   *websocket.Conn
	isOpen bool

	events   chan Event
	done     chan struct{}
	stopOnce sync.Once

	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewClient creates a client for the given endpoint
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NewSessionMetrics("stream-client")
	}

	return &Client{
		url:            cfg.URL,
		apiKey:         cfg.APIKey,
		connectTimeout: timeout,
		events:         make(chan Event, eventsBufferSize),
		done:           make(chan struct{}),
		metrics:        metrics,
		logger:         observability.GetLogger().With().Str("component", "stream_client").Logger(),
	}
}

// Connect dials the endpoint and starts the read loop. It resolves once the
// socket is open; the upstream acknowledgment arrives later as an
// EventConnected on the event channel.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isOpen {
		return fmt.Errorf("stream client is already connected")
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.connectTimeout}
	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Authorization", "Token "+c.apiKey)
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(dialCtx, c.url, header)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return classifyDialError(err, resp)
	}

	c.conn = conn
	c.isOpen = true
	go c.readLoop()

	c.logger.Debug().Str("url", c.url).Msg("Stream connected")
	return nil
}

func classifyDialError(err error, resp *http.Response) error {
	if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		return &ConnectError{Kind: ConnectAuthMissing, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ConnectError{Kind: ConnectTimeout, Err: err}
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ConnectError{Kind: ConnectTimeout, Err: err}
	}
	return &ConnectError{Kind: ConnectTransportFailure, Err: err}
}

// readLoop owns the event channel: it is the only sender and closes it on
// exit
func (c *Client) readLoop() {
	defer close(c.events)

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			c.setOpen(false)

			select {
			case <-c.done:
				// deliberate stop, nothing to report
			default:
				c.handleReadError(err)
			}
			c.emit(Event{Type: EventClosed})
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		kind, frag := parseServerMessage(data)
		switch kind {
		case messageConnected:
			c.logger.Debug().Msg("Upstream session acknowledged")
			c.emit(Event{Type: EventConnected})
		case messageFragment:
			c.metrics.RecordFragment(frag.Final)
			c.emit(Event{Type: EventFragment, Fragment: frag})
		}
	}
}

func (c *Client) handleReadError(err error) {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Debug().Msg("Stream closed by server")
		return
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseInternalServerErr &&
		strings.Contains(closeErr.Text, "credential") {
		c.emit(Event{Type: EventError, Err: &ConnectError{Kind: ConnectAuthMissing, Err: err}})
		return
	}

	c.metrics.RecordError("stream_read", "stream_client")
	c.logger.Warn().Err(err).Msg("Stream read failed")
	c.emit(Event{Type: EventError, Err: fmt.Errorf("stream read failed: %w", err)})
}

// emit delivers an event unless the client has been stopped. Fragments are
// never dropped; a slow consumer applies backpressure to the read loop
// instead of losing final transcript text.
func (c *Client) emit(ev Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// StartCapture begins feeding audio from source into the socket. Chunks
// arriving while the socket is not open are dropped, not queued. A failed
// write is logged and the chunk dropped; capture errors never tear down
// the session.
func (c *Client) StartCapture(ctx context.Context, source audio.Source) error {
	if err := source.Start(ctx); err != nil {
		return err
	}

	go func() {
		for chunk := range source.Chunks() {
			c.mu.RLock()
			conn, open := c.conn, c.isOpen
			c.mu.RUnlock()

			if !open || conn == nil {
				c.metrics.RecordChunkDropped()
				continue
			}

			if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				c.metrics.RecordChunkDropped()
				c.logger.Debug().Err(err).Msg("Dropped audio chunk, socket not writable")
				continue
			}
			c.metrics.RecordAudioBytes("out", int64(len(chunk)))
		}
	}()

	return nil
}

// Events returns the event channel. It closes after EventClosed.
func (c *Client) Events() <-chan Event {
	return c.events
}

// IsOpen reports whether the socket is currently open
func (c *Client) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isOpen
}

func (c *Client) setOpen(open bool) {
	c.mu.Lock()
	c.isOpen = open
	c.mu.Unlock()
}

// Stop closes the connection. Safe to call at any time, any number of
// times; a second call has no observable effect.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		c.setOpen(false)
		close(c.done)

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		if conn != nil {
			deadline := time.Now().Add(time.Second)
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			conn.Close()
		}
		c.logger.Debug().Msg("Stream client stopped")
	})
}
