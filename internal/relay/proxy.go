// Package relay pairs each inbound client socket with one upstream
// transcription socket and forwards frames in both directions. The relay
// exists because browsers cannot set custom headers on WebSocket dials;
// the upstream credential is injected here and never reaches the client.
package relay

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/scribeflow/transcribe-gateway/internal/config"
	"github.com/scribeflow/transcribe-gateway/internal/observability"
)

// closeReasonNoCredential is sent to the client when the gateway has no
// upstream credential configured. Clients match on it to show a distinct
// "server misconfigured" state.
const closeReasonNoCredential = "speech service credential not configured"

const closeWriteWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Sessions carry no client credential, so origin enforcement adds
		// nothing here. Deployments that need it put the gateway behind an
		// authenticating proxy.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Proxy relays streaming sessions to the upstream transcription service
type Proxy struct {
	upstreamURL    string
	apiKey         string
	connectTimeout time.Duration
	logger         zerolog.Logger
}

// NewProxy creates a relay for the configured upstream
func NewProxy(cfg *config.Config) *Proxy {
	return &Proxy{
		upstreamURL:    cfg.STTUpstreamURL,
		apiKey:         cfg.DeepgramAPIKey,
		connectTimeout: time.Duration(cfg.ConnectTimeout) * time.Second,
		logger:         observability.GetLogger().With().Str("component", "relay").Logger(),
	}
}

// Handler returns the WebSocket endpoint handler. Each accepted connection
// gets its own upstream socket and a pair of forwarding goroutines; the
// handler blocks until the session ends.
func (p *Proxy) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			p.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
			return
		}
		defer client.Close()

		correlationID := observability.NewCorrelationID()
		logger := p.logger.With().Str("correlation_id", correlationID).Logger()

		if p.apiKey == "" {
			observability.RecordRelayError(string(UpstreamAuthMissing))
			logger.Error().Msg("Rejecting session, no upstream credential configured")
			closeWithReason(client, websocket.CloseInternalServerErr, closeReasonNoCredential)
			return
		}

		params := ParamsFromQuery(r.URL.Query())
		upstream, err := p.dialUpstream(params)
		if err != nil {
			observability.RecordRelayError(string(ProxyErrKind(err)))
			logger.Error().Err(err).Msg("Upstream connection failed")
			closeWithReason(client, websocket.CloseInternalServerErr, "upstream connection failed")
			return
		}
		defer upstream.Close()

		logger.Info().
			Str("model", params.Model).
			Int("sample_rate", params.SampleRate).
			Msg("Relay session started")

		pair := &proxyConn{
			client:   client,
			upstream: upstream,
			logger:   logger,
		}
		pair.run()

		logger.Info().Msg("Relay session ended")
	}
}

// dialUpstream opens the upstream socket with the credential attached
func (p *Proxy) dialUpstream(params SessionParams) (*websocket.Conn, error) {
	target, err := BuildUpstreamURL(p.upstreamURL, params)
	if err != nil {
		return nil, &ProxyError{Kind: UpstreamConnectFailed, Err: err}
	}

	dialer := websocket.Dialer{HandshakeTimeout: p.connectTimeout}
	header := http.Header{}
	header.Set("Authorization", "Token "+p.apiKey)

	conn, resp, err := dialer.Dial(target, header)
	if err != nil {
		if resp != nil {
			if resp.Body != nil {
				resp.Body.Close()
			}
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return nil, &ProxyError{Kind: UpstreamAuthMissing, Err: err}
			}
		}
		return nil, &ProxyError{Kind: UpstreamConnectFailed, Err: err}
	}
	return conn, nil
}

// proxyConn is one paired session: the inbound client socket and its
// upstream counterpart
type proxyConn struct {
	client   *websocket.Conn
	upstream *websocket.Conn
	logger   zerolog.Logger

	closeOnce sync.Once
}

// run forwards frames in both directions until either side closes, then
// mirrors the close to the other side
func (pc *proxyConn) run() {
	observability.RecordProxyConnectionOpened()
	defer observability.RecordProxyConnectionClosed()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		pc.forward(pc.client, pc.upstream, "inbound")
	}()
	go func() {
		defer wg.Done()
		pc.forward(pc.upstream, pc.client, "outbound")
	}()

	wg.Wait()
}

// forward copies frames from src to dst, preserving the frame type and
// payload exactly. Each direction runs in its own goroutine, so ordering
// within a direction is preserved and neither blocks the other.
func (pc *proxyConn) forward(src, dst *websocket.Conn, direction string) {
	for {
		msgType, data, err := src.ReadMessage()
		if err != nil {
			if direction == "outbound" && isAbnormalClose(err) {
				observability.RecordRelayError(string(UpstreamClosedAbnormally))
				pc.logger.Warn().Err(err).Msg("Upstream closed abnormally")
			}
			pc.teardown(err)
			return
		}

		if err := dst.WriteMessage(msgType, data); err != nil {
			pc.logger.Debug().Err(err).Str("direction", direction).Msg("Relay write failed")
			pc.teardown(err)
			return
		}
		observability.RecordFrameRelayed(direction, frameKind(msgType))
	}
}

// teardown closes both sides once, translating the terminating error into
// the close frame the surviving peer sees
func (pc *proxyConn) teardown(err error) {
	pc.closeOnce.Do(func() {
		code, reason := mapCloseError(err)
		closeWithReason(pc.client, code, reason)
		closeWithReason(pc.upstream, code, reason)
	})
}

// mapCloseError translates a read error into the close code mirrored to
// the peer: clean closes stay clean, everything else becomes an internal
// error close
func mapCloseError(err error) (int, string) {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return websocket.CloseNormalClosure, ""
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return websocket.CloseInternalServerErr, "peer closed abnormally"
	}
	return websocket.CloseInternalServerErr, "relay connection lost"
}

func isAbnormalClose(err error) bool {
	return !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

func frameKind(msgType int) string {
	if msgType == websocket.BinaryMessage {
		return "binary"
	}
	return "text"
}

// closeWithReason sends a close frame then closes the socket. Write errors
// are ignored; the peer may already be gone.
func closeWithReason(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(closeWriteWait)
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	conn.Close()
}
