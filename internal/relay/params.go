package relay

import (
	"fmt"
	"net/url"
	"strconv"
)

// Session parameter defaults applied when the inbound URL omits them
const (
	DefaultEncoding   = "linear16"
	DefaultSampleRate = 16000
	DefaultChannels   = 1
	DefaultModel      = "flux-general-en"
	DefaultLanguage   = "en"
)

// SessionParams are the transcription options carried on the session-open
// URL. The relay normalizes them before dialing upstream so every upstream
// session has a complete parameter set.
type SessionParams struct {
	Encoding       string
	SampleRate     int
	Channels       int
	Model          string
	Language       string
	Punctuate      bool
	InterimResults bool
}

// DefaultSessionParams returns the parameter set used when the client
// specifies nothing
func DefaultSessionParams() SessionParams {
	return SessionParams{
		Encoding:       DefaultEncoding,
		SampleRate:     DefaultSampleRate,
		Channels:       DefaultChannels,
		Model:          DefaultModel,
		Language:       DefaultLanguage,
		Punctuate:      true,
		InterimResults: true,
	}
}

// ParamsFromQuery builds SessionParams from an inbound query string.
// Missing and unparseable values fall back to defaults; unrecognized
// parameters are dropped.
func ParamsFromQuery(q url.Values) SessionParams {
	p := DefaultSessionParams()

	if v := q.Get("encoding"); v != "" {
		p.Encoding = v
	}
	if v := q.Get("sample_rate"); v != "" {
		if rate, err := strconv.Atoi(v); err == nil && rate > 0 {
			p.SampleRate = rate
		}
	}
	if v := q.Get("channels"); v != "" {
		if ch, err := strconv.Atoi(v); err == nil && ch > 0 {
			p.Channels = ch
		}
	}
	if v := q.Get("model"); v != "" {
		p.Model = v
	}
	if v := q.Get("language"); v != "" {
		p.Language = v
	}
	if v := q.Get("punctuate"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			p.Punctuate = b
		}
	}
	if v := q.Get("interim_results"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			p.InterimResults = b
		}
	}

	return p
}

// Query encodes the parameters as an upstream query string
func (p SessionParams) Query() url.Values {
	q := url.Values{}
	q.Set("encoding", p.Encoding)
	q.Set("sample_rate", strconv.Itoa(p.SampleRate))
	q.Set("channels", strconv.Itoa(p.Channels))
	q.Set("model", p.Model)
	q.Set("language", p.Language)
	q.Set("punctuate", strconv.FormatBool(p.Punctuate))
	q.Set("interim_results", strconv.FormatBool(p.InterimResults))
	return q
}

// BuildUpstreamURL attaches the session parameters to the upstream base URL
func BuildUpstreamURL(base string, p SessionParams) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid upstream URL %q: %w", base, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("upstream URL %q must use ws or wss scheme", base)
	}
	u.RawQuery = p.Query().Encode()
	return u.String(), nil
}
