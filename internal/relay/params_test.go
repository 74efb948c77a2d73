package relay

import (
	"net/url"
	"strings"
	"testing"
)

func TestDefaultSessionParams(t *testing.T) {
	p := DefaultSessionParams()

	if p.Encoding != "linear16" {
		t.Errorf("Expected linear16, got %q", p.Encoding)
	}
	if p.SampleRate != 16000 {
		t.Errorf("Expected 16000, got %d", p.SampleRate)
	}
	if p.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", p.Channels)
	}
	if p.Model != "flux-general-en" {
		t.Errorf("Expected flux-general-en, got %q", p.Model)
	}
	if p.Language != "en" {
		t.Errorf("Expected en, got %q", p.Language)
	}
	if !p.Punctuate || !p.InterimResults {
		t.Errorf("Expected punctuate and interim_results on, got %v, %v", p.Punctuate, p.InterimResults)
	}
}

func TestParamsFromQuery(t *testing.T) {
	q := url.Values{}
	q.Set("encoding", "opus")
	q.Set("sample_rate", "48000")
	q.Set("channels", "2")
	q.Set("model", "custom-model")
	q.Set("language", "de")
	q.Set("punctuate", "false")
	q.Set("interim_results", "false")

	p := ParamsFromQuery(q)

	if p.Encoding != "opus" || p.SampleRate != 48000 || p.Channels != 2 {
		t.Errorf("Expected overridden audio params, got %+v", p)
	}
	if p.Model != "custom-model" || p.Language != "de" {
		t.Errorf("Expected overridden model params, got %+v", p)
	}
	if p.Punctuate || p.InterimResults {
		t.Errorf("Expected booleans off, got %+v", p)
	}
}

func TestParamsFromQuery_PartialOverride(t *testing.T) {
	q := url.Values{}
	q.Set("model", "flux-general-multi")

	p := ParamsFromQuery(q)

	if p.Model != "flux-general-multi" {
		t.Errorf("Expected overridden model, got %q", p.Model)
	}
	if p.SampleRate != 16000 || p.Encoding != "linear16" {
		t.Errorf("Expected remaining defaults, got %+v", p)
	}
}

func TestParamsFromQuery_InvalidValuesFallBack(t *testing.T) {
	q := url.Values{}
	q.Set("sample_rate", "not-a-number")
	q.Set("channels", "-3")
	q.Set("punctuate", "maybe")

	p := ParamsFromQuery(q)

	if p.SampleRate != 16000 {
		t.Errorf("Expected default sample rate, got %d", p.SampleRate)
	}
	if p.Channels != 1 {
		t.Errorf("Expected default channels, got %d", p.Channels)
	}
	if !p.Punctuate {
		t.Error("Expected default punctuate on")
	}
}

func TestParamsFromQuery_UnknownParamsDropped(t *testing.T) {
	q := url.Values{}
	q.Set("api_key", "should-never-pass-through")
	q.Set("model", "custom")

	p := ParamsFromQuery(q)

	if got := p.Query().Get("api_key"); got != "" {
		t.Errorf("Expected unknown parameter dropped, got %q", got)
	}
	if p.Model != "custom" {
		t.Errorf("Expected known parameter kept, got %q", p.Model)
	}
}

func TestBuildUpstreamURL(t *testing.T) {
	target, err := BuildUpstreamURL("wss://api.example.com/v2/listen", DefaultSessionParams())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	u, err := url.Parse(target)
	if err != nil {
		t.Fatalf("Expected parseable URL, got %v", err)
	}
	if u.Scheme != "wss" || u.Host != "api.example.com" || u.Path != "/v2/listen" {
		t.Errorf("Expected base preserved, got %s", target)
	}

	q := u.Query()
	expected := map[string]string{
		"encoding":        "linear16",
		"sample_rate":     "16000",
		"channels":        "1",
		"model":           "flux-general-en",
		"language":        "en",
		"punctuate":       "true",
		"interim_results": "true",
	}
	for key, want := range expected {
		if got := q.Get(key); got != want {
			t.Errorf("Expected %s=%s, got %q", key, want, got)
		}
	}
}

func TestBuildUpstreamURL_RejectsNonWebSocketScheme(t *testing.T) {
	if _, err := BuildUpstreamURL("https://api.example.com/listen", DefaultSessionParams()); err == nil {
		t.Error("Expected error for https scheme")
	}
	if _, err := BuildUpstreamURL("://bad", DefaultSessionParams()); err == nil {
		t.Error("Expected error for unparseable URL")
	}
}

func TestBuildUpstreamURL_ReplacesExistingQuery(t *testing.T) {
	target, err := BuildUpstreamURL("wss://api.example.com/listen?stale=1", DefaultSessionParams())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if strings.Contains(target, "stale") {
		t.Errorf("Expected stale query replaced, got %s", target)
	}
}
