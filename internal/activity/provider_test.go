package activity

import (
	"runtime"
	"testing"
)

func TestNewProvider_EmptyCommand(t *testing.T) {
	if p := NewProvider(nil); p != nil {
		t.Error("expected nil provider for an empty command")
	}
	if p := NewProvider([]string{}); p != nil {
		t.Error("expected nil provider for an empty argv")
	}
}

func TestProvider_NilReceiverDegrades(t *testing.T) {
	var p *Provider
	if s := p.Current(); s != nil {
		t.Errorf("nil provider must return a nil signal, got %+v", s)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nil provider Close must be a no-op, got %v", err)
	}
}

func TestProvider_MissingExecutableDegrades(t *testing.T) {
	p := NewProvider([]string{"cadence-test-no-such-binary"})
	defer p.Close()

	if s := p.Current(); s != nil {
		t.Errorf("expected nil signal for a missing executable, got %+v", s)
	}
}

func TestProvider_LineProtocolRoundTrip(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on a POSIX shell")
	}

	// A fake provider that answers every request line with a fixed
	// signal.
	script := `while read line; do echo '{"fatigueSignals":7,"adaptationSuggestions":["debugging marathon"]}'; done`
	p := NewProvider([]string{"sh", "-c", script})
	defer p.Close()

	s := p.Current()
	if s == nil {
		t.Fatal("expected a signal from the fake provider")
	}
	if s.FatigueSignals != 7 {
		t.Errorf("expected fatigue 7, got %d", s.FatigueSignals)
	}
	if len(s.AdaptationSuggestions) != 1 || s.AdaptationSuggestions[0] != "debugging marathon" {
		t.Errorf("unexpected suggestions %v", s.AdaptationSuggestions)
	}

	// The process stays up between requests.
	if s := p.Current(); s == nil || s.FatigueSignals != 7 {
		t.Error("second request failed against the same process")
	}
}

func TestProvider_MalformedResponseDegrades(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on a POSIX shell")
	}

	p := NewProvider([]string{"sh", "-c", `while read line; do echo 'not json'; done`})
	defer p.Close()

	if s := p.Current(); s != nil {
		t.Errorf("expected nil signal for a malformed response, got %+v", s)
	}
}
