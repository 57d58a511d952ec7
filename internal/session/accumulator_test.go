package session

import (
	"testing"
	"time"

	"github.com/voicebridge/voicebridge/internal/asr"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type publishRecorder struct {
	texts []string
	rates []float64
}

func (p *publishRecorder) publish(text string, tokensPerSec float64) {
	p.texts = append(p.texts, text)
	p.rates = append(p.rates, tokensPerSec)
}

func TestCleanRecognizerText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"[BLANK_AUDIO]", ""},
		{"hello [BLANK_AUDIO] world", "hello world"},
		{"[ Silence ]", ""},
		{"(wind howling) hello", "hello"},
		{"  spaced   out  ", "spaced out"},
		{"plain text", "plain text"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanRecognizerText(tt.in); got != tt.want {
			t.Errorf("CleanRecognizerText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAccumulatorThrottlesPartials(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	rec := &publishRecorder{}
	a := NewPartialAccumulator(clock.Now, rec.publish)

	a.OnPartial(asr.PartialEvent{Text: "hel", TokensPerSec: 5})
	if len(rec.texts) != 1 {
		t.Fatalf("first partial not published")
	}

	// Inside the throttle window: state updates, no republish.
	clock.Advance(100 * time.Millisecond)
	a.OnPartial(asr.PartialEvent{Text: "hello"})
	if len(rec.texts) != 1 {
		t.Fatalf("published inside throttle window")
	}

	clock.Advance(100 * time.Millisecond)
	a.OnPartial(asr.PartialEvent{Text: "hello wor"})
	if len(rec.texts) != 2 {
		t.Fatalf("not published after window elapsed")
	}
	if rec.texts[1] != "hello wor" {
		t.Errorf("published %q, want %q", rec.texts[1], "hello wor")
	}
}

func TestAccumulatorBlockFinal(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	rec := &publishRecorder{}
	a := NewPartialAccumulator(clock.Now, rec.publish)

	a.OnPartial(asr.PartialEvent{Text: "hello"})
	a.OnBlockFinal("hello world")

	if got := a.Accumulated(); got != "hello world" {
		t.Errorf("Accumulated = %q, want %q", got, "hello world")
	}

	// The next block's partials start from the accumulated text.
	clock.Advance(time.Second)
	a.OnPartial(asr.PartialEvent{Text: "again"})
	last := rec.texts[len(rec.texts)-1]
	if last != "hello world again" {
		t.Errorf("snapshot = %q, want %q", last, "hello world again")
	}
}

func TestAccumulatorMultipleBlocks(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	a := NewPartialAccumulator(clock.Now, nil)

	a.OnBlockFinal("first block")
	a.OnBlockFinal("second block")

	if got := a.Accumulated(); got != "first block second block" {
		t.Errorf("Accumulated = %q, want %q", got, "first block second block")
	}
}

func TestAccumulatorIgnoresArtifactOnlyUpdates(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	rec := &publishRecorder{}
	a := NewPartialAccumulator(clock.Now, rec.publish)

	a.OnPartial(asr.PartialEvent{Text: "[BLANK_AUDIO]"})
	if len(rec.texts) != 0 {
		t.Fatalf("published an artifact-only partial")
	}

	a.OnBlockFinal("[BLANK_AUDIO]")
	if got := a.Accumulated(); got != "" {
		t.Errorf("Accumulated = %q, want empty", got)
	}
}

func TestAccumulatorForwardsThroughput(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	rec := &publishRecorder{}
	a := NewPartialAccumulator(clock.Now, rec.publish)

	a.OnPartial(asr.PartialEvent{Text: "hello", Tokens: 1, TokensPerSec: 12.5})
	if len(rec.rates) != 1 || rec.rates[0] != 12.5 {
		t.Fatalf("tokens/sec not forwarded: %v", rec.rates)
	}
}
