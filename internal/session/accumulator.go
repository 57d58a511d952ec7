package session

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/voicebridge/voicebridge/internal/asr"
)

// PartialUpdateInterval is the minimum spacing between UI-facing partial
// transcript republishes.
const PartialUpdateInterval = 200 * time.Millisecond

// Whisper emits bracketed non-speech markers like [BLANK_AUDIO], [ Silence ]
// and parenthesized noise tags like (wind howling). They are recognizer
// artifacts, not speech, and are stripped before any text is surfaced.
var artifactPattern = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)

// CleanRecognizerText removes non-speech markers and collapses whitespace.
func CleanRecognizerText(text string) string {
	cleaned := artifactPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(cleaned), " ")
}

// PartialAccumulator maintains the running live transcript: the accumulated
// text of all completed blocks plus at most one in-flight partial decode.
// UI-facing updates are throttled; the accumulated transcript itself is
// updated on every block completion regardless of throttling.
type PartialAccumulator struct {
	now     func() time.Time
	publish func(text string, tokensPerSec float64)

	mu          sync.Mutex
	accumulated string
	partial     string
	lastPublish time.Time
}

// NewPartialAccumulator creates an accumulator publishing throttled live
// transcript snapshots through publish. now is injectable for tests.
func NewPartialAccumulator(now func() time.Time, publish func(text string, tokensPerSec float64)) *PartialAccumulator {
	if now == nil {
		now = time.Now
	}
	return &PartialAccumulator{now: now, publish: publish}
}

// OnPartial handles one incremental update for the current block.
func (a *PartialAccumulator) OnPartial(ev asr.PartialEvent) {
	text := CleanRecognizerText(ev.Text)
	if text == "" {
		return
	}

	a.mu.Lock()
	a.partial = text
	ts := a.now()
	if ts.Sub(a.lastPublish) < PartialUpdateInterval {
		a.mu.Unlock()
		return
	}
	a.lastPublish = ts
	snapshot := a.accumulated + a.partial
	a.mu.Unlock()

	if a.publish != nil {
		a.publish(snapshot, ev.TokensPerSec)
	}
}

// OnBlockFinal appends the block's final text to the accumulated transcript
// and clears the in-flight partial state.
func (a *PartialAccumulator) OnBlockFinal(text string) {
	cleaned := CleanRecognizerText(text)

	a.mu.Lock()
	if cleaned != "" {
		a.accumulated += cleaned + " "
		a.lastPublish = a.now()
	}
	a.partial = ""
	snapshot := a.accumulated
	a.mu.Unlock()

	if cleaned != "" && a.publish != nil {
		a.publish(snapshot, 0)
	}
}

// Accumulated returns the canonical live transcript so far, trimmed.
func (a *PartialAccumulator) Accumulated() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return strings.TrimSpace(a.accumulated)
}
