package session

import (
	"sync"

	"github.com/voicebridge/voicebridge/internal/audio"
	"github.com/voicebridge/voicebridge/internal/types"
)

// SessionBuffer retains the complete session audio for the final pass and
// keeps a short-lived rolling buffer of frames awaiting streaming dispatch.
// Both sequences are owned by one session; all methods are safe for the
// capture goroutine and the dispatcher to share.
type SessionBuffer struct {
	mu      sync.Mutex
	session []float32
	rolling []float32
}

func NewSessionBuffer() *SessionBuffer {
	return &SessionBuffer{}
}

// Append stores a captured frame. Every frame goes into the session audio;
// all-zero frames are skipped for dispatch so silent stretches do not
// trigger wasted recognizer calls.
func (b *SessionBuffer) Append(frame []float32) {
	if len(frame) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.session = append(b.session, frame...)
	if !audio.IsSilent(frame) {
		b.rolling = append(b.rolling, frame...)
	}
}

// DrainRolling returns the pending rolling-buffer audio as one contiguous
// block and clears the rolling buffer atomically. Returns nil when empty.
func (b *SessionBuffer) DrainRolling() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.rolling) == 0 {
		return nil
	}
	block := b.rolling
	b.rolling = nil
	return block
}

// PendingSamples reports the number of samples awaiting dispatch.
func (b *SessionBuffer) PendingSamples() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rolling)
}

// SessionAudio returns a copy of the full session audio captured so far.
func (b *SessionBuffer) SessionAudio() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]float32, len(b.session))
	copy(out, b.session)
	return out
}

// Duration returns the captured session length in seconds.
func (b *SessionBuffer) Duration() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return float64(len(b.session)) / float64(types.SampleRate)
}
