package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/align"
	"github.com/voicebridge/voicebridge/internal/asr"
	"github.com/voicebridge/voicebridge/internal/diarize"
	"github.com/voicebridge/voicebridge/internal/types"
)

// Alert codes surfaced through the event sink.
const (
	AlertRecognition = "recognition"
	AlertFinalPass   = "final_pass"
	AlertDiarization = "diarization"
)

var ErrNoActiveSession = errors.New("no active recording session")
var ErrSessionStopped = errors.New("session already stopped")

// EventSink receives UI-facing events from a running session.
type EventSink interface {
	// PartialTranscript republishes the live transcript (accumulated +
	// current partial). Calls are throttled by the accumulator.
	PartialTranscript(text string, tokensPerSec float64)
	// SessionAlert reports a non-fatal failure in human-readable form.
	SessionAlert(code, detail string)
}

// Config controls per-session pipeline behavior.
type Config struct {
	Language         string
	DispatchInterval time.Duration
	TickInterval     time.Duration
	Now              func() time.Time
}

// Session is one live capture/recognition session. Frames are pushed by
// the capture collaborator; the dispatcher submits blocks to the streaming
// recognizer on its cadence; Stop runs the final pass and diarization and
// emits the session's single TranscriptResult.
type Session struct {
	ID        string
	cfg       Config
	buffer    *SessionBuffer
	dispatch  *ChunkDispatcher
	partials  *PartialAccumulator
	streaming asr.StreamingRecognizer
	finalPass asr.FinalRecognizer
	diarizer  diarize.Provider
	events    EventSink
	startedAt time.Time

	mu       sync.Mutex
	state    string
	tickDone chan struct{}
}

// NewSession builds and starts a session's tick loop.
func NewSession(
	streaming asr.StreamingRecognizer,
	finalPass asr.FinalRecognizer,
	diarizer diarize.Provider,
	events EventSink,
	cfg Config,
) *Session {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DispatchInterval <= 0 {
		cfg.DispatchInterval = DispatchInterval
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 100 * time.Millisecond
	}

	s := &Session{
		ID:        uuid.New().String(),
		cfg:       cfg,
		buffer:    NewSessionBuffer(),
		streaming: streaming,
		finalPass: finalPass,
		diarizer:  diarizer,
		events:    events,
		startedAt: cfg.Now(),
		state:     types.SessionRecording,
		tickDone:  make(chan struct{}),
	}
	s.partials = NewPartialAccumulator(cfg.Now, events.PartialTranscript)
	s.dispatch = NewChunkDispatcher(s.buffer, cfg.DispatchInterval, s.submitBlock, func(err error) {
		events.SessionAlert(AlertRecognition, fmt.Sprintf("block recognition failed: %v", err))
	})

	go s.tickLoop()
	log.Printf("Session %s started (language: %q)", s.ID, cfg.Language)
	return s
}

func (s *Session) tickLoop() {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.dispatch.Tick(s.cfg.Now())
		case <-s.tickDone:
			return
		}
	}
}

// submitBlock feeds one drained block through the streaming recognizer.
// Results arriving after Stop are ignored; the final pass supersedes them.
func (s *Session) submitBlock(block []float32) error {
	final, err := s.streaming.Recognize(context.Background(), block, s.cfg.Language, func(ev asr.PartialEvent) {
		if s.State() == types.SessionRecording {
			s.partials.OnPartial(ev)
		}
	})
	if err != nil {
		return err
	}
	if s.State() == types.SessionRecording {
		s.partials.OnBlockFinal(final)
	}
	return nil
}

// PushFrame appends one captured audio frame. Frames pushed after Stop
// are dropped.
func (s *Session) PushFrame(frame []float32) {
	if s.State() != types.SessionRecording {
		return
	}
	s.buffer.Append(frame)
}

// State returns the session lifecycle state.
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state string) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// LiveTranscript returns the accumulated streaming transcript so far.
func (s *Session) LiveTranscript() string {
	return s.partials.Accumulated()
}

// Duration returns the captured audio length in seconds.
func (s *Session) Duration() float64 {
	return s.buffer.Duration()
}

// Stop ends capture and produces the session's TranscriptResult. The full
// session audio is run through the final-pass recognizer and the
// diarization provider concurrently; both results are joined before
// alignment. Each failure is isolated: a diarization failure yields an
// unlabeled transcript, a final-pass failure falls back to the live
// accumulated transcript without speaker labels.
func (s *Session) Stop(ctx context.Context) (*types.TranscriptResult, error) {
	s.mu.Lock()
	if s.state != types.SessionRecording {
		s.mu.Unlock()
		return nil, ErrSessionStopped
	}
	s.state = types.SessionStopping
	s.mu.Unlock()

	close(s.tickDone)

	// Undispatched rolling audio is discarded; it is still part of the
	// session audio the final pass consumes.
	s.buffer.DrainRolling()

	sessionAudio := s.buffer.SessionAudio()
	duration := s.buffer.Duration()

	var (
		wg       sync.WaitGroup
		chunks   []types.TranscriptChunk
		finalErr error
		segments []types.SpeakerSegment
		diarErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		chunks, finalErr = s.finalPass.Transcribe(ctx, sessionAudio, s.cfg.Language)
	}()
	go func() {
		defer wg.Done()
		segments, diarErr = s.diarizer.Diarize(ctx, sessionAudio, types.SampleRate)
	}()
	wg.Wait()

	result := &types.TranscriptResult{
		SessionID:   s.ID,
		Duration:    duration,
		CompletedAt: s.cfg.Now(),
	}

	if finalErr != nil {
		// Degraded path: the live accumulated transcript, unlabeled.
		s.events.SessionAlert(AlertFinalPass, fmt.Sprintf("final transcription failed, using live transcript: %v", finalErr))
		live := s.partials.Accumulated()
		result.Degraded = true
		result.FormattedText = live
		if live != "" {
			result.Segments = []types.MergedSegment{{
				Speaker: types.SpeakerUnknown,
				Text:    live,
				Start:   0,
				End:     duration,
			}}
			result.FormattedText = types.SpeakerUnknown + ": " + live
		}
		result.WordCount = len(strings.Fields(live))
		s.setState(types.SessionCompleted)
		log.Printf("Session %s completed degraded (%.1fs audio)", s.ID, duration)
		return result, nil
	}

	if diarErr != nil {
		s.events.SessionAlert(AlertDiarization, fmt.Sprintf("speaker diarization failed, transcript will be unlabeled: %v", diarErr))
		segments = nil
	}

	filtered := diarize.FilterSegments(segments)
	merged := align.Assemble(chunks, filtered)
	formatted := align.Render(merged)

	result.FormattedText = formatted
	result.Segments = merged
	result.Raw = types.RawData{Diarization: segments, Transcription: chunks}
	result.WordCount = len(strings.Fields(formatted))

	s.setState(types.SessionCompleted)
	log.Printf("Session %s completed: %d chunks, %d speakers segments, %d merged segments",
		s.ID, len(chunks), len(filtered), len(merged))
	return result, nil
}

// Abort cancels a session, discarding all buffered audio and any pending
// transcript without running the final pass.
func (s *Session) Abort() {
	s.mu.Lock()
	if s.state != types.SessionRecording {
		s.mu.Unlock()
		return
	}
	s.state = types.SessionFailed
	s.mu.Unlock()
	close(s.tickDone)
	s.buffer.DrainRolling()
	log.Printf("Session %s aborted", s.ID)
}

// Manager owns session construction and enforces a single active session.
type Manager struct {
	streaming asr.StreamingRecognizer
	finalPass asr.FinalRecognizer
	diarizer  diarize.Provider
	cfg       Config

	mu      sync.Mutex
	current *Session
}

func NewManager(streaming asr.StreamingRecognizer, finalPass asr.FinalRecognizer, diarizer diarize.Provider, cfg Config) *Manager {
	return &Manager{
		streaming: streaming,
		finalPass: finalPass,
		diarizer:  diarizer,
		cfg:       cfg,
	}
}

// Start begins a new session, aborting any session still active.
func (m *Manager) Start(events EventSink, language string) *Session {
	m.mu.Lock()
	previous := m.current
	m.mu.Unlock()
	if previous != nil {
		previous.Abort()
	}

	cfg := m.cfg
	if language != "" {
		cfg.Language = language
	}
	s := NewSession(m.streaming, m.finalPass, m.diarizer, events, cfg)

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return s
}

// Release clears the manager's reference once a session has finished.
func (m *Manager) Release(s *Session) {
	m.mu.Lock()
	if m.current == s {
		m.current = nil
	}
	m.mu.Unlock()
}

// Active returns the running session, or ErrNoActiveSession.
func (m *Manager) Active() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoActiveSession
	}
	return m.current, nil
}
