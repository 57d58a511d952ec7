package handlers

import (
	"context"
	"encoding/json"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/voicebridge/voicebridge/internal/audio"
	"github.com/voicebridge/voicebridge/internal/session"
	"github.com/voicebridge/voicebridge/internal/storage"
	"github.com/voicebridge/voicebridge/internal/suggest"
	"github.com/voicebridge/voicebridge/internal/types"
)

// SessionHandler runs live capture sessions over WebSocket. The client
// sends a start control message, then binary float32-LE PCM frames, then a
// stop message; the server pushes throttled partial transcripts and, on
// stop, the session's TranscriptResult plus sentence suggestions.
type SessionHandler struct {
	manager      *session.Manager
	db           *storage.SettingsDB
	suggester    suggest.Generator
	suggestCount int
}

// NewSessionHandler creates a new live-session handler
func NewSessionHandler(manager *session.Manager, db *storage.SettingsDB, suggester suggest.Generator, suggestCount int) *SessionHandler {
	return &SessionHandler{
		manager:      manager,
		db:           db,
		suggester:    suggester,
		suggestCount: suggestCount,
	}
}

// controlMessage is a client-to-server text frame.
type controlMessage struct {
	Type     string `json:"type"`
	Language string `json:"language,omitempty"`
}

// wsSink serializes server-to-client event writes. Partial events arrive
// from recognizer goroutines while the read loop owns the connection.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) send(event map[string]interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Printf("WebSocket write error: %v", err)
	}
}

func (s *wsSink) PartialTranscript(text string, tokensPerSec float64) {
	s.send(map[string]interface{}{
		"type":           "partial",
		"text":           text,
		"tokens_per_sec": tokensPerSec,
	})
}

func (s *wsSink) SessionAlert(code, detail string) {
	log.Printf("Session alert [%s]: %s", code, detail)
	s.send(map[string]interface{}{
		"type":   "alert",
		"code":   code,
		"detail": detail,
	})
}

// Handle processes one WebSocket connection.
func (h *SessionHandler) Handle(c *websocket.Conn) {
	defer c.Close()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in session handler: %v\n%s", r, string(debug.Stack()))
		}
	}()

	sink := &wsSink{conn: c}
	var sess *session.Session
	startedAt := time.Now()

	defer func() {
		// Disconnect without a stop message discards the session.
		if sess != nil && sess.State() == types.SessionRecording {
			sess.Abort()
			h.manager.Release(sess)
		}
	}()

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Printf("WebSocket read error: %v", err)
			return
		}

		if messageType == websocket.BinaryMessage {
			if sess == nil {
				continue
			}
			frame, err := audio.DecodeFrame(message)
			if err != nil {
				sink.SessionAlert("capture", err.Error())
				continue
			}
			sess.PushFrame(frame)
			continue
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var ctrl controlMessage
		if err := json.Unmarshal(message, &ctrl); err != nil {
			sink.send(map[string]interface{}{"type": "error", "detail": "invalid control message"})
			continue
		}

		switch ctrl.Type {
		case "start":
			if sess != nil {
				sink.send(map[string]interface{}{"type": "error", "detail": "session already started"})
				continue
			}
			startedAt = time.Now()
			sess = h.manager.Start(sink, ctrl.Language)
			sink.send(map[string]interface{}{"type": "started", "session_id": sess.ID})

		case "stop":
			if sess == nil {
				sink.send(map[string]interface{}{"type": "error", "detail": "no session to stop"})
				continue
			}
			h.finish(sink, sess, startedAt)
			h.manager.Release(sess)
			return

		case "abort":
			if sess != nil {
				sess.Abort()
				h.manager.Release(sess)
				sess = nil
			}
			sink.send(map[string]interface{}{"type": "aborted"})

		default:
			sink.send(map[string]interface{}{"type": "error", "detail": "unknown control message"})
		}
	}
}

// finish stops the session, records its metadata, and delivers the result
// with suggestions over the socket.
func (h *SessionHandler) finish(sink *wsSink, sess *session.Session, startedAt time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := sess.Stop(ctx)
	if err != nil {
		sink.send(map[string]interface{}{"type": "error", "detail": err.Error()})
		return
	}

	if h.db != nil {
		speakers := make(map[string]struct{})
		for _, seg := range result.Segments {
			speakers[seg.Speaker] = struct{}{}
		}
		if dbErr := h.db.SaveSession(result.SessionID, startedAt, result.Duration,
			result.WordCount, len(speakers), result.Degraded); dbErr != nil {
			log.Printf("Failed to save session metadata: %v", dbErr)
		}
	}

	var suggestions []string
	if h.suggester != nil && result.FormattedText != "" {
		suggestions, err = h.suggester.Suggest(ctx, result, h.suggestCount)
		if err != nil {
			log.Printf("Suggestion generation failed: %v", err)
		}
	}

	sink.send(map[string]interface{}{
		"type":        "result",
		"result":      result,
		"suggestions": suggestions,
	})
}
