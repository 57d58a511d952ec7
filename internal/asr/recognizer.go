package asr

import (
	"context"

	"github.com/voicebridge/voicebridge/internal/types"
)

// PartialEvent is one incremental update from the streaming recognizer
// while it decodes an audio block.
type PartialEvent struct {
	// Text is the cumulative decoded text for the current block.
	Text string
	// Tokens is the running token count for the block.
	Tokens int
	// TokensPerSec is the decode throughput observed so far.
	TokensPerSec float64
}

// StreamingRecognizer decodes one audio block at a time, emitting partial
// events as tokens arrive and returning the block's final text. It must be
// cheap to invoke repeatedly within a session: implementations load their
// model once, lazily, on first use.
type StreamingRecognizer interface {
	Recognize(ctx context.Context, samples []float32, language string, onPartial func(PartialEvent)) (string, error)
}

// FinalRecognizer runs the high-accuracy non-streaming pass over the full
// session audio, returning timestamped word/phrase-level chunks in order.
type FinalRecognizer interface {
	Transcribe(ctx context.Context, samples []float32, language string) ([]types.TranscriptChunk, error)
}
