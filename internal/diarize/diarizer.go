package diarize

import (
	"context"

	"github.com/voicebridge/voicebridge/internal/types"
)

// Minimum acceptance thresholds for diarization segments. Shorter or less
// confident segments are treated as noise and excluded before alignment.
const (
	MinSegmentDuration   = 0.5
	MinSegmentConfidence = 0.8
)

// Provider produces speaker segments for full-session audio.
type Provider interface {
	Diarize(ctx context.Context, samples []float32, sampleRate int) ([]types.SpeakerSegment, error)
}

// Noop returns no segments; every chunk falls through to the generic label.
type Noop struct{}

func (Noop) Diarize(ctx context.Context, samples []float32, sampleRate int) ([]types.SpeakerSegment, error) {
	return nil, nil
}

// FilterSegments drops segments below the minimum duration or confidence.
// The input order is preserved.
func FilterSegments(segments []types.SpeakerSegment) []types.SpeakerSegment {
	var kept []types.SpeakerSegment
	for _, seg := range segments {
		if seg.Duration() < MinSegmentDuration {
			continue
		}
		if seg.Confidence < MinSegmentConfidence {
			continue
		}
		kept = append(kept, seg)
	}
	return kept
}
