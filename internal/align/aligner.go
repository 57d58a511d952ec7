package align

import (
	"math"

	"github.com/voicebridge/voicebridge/internal/types"
)

// OverlapThreshold is the minimum fraction of a chunk's duration that a
// segment must cover for the overlap rule to accept it.
const OverlapThreshold = 0.35

// AlignSpeaker assigns exactly one speaker label to a transcript chunk.
// The policy is three-tiered, first matching rule wins:
//
//  1. Containment: among segments fully containing the chunk, pick the
//     highest-confidence one.
//  2. Overlap: among segments covering at least OverlapThreshold of the
//     chunk's duration, pick the highest-confidence one.
//  3. Midpoint: pick the segment whose midpoint is closest to the chunk's
//     midpoint; with no segments at all, the generic unlabeled tag.
//
// The function is pure: the same chunk and segment set always produce the
// same label. Segments are expected to be pre-filtered.
func AlignSpeaker(chunk types.TranscriptChunk, segments []types.SpeakerSegment) string {
	// Tier 1: containment.
	best := -1
	for i, seg := range segments {
		if seg.Start <= chunk.Start && seg.End >= chunk.End {
			if best < 0 || seg.Confidence > segments[best].Confidence {
				best = i
			}
		}
	}
	if best >= 0 {
		return segments[best].SpeakerID
	}

	// Tier 2: fractional overlap.
	duration := chunk.End - chunk.Start
	if duration > 0 {
		for i, seg := range segments {
			overlap := math.Min(chunk.End, seg.End) - math.Max(chunk.Start, seg.Start)
			if overlap < 0 {
				overlap = 0
			}
			if overlap/duration >= OverlapThreshold {
				if best < 0 || seg.Confidence > segments[best].Confidence {
					best = i
				}
			}
		}
		if best >= 0 {
			return segments[best].SpeakerID
		}
	}

	// Tier 3: closest midpoint. Guarantees a label whenever any segment
	// exists, even under sparse or failed diarization.
	chunkMid := (chunk.Start + chunk.End) / 2
	bestDist := math.Inf(1)
	for i, seg := range segments {
		segMid := (seg.Start + seg.End) / 2
		dist := math.Abs(segMid - chunkMid)
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	if best >= 0 {
		return segments[best].SpeakerID
	}

	return types.SpeakerUnknown
}
