package align

import (
	"strings"

	"github.com/voicebridge/voicebridge/internal/types"
)

// MergeGap is the maximum silence between two same-speaker chunks for them
// to be joined into one merged segment.
const MergeGap = 1.5

// Assemble labels each chunk via AlignSpeaker and merges consecutive
// same-speaker runs into paragraphs. A new segment starts whenever the
// speaker changes or the gap since the previous chunk reaches MergeGap.
// Chunks are walked in order, so output segments are chronological.
func Assemble(chunks []types.TranscriptChunk, segments []types.SpeakerSegment) []types.MergedSegment {
	var merged []types.MergedSegment

	for _, chunk := range chunks {
		text := strings.TrimSpace(chunk.Text)
		if text == "" {
			continue
		}
		speaker := AlignSpeaker(chunk, segments)

		if n := len(merged); n > 0 {
			last := &merged[n-1]
			if last.Speaker == speaker && chunk.Start-last.End < MergeGap {
				last.Text += " " + text
				last.End = chunk.End
				continue
			}
		}

		merged = append(merged, types.MergedSegment{
			Speaker: speaker,
			Text:    text,
			Start:   chunk.Start,
			End:     chunk.End,
		})
	}

	return merged
}

// Render formats merged segments as "{speaker}: {text}" paragraphs
// separated by blank lines.
func Render(segments []types.MergedSegment) string {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(seg.Speaker)
		b.WriteString(": ")
		b.WriteString(seg.Text)
	}
	return b.String()
}
