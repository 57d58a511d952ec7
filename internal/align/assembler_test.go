package align

import (
	"testing"

	"github.com/voicebridge/voicebridge/internal/types"
)

func TestAssemble_MergeThreshold(t *testing.T) {
	segments := []types.SpeakerSegment{seg("A", 0.0, 10.0, 0.9)}

	tests := []struct {
		name      string
		gap       float64
		wantCount int
	}{
		{"1.4s gap merges", 1.4, 1},
		{"1.6s gap splits", 1.6, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := []types.TranscriptChunk{
				chunk("first", 0.0, 1.0),
				chunk("second", 1.0+tt.gap, 2.0+tt.gap),
			}
			merged := Assemble(chunks, segments)
			if len(merged) != tt.wantCount {
				t.Fatalf("Assemble produced %d segments, want %d", len(merged), tt.wantCount)
			}
			if tt.wantCount == 1 {
				if merged[0].Text != "first second" {
					t.Errorf("merged text = %q, want %q", merged[0].Text, "first second")
				}
				if merged[0].End != 2.0+tt.gap {
					t.Errorf("merged end = %f, want %f", merged[0].End, 2.0+tt.gap)
				}
			}
		})
	}
}

func TestAssemble_SpeakerChangeSplits(t *testing.T) {
	segments := []types.SpeakerSegment{
		seg("A", 0.0, 2.0, 0.9),
		seg("B", 2.0, 4.0, 0.9),
	}
	chunks := []types.TranscriptChunk{
		chunk("hi", 0.0, 1.0),
		chunk("there", 1.0, 2.0),
		chunk("yes", 2.1, 3.0),
	}

	merged := Assemble(chunks, segments)
	if len(merged) != 2 {
		t.Fatalf("Assemble produced %d segments, want 2", len(merged))
	}
	if merged[0].Speaker != "A" || merged[0].Text != "hi there" {
		t.Errorf("first segment = %+v", merged[0])
	}
	if merged[1].Speaker != "B" || merged[1].Text != "yes" {
		t.Errorf("second segment = %+v", merged[1])
	}
}

func TestAssemble_NoSegmentsStillProducesOneBlock(t *testing.T) {
	chunks := []types.TranscriptChunk{
		chunk("hello", 0.0, 1.0),
		chunk("world", 1.2, 2.0),
	}

	merged := Assemble(chunks, nil)
	if len(merged) != 1 {
		t.Fatalf("Assemble produced %d segments, want 1", len(merged))
	}
	if merged[0].Speaker != types.SpeakerUnknown {
		t.Errorf("speaker = %q, want %q", merged[0].Speaker, types.SpeakerUnknown)
	}
	if merged[0].Text != "hello world" {
		t.Errorf("text = %q, want %q", merged[0].Text, "hello world")
	}
}

func TestAssemble_SkipsEmptyChunks(t *testing.T) {
	chunks := []types.TranscriptChunk{
		chunk("hello", 0.0, 1.0),
		chunk("   ", 1.0, 1.5),
		chunk("world", 1.5, 2.0),
	}
	merged := Assemble(chunks, nil)
	if len(merged) != 1 || merged[0].Text != "hello world" {
		t.Fatalf("unexpected result: %+v", merged)
	}
}

func TestAssemble_ChronologicalOrder(t *testing.T) {
	segments := []types.SpeakerSegment{
		seg("A", 0.0, 2.0, 0.9),
		seg("B", 2.0, 4.0, 0.9),
		seg("A2", 4.0, 6.0, 0.9),
	}
	chunks := []types.TranscriptChunk{
		chunk("one", 0.5, 1.0),
		chunk("two", 2.5, 3.0),
		chunk("three", 4.5, 5.0),
	}
	merged := Assemble(chunks, segments)
	for i := 1; i < len(merged); i++ {
		if merged[i].Start < merged[i-1].Start {
			t.Fatalf("segments out of order: %+v", merged)
		}
		if merged[i].Speaker == merged[i-1].Speaker {
			t.Fatalf("consecutive segments share a speaker: %+v", merged)
		}
	}
}

func TestRender(t *testing.T) {
	segments := []types.MergedSegment{
		{Speaker: "A", Text: "hello there", Start: 0, End: 2},
		{Speaker: "B", Text: "how are you", Start: 3, End: 4},
	}
	got := Render(segments)
	want := "A: hello there\n\nB: how are you"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRender_Empty(t *testing.T) {
	if got := Render(nil); got != "" {
		t.Errorf("Render(nil) = %q, want empty", got)
	}
}

func TestEndToEndScenario(t *testing.T) {
	chunks := []types.TranscriptChunk{
		chunk("hello", 0.0, 1.0),
		chunk("there", 1.0, 2.0),
		chunk("how are you", 3.0, 4.0),
	}
	segments := []types.SpeakerSegment{
		seg("A", 0.0, 2.0, 0.9),
		seg("B", 3.0, 5.0, 0.9),
	}

	merged := Assemble(chunks, segments)
	got := Render(merged)
	want := "A: hello there\n\nB: how are you"
	if got != want {
		t.Errorf("formatted = %q, want %q", got, want)
	}
}
