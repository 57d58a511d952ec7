package types

import "time"

// Session status constants
const (
	SessionRecording = "RECORDING"
	SessionStopping  = "STOPPING"
	SessionCompleted = "COMPLETED"
	SessionFailed    = "FAILED"
)

// SpeakerUnknown is the generic label used when no diarization segment
// can be matched to a transcript chunk.
const SpeakerUnknown = "Speaker"

// SampleRate is the sample rate of all audio moving through the pipeline.
// Capture clients must deliver mono float32 PCM at this rate.
const SampleRate = 16000

// TranscriptChunk is a timestamped span of recognized text, produced by
// the streaming or final-pass recognizer. Timestamps are seconds relative
// to session start.
type TranscriptChunk struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// SpeakerSegment is a time-bounded span attributed to one speaker by the
// diarization provider. Segments may overlap each other.
type SpeakerSegment struct {
	SpeakerID  string  `json:"speaker_id"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Duration returns the segment length in seconds.
func (s SpeakerSegment) Duration() float64 {
	return s.End - s.Start
}

// MergedSegment is the assembler's output unit: a run of consecutive
// same-speaker chunks joined into one paragraph. Consecutive merged
// segments never share a speaker label.
type MergedSegment struct {
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// RawData carries the unmerged pipeline outputs alongside the result so
// downstream consumers (suggestions, UI) can inspect them.
type RawData struct {
	Diarization   []SpeakerSegment  `json:"diarization"`
	Transcription []TranscriptChunk `json:"transcription"`
}

// TranscriptResult is the single object a completed session emits.
type TranscriptResult struct {
	SessionID     string          `json:"session_id"`
	FormattedText string          `json:"formatted_text"`
	Segments      []MergedSegment `json:"segments"`
	Raw           RawData         `json:"raw"`
	Degraded      bool            `json:"degraded"`
	Duration      float64         `json:"duration"`
	WordCount     int             `json:"word_count"`
	CompletedAt   time.Time       `json:"completed_at"`
}
