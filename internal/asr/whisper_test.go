package asr

import (
	"testing"
)

func TestParseWhisperJSON_WordTimestamps(t *testing.T) {
	data := []byte(`{
		"text": " hello world",
		"language": "en",
		"segments": [
			{
				"id": 0,
				"start": 0.0,
				"end": 2.0,
				"text": " hello world",
				"words": [
					{"word": " hello", "start": 0.0, "end": 0.8},
					{"word": " world", "start": 0.9, "end": 1.6}
				]
			}
		]
	}`)

	chunks, err := ParseWhisperJSON(data)
	if err != nil {
		t.Fatalf("ParseWhisperJSON failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Text != "hello" || chunks[0].Start != 0.0 || chunks[0].End != 0.8 {
		t.Errorf("first chunk = %+v", chunks[0])
	}
	if chunks[1].Text != "world" || chunks[1].Start != 0.9 {
		t.Errorf("second chunk = %+v", chunks[1])
	}
}

func TestParseWhisperJSON_SegmentFallback(t *testing.T) {
	// Older whisper versions omit word timestamps; segment granularity
	// is used instead.
	data := []byte(`{
		"text": " good morning",
		"language": "en",
		"segments": [
			{"id": 0, "start": 0.5, "end": 2.5, "text": " good morning"}
		]
	}`)

	chunks, err := ParseWhisperJSON(data)
	if err != nil {
		t.Fatalf("ParseWhisperJSON failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Text != "good morning" || chunks[0].Start != 0.5 || chunks[0].End != 2.5 {
		t.Errorf("chunk = %+v", chunks[0])
	}
}

func TestParseWhisperJSON_SkipsEmptyWords(t *testing.T) {
	data := []byte(`{
		"segments": [
			{
				"start": 0, "end": 1, "text": " hi",
				"words": [
					{"word": "  ", "start": 0.0, "end": 0.1},
					{"word": " hi", "start": 0.2, "end": 0.5}
				]
			}
		]
	}`)

	chunks, err := ParseWhisperJSON(data)
	if err != nil {
		t.Fatalf("ParseWhisperJSON failed: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "hi" {
		t.Fatalf("chunks = %+v", chunks)
	}
}

func TestParseWhisperJSON_Invalid(t *testing.T) {
	if _, err := ParseWhisperJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestNewWhisperEngineModelName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"models/ggml-tiny.bin", "tiny"},
		{"models/ggml-base.en.bin", "base"},
		{"models/ggml-medium.bin", "medium"},
		{"somewhere/else.bin", "small"},
	}
	for _, tt := range tests {
		engine := NewWhisperEngine(EngineConfig{ModelPath: tt.path})
		if engine.modelName != tt.want {
			t.Errorf("model name for %q = %q, want %q", tt.path, engine.modelName, tt.want)
		}
	}
}
