package asr

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/audio"
	"github.com/voicebridge/voicebridge/internal/types"
)

// WhisperEngine drives whisper as an external process: a whisper.cpp CLI
// binary for low-latency block decoding and Python Whisper for the
// high-accuracy timestamped final pass.
type WhisperEngine struct {
	modelName string
	modelPath string
	streamBin string
	pythonBin string
	tempDir   string
	initOnce  sync.Once
	initErr   error
	finalMu   sync.Mutex // at most one final pass at a time
}

// EngineConfig configures the exec-driven whisper engine.
type EngineConfig struct {
	ModelPath string // ggml model file for the streaming binary
	StreamBin string // whisper.cpp CLI binary, e.g. "whisper-cli"
	PythonBin string // interpreter used for "python -m whisper"
	TempDir   string
}

// NewWhisperEngine creates the engine. Model availability is verified
// lazily on first recognition, not here.
func NewWhisperEngine(cfg EngineConfig) *WhisperEngine {
	modelName := "small"
	for _, name := range []string{"tiny", "base", "small", "medium", "large"} {
		if strings.Contains(cfg.ModelPath, name) {
			modelName = name
		}
	}

	if cfg.StreamBin == "" {
		cfg.StreamBin = "whisper-cli"
	}
	if cfg.PythonBin == "" {
		cfg.PythonBin = "python"
	}
	if cfg.TempDir == "" {
		cfg.TempDir = "temp"
	}

	log.Printf("Initializing whisper engine (model: %s, stream binary: %s)", modelName, cfg.StreamBin)

	return &WhisperEngine{
		modelName: modelName,
		modelPath: cfg.ModelPath,
		streamBin: cfg.StreamBin,
		pythonBin: cfg.PythonBin,
		tempDir:   cfg.TempDir,
	}
}

// ensureReady verifies the streaming binary and model file exactly once.
// Concurrent callers block on the same check instead of re-triggering it.
func (we *WhisperEngine) ensureReady() error {
	we.initOnce.Do(func() {
		if _, err := exec.LookPath(we.streamBin); err != nil {
			we.initErr = fmt.Errorf("streaming recognizer unavailable: %v", err)
			return
		}
		if we.modelPath != "" {
			if _, err := os.Stat(we.modelPath); err != nil {
				we.initErr = fmt.Errorf("whisper model not found at %s: %v", we.modelPath, err)
				return
			}
		}
		log.Printf("Whisper engine ready (model: %s)", we.modelName)
	})
	return we.initErr
}

// Recognize decodes one audio block, emitting a partial event per decoded
// line as the external process prints it.
func (we *WhisperEngine) Recognize(ctx context.Context, samples []float32, language string, onPartial func(PartialEvent)) (string, error) {
	if err := we.ensureReady(); err != nil {
		return "", err
	}

	wavPath := filepath.Join(we.tempDir, fmt.Sprintf("block_%s.wav", uuid.New().String()))
	if err := os.WriteFile(wavPath, audio.EncodeWAV(samples, types.SampleRate), 0644); err != nil {
		return "", fmt.Errorf("failed to write block audio: %v", err)
	}
	defer os.Remove(wavPath)

	args := []string{
		"-m", we.modelPath,
		"-f", wavPath,
		"--no-timestamps",
	}
	if language != "" {
		args = append(args, "-l", language)
	}

	cmd := exec.CommandContext(ctx, we.streamBin, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to open recognizer stdout: %v", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start recognizer: %v", err)
	}

	started := time.Now()
	var parts []string
	tokens := 0

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts = append(parts, line)
		tokens += len(strings.Fields(line))

		if onPartial != nil {
			elapsed := time.Since(started).Seconds()
			rate := 0.0
			if elapsed > 0 {
				rate = float64(tokens) / elapsed
			}
			onPartial(PartialEvent{
				Text:         strings.Join(parts, " "),
				Tokens:       tokens,
				TokensPerSec: rate,
			})
		}
	}

	if err := cmd.Wait(); err != nil {
		return "", fmt.Errorf("block recognition failed: %v", err)
	}

	return strings.Join(parts, " "), nil
}

// Transcribe runs the full session audio through Python Whisper once,
// requesting JSON output with timestamped segments.
func (we *WhisperEngine) Transcribe(ctx context.Context, samples []float32, language string) ([]types.TranscriptChunk, error) {
	we.finalMu.Lock()
	defer we.finalMu.Unlock()

	outDir := filepath.Join(we.tempDir, "whisper_output")
	os.MkdirAll(outDir, 0755)
	defer os.RemoveAll(outDir)

	baseName := fmt.Sprintf("session_%s", uuid.New().String())
	wavPath := filepath.Join(we.tempDir, baseName+".wav")
	if err := os.WriteFile(wavPath, audio.EncodeWAV(samples, types.SampleRate), 0644); err != nil {
		return nil, fmt.Errorf("failed to write session audio: %v", err)
	}
	defer os.Remove(wavPath)

	absWavPath, err := filepath.Abs(wavPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %v", err)
	}

	args := []string{"-m", "whisper",
		absWavPath,
		"--model", we.modelName,
		"--output_dir", outDir,
		"--output_format", "json",
		"--word_timestamps", "True",
		"--fp16", "False",
	}
	if language != "" {
		args = append(args, "--language", language)
	}

	cmd := exec.CommandContext(ctx, we.pythonBin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("final-pass transcription failed: %v\nOutput: %s", err, string(output))
	}

	jsonPath := filepath.Join(outDir, baseName+".json")
	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output: %v", err)
	}

	chunks, err := ParseWhisperJSON(jsonData)
	if err != nil {
		return nil, err
	}

	log.Printf("Final pass completed: %d chunks", len(chunks))
	return chunks, nil
}

// whisperOutput matches Python Whisper's JSON output format.
type whisperOutput struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []whisperSegment `json:"segments"`
}

type whisperSegment struct {
	ID    int           `json:"id"`
	Start float64       `json:"start"`
	End   float64       `json:"end"`
	Text  string        `json:"text"`
	Words []whisperWord `json:"words"`
}

type whisperWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ParseWhisperJSON converts Python Whisper's JSON output into ordered
// transcript chunks, preferring word-level timestamps when present.
func ParseWhisperJSON(data []byte) ([]types.TranscriptChunk, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse whisper JSON: %v", err)
	}

	var chunks []types.TranscriptChunk
	for _, seg := range out.Segments {
		if len(seg.Words) > 0 {
			for _, w := range seg.Words {
				text := strings.TrimSpace(w.Word)
				if text == "" {
					continue
				}
				chunks = append(chunks, types.TranscriptChunk{
					Text:  text,
					Start: w.Start,
					End:   w.End,
				})
			}
			continue
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		chunks = append(chunks, types.TranscriptChunk{
			Text:  text,
			Start: seg.Start,
			End:   seg.End,
		})
	}
	return chunks, nil
}
