package diarize

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/audio"
	"github.com/voicebridge/voicebridge/internal/types"
)

// PyannoteProvider runs a pyannote.audio diarization script as an external
// process and parses its JSON segment output.
type PyannoteProvider struct {
	pythonBin  string
	scriptPath string
	tempDir    string
	initOnce   sync.Once
	initErr    error
}

// NewPyannoteProvider creates the provider. The script is verified lazily
// on first diarization call.
func NewPyannoteProvider(pythonBin, scriptPath, tempDir string) *PyannoteProvider {
	if pythonBin == "" {
		pythonBin = "python"
	}
	if tempDir == "" {
		tempDir = "temp"
	}
	return &PyannoteProvider{
		pythonBin:  pythonBin,
		scriptPath: scriptPath,
		tempDir:    tempDir,
	}
}

func (p *PyannoteProvider) ensureReady() error {
	p.initOnce.Do(func() {
		if p.scriptPath == "" {
			p.initErr = fmt.Errorf("diarization script not configured")
			return
		}
		if _, err := os.Stat(p.scriptPath); err != nil {
			p.initErr = fmt.Errorf("diarization script not found at %s: %v", p.scriptPath, err)
			return
		}
		log.Printf("Diarization provider ready: %s", p.scriptPath)
	})
	return p.initErr
}

// pyannoteSegment matches the diarization script's JSON output.
type pyannoteSegment struct {
	Speaker    string  `json:"speaker"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Diarize writes the session audio to a temp WAV, invokes the script, and
// returns the speaker segments in start order.
func (p *PyannoteProvider) Diarize(ctx context.Context, samples []float32, sampleRate int) ([]types.SpeakerSegment, error) {
	if err := p.ensureReady(); err != nil {
		return nil, err
	}

	wavPath := filepath.Join(p.tempDir, fmt.Sprintf("diarize_%s.wav", uuid.New().String()))
	if err := os.WriteFile(wavPath, audio.EncodeWAV(samples, sampleRate), 0644); err != nil {
		return nil, fmt.Errorf("failed to write diarization audio: %v", err)
	}
	defer os.Remove(wavPath)

	cmd := exec.CommandContext(ctx, p.pythonBin, p.scriptPath,
		"--audio", wavPath,
		"--sample-rate", fmt.Sprintf("%d", sampleRate),
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("diarization failed: %v", err)
	}

	var raw []pyannoteSegment
	if err := json.Unmarshal(output, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse diarization output: %v", err)
	}

	segments := make([]types.SpeakerSegment, 0, len(raw))
	for _, s := range raw {
		segments = append(segments, types.SpeakerSegment{
			SpeakerID:  s.Speaker,
			Start:      s.Start,
			End:        s.End,
			Confidence: s.Confidence,
		})
	}

	log.Printf("Diarization completed: %d segments", len(segments))
	return segments, nil
}
