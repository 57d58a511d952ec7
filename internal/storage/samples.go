package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SampleStore saves normalized voice-clone samples on the local filesystem.
type SampleStore struct {
	samplesDir string
}

// NewSampleStore creates a new voice-sample store
func NewSampleStore(samplesDir string) *SampleStore {
	return &SampleStore{
		samplesDir: samplesDir,
	}
}

// Save moves a normalized WAV into a dated directory under the store and
// returns its final path.
func (ss *SampleStore) Save(sampleID, name, normalizedPath string) (string, error) {
	now := time.Now()
	dateDir := filepath.Join(ss.samplesDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()))

	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create date directory: %v", err)
	}

	filename := fmt.Sprintf("%s_%s.wav", sampleID, sanitizeFilename(name))
	finalPath := filepath.Join(dateDir, filename)

	if err := os.Rename(normalizedPath, finalPath); err != nil {
		// Rename fails across filesystems; fall back to copy.
		data, readErr := os.ReadFile(normalizedPath)
		if readErr != nil {
			return "", fmt.Errorf("failed to store sample: %v", err)
		}
		if writeErr := os.WriteFile(finalPath, data, 0644); writeErr != nil {
			return "", fmt.Errorf("failed to store sample: %v", writeErr)
		}
		os.Remove(normalizedPath)
	}

	return finalPath, nil
}

// sanitizeFilename makes a request name safe for use as a filename
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		" ", "_",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	sanitized := replacer.Replace(name)
	if len(sanitized) > 100 {
		sanitized = sanitized[:100]
	}
	if sanitized == "" {
		sanitized = "untitled"
	}
	return sanitized
}
