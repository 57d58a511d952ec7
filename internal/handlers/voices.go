package handlers

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/audio"
	"github.com/voicebridge/voicebridge/internal/storage"
)

// VoiceHandler handles voice-clone sample uploads
type VoiceHandler struct {
	samples   *storage.SampleStore
	db        *storage.SettingsDB
	tempDir   string
	maxSizeMB int
}

// NewVoiceHandler creates a new voice-sample handler
func NewVoiceHandler(samples *storage.SampleStore, db *storage.SettingsDB, tempDir string, maxSizeMB int) *VoiceHandler {
	return &VoiceHandler{
		samples:   samples,
		db:        db,
		tempDir:   tempDir,
		maxSizeMB: maxSizeMB,
	}
}

// Upload processes a voice-sample upload request
func (h *VoiceHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "No file uploaded",
			"code":  "ERR_NO_FILE",
		})
	}

	name := c.FormValue("name")
	if name == "" {
		name = "voice_sample"
	}

	maxSize := int64(h.maxSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large (max %dMB)", h.maxSizeMB),
			"code":  "ERR_FILE_TOO_LARGE",
		})
	}

	if !audio.ValidFormat(file.Filename) {
		return c.Status(400).JSON(fiber.Map{
			"error": "Unsupported audio format",
			"code":  "ERR_INVALID_FORMAT",
		})
	}

	sampleID := uuid.New().String()
	extension := filepath.Ext(file.Filename)
	tempPath := filepath.Join(h.tempDir, fmt.Sprintf("%s%s", sampleID, extension))

	if err := c.SaveFile(file, tempPath); err != nil {
		log.Printf("Failed to save uploaded sample: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to save file",
			"code":  "ERR_SAVE_FAILED",
		})
	}

	// Voice samples are normalized to the pipeline format before storage.
	normalizedPath, err := audio.Normalize(tempPath, h.tempDir)
	if err != nil {
		log.Printf("Failed to normalize sample %s: %v", sampleID, err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to process audio",
			"code":  "ERR_NORMALIZE_FAILED",
		})
	}

	finalPath, err := h.samples.Save(sampleID, name, normalizedPath)
	if err != nil {
		log.Printf("Failed to store sample %s: %v", sampleID, err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to store sample",
			"code":  "ERR_STORE_FAILED",
		})
	}

	if err := h.db.SaveVoiceSample(sampleID, name, finalPath); err != nil {
		log.Printf("Failed to record sample %s: %v", sampleID, err)
	}

	return c.JSON(fiber.Map{
		"sample_id": sampleID,
		"name":      name,
		"message":   "Voice sample uploaded successfully",
	})
}

// List returns registered voice samples
func (h *VoiceHandler) List(c *fiber.Ctx) error {
	samples, err := h.db.ListVoiceSamples()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if samples == nil {
		samples = []map[string]interface{}{}
	}
	return c.JSON(samples)
}
