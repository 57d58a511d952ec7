package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/voicebridge/voicebridge/internal/asr"
	"github.com/voicebridge/voicebridge/internal/cleanup"
	"github.com/voicebridge/voicebridge/internal/config"
	"github.com/voicebridge/voicebridge/internal/diarize"
	"github.com/voicebridge/voicebridge/internal/handlers"
	"github.com/voicebridge/voicebridge/internal/session"
	"github.com/voicebridge/voicebridge/internal/speech"
	"github.com/voicebridge/voicebridge/internal/storage"
	"github.com/voicebridge/voicebridge/internal/suggest"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ensure directories exist
	if err := cleanup.EnsureTempDirExists(cfg.Storage.TempDir); err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}
	if err := os.MkdirAll(cfg.Storage.SamplesDir, 0755); err != nil {
		log.Fatalf("Failed to create samples directory: %v", err)
	}

	// Custom logger setup
	logBuffer := &LogBuffer{
		lines: make([]string, 0, 1000),
	}
	multiWriter := io.MultiWriter(os.Stdout, logBuffer)
	log.SetOutput(multiWriter)

	log.Println("Initializing components...")

	// Whisper engine: serves both the streaming and the final pass.
	engine := asr.NewWhisperEngine(asr.EngineConfig{
		ModelPath: cfg.ASR.ModelPath,
		StreamBin: cfg.ASR.StreamBin,
		PythonBin: cfg.ASR.PythonBin,
		TempDir:   cfg.Storage.TempDir,
	})

	// Diarization provider (optional - script may not be configured)
	var diarizer diarize.Provider = diarize.Noop{}
	if cfg.Diarization.ScriptPath != "" {
		diarizer = diarize.NewPyannoteProvider(cfg.Diarization.PythonBin, cfg.Diarization.ScriptPath, cfg.Storage.TempDir)
	} else {
		log.Println("Diarization script not configured - transcripts will be unlabeled")
	}

	// Database
	db, err := storage.NewSettingsDB(cfg.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Session manager
	manager := session.NewManager(engine, engine, diarizer, session.Config{
		Language:         cfg.ASR.Language,
		DispatchInterval: time.Duration(cfg.Pipeline.DispatchIntervalMs) * time.Millisecond,
	})

	// Suggestion generator (optional)
	var suggester suggest.Generator = suggest.Disabled{}
	if cfg.Suggestions.Enabled {
		suggester = suggest.NewClient(cfg.Suggestions.URL, cfg.Suggestions.Model)
		log.Printf("Suggestions enabled (%s, model: %s)", cfg.Suggestions.URL, cfg.Suggestions.Model)
	}

	// TTS playback (optional)
	var speaker speech.Speaker = speech.Disabled{}
	if cfg.TTS.Command != "" {
		speaker = speech.NewCommandSpeaker(cfg.TTS.Command, cfg.TTS.Args)
		log.Printf("TTS playback enabled (%s)", cfg.TTS.Command)
	}

	// Voice sample store
	sampleStore := storage.NewSampleStore(cfg.Storage.SamplesDir)

	// Cleanup scheduler
	cleanupScheduler := cleanup.NewScheduler(
		cfg.Storage.TempDir,
		cfg.Cleanup.IntervalMinutes,
		cfg.Cleanup.MaxAgeHours,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Limits.MaxFileSizeMB * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(manager, db, suggester, cfg.Suggestions.Count)
	voiceHandler := handlers.NewVoiceHandler(sampleStore, db, cfg.Storage.TempDir, cfg.Limits.MaxFileSizeMB)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Get("/ws/session", websocket.New(sessionHandler.Handle))

	app.Post("/voices", voiceHandler.Upload)
	app.Get("/voices", voiceHandler.List)

	app.Get("/settings", func(c *fiber.Ctx) error {
		settings, err := db.GetSettings()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(settings)
	})

	app.Put("/settings", func(c *fiber.Ctx) error {
		var updates map[string]string
		if err := c.BodyParser(&updates); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid settings payload"})
		}
		for key, value := range updates {
			if err := db.SetSetting(key, value); err != nil {
				return c.Status(500).JSON(fiber.Map{"error": err.Error()})
			}
		}
		return c.JSON(fiber.Map{"message": "Settings updated"})
	})

	app.Get("/sessions", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		sessions, err := db.ListSessions(limit)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if sessions == nil {
			sessions = []map[string]interface{}{}
		}
		return c.JSON(sessions)
	})

	app.Post("/speak", func(c *fiber.Ctx) error {
		var body struct {
			Text string `json:"text"`
		}
		if err := c.BodyParser(&body); err != nil || body.Text == "" {
			return c.Status(400).JSON(fiber.Map{"error": "Missing text"})
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := speaker.Speak(ctx, body.Text); err != nil {
			log.Printf("TTS playback failed: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "Playback failed"})
		}
		return c.JSON(fiber.Map{"message": "Spoken"})
	})

	// Get server logs
	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logBuffer.GetLogs(),
		})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   GET  /ws/session  - Live transcription session")
	log.Println("   POST /voices      - Upload voice sample")
	log.Println("   GET  /voices      - List voice samples")
	log.Println("   GET  /settings    - Get settings")
	log.Println("   PUT  /settings    - Update settings")
	log.Println("   GET  /sessions    - Session history")
	log.Println("   POST /speak       - Speak a sentence")
	log.Println("   GET  /logs        - View server logs")
	log.Println("   GET  /health      - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// LogBuffer captures logs in memory
type LogBuffer struct {
	lines []string
	mu    sync.Mutex
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, string(p))

	// Keep last 1000 lines
	if len(lb.lines) > 1000 {
		lb.lines = lb.lines[len(lb.lines)-1000:]
	}

	return len(p), nil
}

func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}
