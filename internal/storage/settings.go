package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SettingsDB handles SQLite persistence for user settings, the speaker
// profile, registered voice samples, and session history metadata.
// Transcript text is never stored here; sessions are in-memory only.
type SettingsDB struct {
	db *sql.DB
}

// NewSettingsDB opens (and if needed initializes) the settings database.
func NewSettingsDB(dbPath string) (*SettingsDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS voice_samples (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		file_path TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		duration REAL,
		word_count INTEGER,
		speaker_count INTEGER,
		degraded INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &SettingsDB{db: db}, nil
}

// SetSetting upserts one settings key.
func (s *SettingsDB) SetSetting(key, value string) error {
	query := `
	INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to save setting %s: %v", key, err)
	}
	return nil
}

// GetSettings returns all settings as a key/value map.
func (s *SettingsDB) GetSettings() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %v", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		settings[key] = value
	}
	return settings, nil
}

// SaveVoiceSample records an uploaded voice-clone sample.
func (s *SettingsDB) SaveVoiceSample(id, name, filePath string) error {
	query := `INSERT INTO voice_samples (id, name, file_path, created_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.Exec(query, id, name, filePath, time.Now()); err != nil {
		return fmt.Errorf("failed to save voice sample: %v", err)
	}
	return nil
}

// ListVoiceSamples returns registered voice samples, newest first.
func (s *SettingsDB) ListVoiceSamples() ([]map[string]interface{}, error) {
	rows, err := s.db.Query(`SELECT id, name, file_path, created_at FROM voice_samples ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list voice samples: %v", err)
	}
	defer rows.Close()

	var samples []map[string]interface{}
	for rows.Next() {
		var (
			id, name, filePath string
			createdAt          time.Time
		)
		if err := rows.Scan(&id, &name, &filePath, &createdAt); err != nil {
			continue
		}
		samples = append(samples, map[string]interface{}{
			"id":         id,
			"name":       name,
			"file_path":  filePath,
			"created_at": createdAt,
		})
	}
	return samples, nil
}

// SaveSession records metadata for a completed session.
func (s *SettingsDB) SaveSession(id string, startedAt time.Time, duration float64, wordCount, speakerCount int, degraded bool) error {
	query := `
	INSERT INTO sessions (id, started_at, duration, word_count, speaker_count, degraded)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	deg := 0
	if degraded {
		deg = 1
	}
	if _, err := s.db.Exec(query, id, startedAt, duration, wordCount, speakerCount, deg); err != nil {
		return fmt.Errorf("failed to save session metadata: %v", err)
	}
	return nil
}

// ListSessions returns recent session metadata rows.
func (s *SettingsDB) ListSessions(limit int) ([]map[string]interface{}, error) {
	query := `
	SELECT id, started_at, duration, word_count, speaker_count, degraded
	FROM sessions ORDER BY started_at DESC LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %v", err)
	}
	defer rows.Close()

	var sessions []map[string]interface{}
	for rows.Next() {
		var (
			id                      string
			startedAt               time.Time
			duration                float64
			wordCount, speakerCount int
			degraded                int
		)
		if err := rows.Scan(&id, &startedAt, &duration, &wordCount, &speakerCount, &degraded); err != nil {
			continue
		}
		sessions = append(sessions, map[string]interface{}{
			"id":            id,
			"started_at":    startedAt,
			"duration":      duration,
			"word_count":    wordCount,
			"speaker_count": speakerCount,
			"degraded":      degraded == 1,
		})
	}
	return sessions, nil
}

// Close closes the database connection
func (s *SettingsDB) Close() error {
	return s.db.Close()
}
