package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	ASR struct {
		ModelPath string `yaml:"model_path"`
		StreamBin string `yaml:"stream_bin"`
		PythonBin string `yaml:"python_bin"`
		Language  string `yaml:"language"`
	} `yaml:"asr"`

	Diarization struct {
		ScriptPath string `yaml:"script_path"`
		PythonBin  string `yaml:"python_bin"`
	} `yaml:"diarization"`

	Pipeline struct {
		DispatchIntervalMs int `yaml:"dispatch_interval_ms"`
	} `yaml:"pipeline"`

	Storage struct {
		TempDir    string `yaml:"temp_dir"`
		SamplesDir string `yaml:"samples_dir"`
		Database   string `yaml:"database"`
	} `yaml:"storage"`

	Suggestions struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url"`
		Model   string `yaml:"model"`
		Count   int    `yaml:"count"`
	} `yaml:"suggestions"`

	TTS struct {
		Command string   `yaml:"command"`
		Args    []string `yaml:"args"`
	} `yaml:"tts"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	Limits struct {
		MaxFileSizeMB int `yaml:"max_file_size_mb"`
	} `yaml:"limits"`
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.ASR.StreamBin == "" {
		c.ASR.StreamBin = "whisper-cli"
	}
	if c.ASR.PythonBin == "" {
		c.ASR.PythonBin = "python"
	}
	if c.Diarization.PythonBin == "" {
		c.Diarization.PythonBin = "python"
	}
	if c.Pipeline.DispatchIntervalMs == 0 {
		c.Pipeline.DispatchIntervalMs = 1000
	}
	if c.Storage.TempDir == "" {
		c.Storage.TempDir = "temp"
	}
	if c.Storage.SamplesDir == "" {
		c.Storage.SamplesDir = "voices"
	}
	if c.Storage.Database == "" {
		c.Storage.Database = "voicebridge.db"
	}
	if c.Suggestions.URL == "" {
		c.Suggestions.URL = "http://localhost:11434"
	}
	if c.Suggestions.Model == "" {
		c.Suggestions.Model = "llama3.2"
	}
	if c.Suggestions.Count == 0 {
		c.Suggestions.Count = 3
	}
	if c.Cleanup.IntervalMinutes == 0 {
		c.Cleanup.IntervalMinutes = 60
	}
	if c.Cleanup.MaxAgeHours == 0 {
		c.Cleanup.MaxAgeHours = 24
	}
	if c.Limits.MaxFileSizeMB == 0 {
		c.Limits.MaxFileSizeMB = 50
	}
}
