package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the shared settings file, decoded once in main and passed
// explicitly into each stage constructor.
type Config struct {
	Paths struct {
		SourceDir string `yaml:"source_dir"`
		WorkDir   string `yaml:"work_dir"`
		Sheet     string `yaml:"sheet"`
	} `yaml:"paths"`

	Audio struct {
		SampleRate int      `yaml:"sample_rate"`
		Channels   int      `yaml:"channels"`
		Formats    []string `yaml:"formats"`
	} `yaml:"audio"`

	Diarize struct {
		Python  string  `yaml:"python"`
		Model   string  `yaml:"model"`
		MinTurn float64 `yaml:"min_turn_seconds"`
	} `yaml:"diarize"`

	Whisper struct {
		Model    string `yaml:"model"`
		Language string `yaml:"language"`
		Task     string `yaml:"task"`
		Device   string `yaml:"device"`
	} `yaml:"whisper"`

	Workers struct {
		Count int `yaml:"count"`
	} `yaml:"workers"`

	Analyze struct {
		SentimentURL string `yaml:"sentiment_url"`
		Placeholder  string `yaml:"placeholder"`
	} `yaml:"analyze"`

	Store struct {
		Driver      string `yaml:"driver"` // "sqlite" or "postgres"
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
		Embedding   struct {
			URL string `yaml:"url"`
			Dim int    `yaml:"dim"`
		} `yaml:"embedding"`
	} `yaml:"store"`

	Dashboard struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"dashboard"`

	Archive struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"archive"`
}

// Load reads and decodes the YAML settings file, applying defaults for
// anything the file leaves out.
func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(file, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Default returns a config usable without a settings file.
func Default() *Config {
	cfg := &Config{}
	cfg.Paths.SourceDir = "recordings"
	cfg.Paths.WorkDir = "work"
	cfg.Audio.SampleRate = 16000
	cfg.Audio.Channels = 1
	cfg.Audio.Formats = []string{".mp3", ".wav", ".m4a", ".ogg", ".flac", ".webm", ".aac", ".wma"}
	cfg.Diarize.Python = "python"
	cfg.Diarize.Model = "pyannote/speaker-diarization"
	cfg.Whisper.Model = "medium"
	cfg.Whisper.Task = "transcribe"
	cfg.Workers.Count = 1
	cfg.Analyze.Placeholder = "[REDACTED]"
	cfg.Store.Driver = "sqlite"
	cfg.Store.SQLitePath = "callsight.db"
	cfg.Store.Embedding.Dim = 256
	cfg.Dashboard.Host = "0.0.0.0"
	cfg.Dashboard.Port = 8080
	return cfg
}
