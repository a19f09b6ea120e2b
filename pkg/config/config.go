package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server     ServerConfig     `json:"server"`
	Chat       ChatConfig       `json:"chat"`
	Storage    StorageConfig    `json:"storage"`
	Speech     SpeechConfig     `json:"speech"`
	StatusPoll StatusPollConfig `json:"status_poll"`
}

type ServerConfig struct {
	BaseURL        string `json:"base_url" env:"KENGPT_SERVER_BASE_URL"`
	Proxy          string `json:"proxy,omitempty" env:"KENGPT_SERVER_PROXY"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"KENGPT_SERVER_TIMEOUT_SECONDS"`
}

type ChatConfig struct {
	// HistoryLimit caps how many prior turns ride along in a request's
	// history snapshot. Zero means the full transcript.
	HistoryLimit int `json:"history_limit" env:"KENGPT_CHAT_HISTORY_LIMIT"`
}

type StorageConfig struct {
	Path string `json:"path" env:"KENGPT_STORAGE_PATH"`
}

type SpeechConfig struct {
	Enabled   bool   `json:"enabled" env:"KENGPT_SPEECH_ENABLED"`
	OutputDir string `json:"output_dir" env:"KENGPT_SPEECH_OUTPUT_DIR"`
}

type StatusPollConfig struct {
	Enabled  bool   `json:"enabled" env:"KENGPT_STATUS_POLL_ENABLED"`
	Schedule string `json:"schedule" env:"KENGPT_STATUS_POLL_SCHEDULE"` // cron expression
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 120,
		},
		Chat: ChatConfig{
			HistoryLimit: 0,
		},
		Storage: StorageConfig{
			Path: "~/.kengpt/state.db",
		},
		Speech: SpeechConfig{
			Enabled:   false,
			OutputDir: "~/.kengpt/speech",
		},
		StatusPoll: StatusPollConfig{
			Enabled:  false,
			Schedule: "* * * * *", // every minute when enabled
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

func (c *Config) StoragePath() string {
	return expandHome(c.Storage.Path)
}

func (c *Config) SpeechOutputDir() string {
	return expandHome(c.Speech.OutputDir)
}

func (c *Config) ServerTimeout() time.Duration {
	if c.Server.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
