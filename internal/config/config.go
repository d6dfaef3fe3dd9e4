package config

import (
	"errors"
	"strings"
	"time"
)

// Config defines collector configuration.
type Config struct {
	API struct {
		BaseURL        string `yaml:"baseUrl" env:"ELOVERBLIK_BASE_URL"`
		TimeoutSeconds int    `yaml:"timeoutSeconds" env:"ELOVERBLIK_HTTP_TIMEOUT"`
	} `yaml:"api"`
	Database struct {
		DSN string `yaml:"dsn" env:"COLLECTOR_DATABASE_DSN"`
	} `yaml:"database"`
	Redis struct {
		Enabled        bool   `yaml:"enabled" env:"COLLECTOR_REDIS_ENABLED"`
		Addr           string `yaml:"addr" env:"COLLECTOR_REDIS_ADDR"`
		Password       string `yaml:"password" env:"COLLECTOR_REDIS_PASSWORD"`
		LockTTLMinutes int    `yaml:"lockTtlMinutes" env:"COLLECTOR_LOCK_TTL_MINUTES"`
	} `yaml:"redis"`
	Storage struct {
		DataRoot string `yaml:"dataRoot" env:"COLLECTOR_DATA_ROOT"`
	} `yaml:"storage"`
	Upload struct {
		BaseURL  string `yaml:"baseUrl" env:"STORAGE_SERVICE_URL"`
		Token    string `yaml:"token" env:"STORAGE_SERVICE_TOKEN"`
		FolderID string `yaml:"folderId" env:"STORAGE_TARGET_FOLDER_ID"`
	} `yaml:"upload"`
	Retry struct {
		CooldownSeconds int `yaml:"cooldownSeconds" env:"COLLECTOR_RETRY_COOLDOWN"`
	} `yaml:"retry"`
	Email struct {
		Enabled  bool   `yaml:"enabled" env:"EMAIL_ENABLED"`
		Host     string `yaml:"host" env:"EMAIL_SMTP_HOST"`
		Port     int    `yaml:"port" env:"EMAIL_SMTP_PORT"`
		From     string `yaml:"from" env:"FROM_EMAIL"`
		Password string `yaml:"password" env:"FROM_PASSWORD"`
		To       string `yaml:"to" env:"TO_EMAIL"`
	} `yaml:"email"`
	Telegram struct {
		Enabled bool   `yaml:"enabled" env:"TELEGRAM_ENABLED"`
		Token   string `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
		ChatID  int64  `yaml:"chatId" env:"TELEGRAM_CHAT_ID"`
	} `yaml:"telegram"`
	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL"`
	} `yaml:"log"`
}

// Load configuration with defaults, file and env overrides, and validation.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.API.BaseURL = "https://api.eloverblik.dk/customerapi"
	cfg.API.TimeoutSeconds = 60
	cfg.Redis.LockTTLMinutes = 120
	cfg.Storage.DataRoot = "data"
	cfg.Retry.CooldownSeconds = 60
	cfg.Email.Host = "smtp.gmail.com"
	cfg.Email.Port = 587
	cfg.Email.Enabled = true

	if err := load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if cfg.Redis.Enabled && strings.TrimSpace(cfg.Redis.Addr) == "" {
		return nil, errors.New("config: redis addr required when redis is enabled")
	}
	if strings.TrimSpace(cfg.Upload.BaseURL) == "" {
		return nil, errors.New("config: upload base url required")
	}
	if cfg.Email.Enabled {
		if strings.TrimSpace(cfg.Email.From) == "" || strings.TrimSpace(cfg.Email.To) == "" {
			return nil, errors.New("config: email from/to required when email is enabled")
		}
	}
	if cfg.Telegram.Enabled && strings.TrimSpace(cfg.Telegram.Token) == "" {
		return nil, errors.New("config: telegram token required when telegram is enabled")
	}
	return cfg, nil
}

// HTTPTimeout returns the upstream client timeout.
func (c *Config) HTTPTimeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// RetryCooldown returns the pause before a credential's single retry. It
// defaults to the upstream per-minute limit on token issuance.
func (c *Config) RetryCooldown() time.Duration {
	if c.Retry.CooldownSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Retry.CooldownSeconds) * time.Second
}

// LockTTL returns how long a run lock survives a crashed run.
func (c *Config) LockTTL() time.Duration {
	if c.Redis.LockTTLMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(c.Redis.LockTTLMinutes) * time.Minute
}
