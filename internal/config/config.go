// Package config loads the faqbot configuration from an optional YAML
// file overlaid with environment variables. A missing file is not an
// error; defaults plus the environment are enough to run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full faqbot configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Qdrant   QdrantConfig   `yaml:"qdrant"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Crawl    CrawlConfig    `yaml:"crawl"`
	Tenant   TenantConfig   `yaml:"tenant"`
	Telegram TelegramConfig `yaml:"telegram"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port        int `yaml:"port"`
	ShutdownSec int `yaml:"shutdown_timeout_sec"`
}

// QdrantConfig holds vector store connection settings.
type QdrantConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// OpenAIConfig holds embedding and completion settings.
type OpenAIConfig struct {
	APIKey    string `yaml:"api_key"`
	BatchSize int    `yaml:"embed_batch_size"`
}

// CrawlConfig holds crawl bounds and scope settings.
type CrawlConfig struct {
	MaxPages       int    `yaml:"max_pages"`
	PathPrefix     string `yaml:"path_prefix"`
	ArticlePattern string `yaml:"article_pattern"`
	LoadTimeoutSec int    `yaml:"load_timeout_sec"`
	SettleDelaySec int    `yaml:"settle_delay_sec"`
	RemoteBrowser  string `yaml:"remote_browser_url"`
}

// TenantConfig holds the team database path and the fallback team used
// for queries that do not name one.
type TenantConfig struct {
	DBPath        string `yaml:"db_path"`
	DefaultTeamID string `yaml:"default_team_id"`
}

// TelegramConfig holds the bot token for webhook replies.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads the YAML file at path when it exists, applies environment
// overrides, fills defaults and validates. An empty path or absent file
// falls through to environment-only configuration.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// applyEnv overlays environment variables onto the file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HTTP.Port = port
		}
	}
	if v := os.Getenv("QDRANT_HOST"); v != "" {
		c.Qdrant.Host = v
	}
	if v := os.Getenv("QDRANT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Qdrant.Port = port
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TENANT_DB"); v != "" {
		c.Tenant.DBPath = v
	}
	if v := os.Getenv("DEFAULT_TEAM_ID"); v != "" {
		c.Tenant.DefaultTeamID = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Qdrant.Host == "" {
		c.Qdrant.Host = "localhost"
	}
	if c.Qdrant.Port <= 0 {
		c.Qdrant.Port = 6334
	}
	if c.OpenAI.BatchSize <= 0 {
		c.OpenAI.BatchSize = 20
	}
	if c.Crawl.MaxPages <= 0 {
		c.Crawl.MaxPages = 20
	}
	if c.Crawl.PathPrefix == "" {
		c.Crawl.PathPrefix = "/support/solutions"
	}
	if c.Crawl.ArticlePattern == "" {
		c.Crawl.ArticlePattern = `/solutions/articles/\d+`
	}
	if c.Crawl.LoadTimeoutSec <= 0 {
		c.Crawl.LoadTimeoutSec = 30
	}
	if c.Crawl.SettleDelaySec <= 0 {
		c.Crawl.SettleDelaySec = 2
	}
	if c.Tenant.DBPath == "" {
		c.Tenant.DBPath = "faqbot.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Qdrant.Port <= 0 || c.Qdrant.Port > 65535 {
		return fmt.Errorf("qdrant.port must be between 1 and 65535, got %d", c.Qdrant.Port)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// LoadTimeout returns the crawl navigation timeout as a duration.
func (c *CrawlConfig) LoadTimeout() time.Duration {
	return time.Duration(c.LoadTimeoutSec) * time.Second
}

// SettleDelay returns the post-load settle delay as a duration.
func (c *CrawlConfig) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelaySec) * time.Second
}
