package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default configuration file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
// Every transport/store/identity field is required; startup fails without them.
type FileConfig struct {
	LogLevel          string  `yaml:"logLevel"`
	BotToken          string  `yaml:"botToken"`
	DatabaseURL       string  `yaml:"databaseURL"`
	RedisAddr         string  `yaml:"redisAddr"`
	RedisPassword     string  `yaml:"redisPassword"`
	OwnerID           int64   `yaml:"ownerId"`
	RequiredChannelID int64   `yaml:"requiredChannelId"`
	SourceChannelIDs  []int64 `yaml:"sourceChannelIds"`
	BrandingTag       string  `yaml:"brandingTag"`
	BroadcastPaceMs   int     `yaml:"broadcastPaceMs"`
	WorkerLimit       int     `yaml:"workerLimit"`
}

// Load reads config from path (defaults to config.yaml) and applies
// environment overrides.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.BotToken = strings.TrimSpace(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("OWNER_ID"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.OwnerID = n
		}
	}
	if v := os.Getenv("REQUIRED_CHANNEL_ID"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.RequiredChannelID = n
		}
	}
	if v := os.Getenv("SOURCE_CHANNEL_IDS"); v != "" {
		ids, err := parseIDList(v)
		if err != nil {
			return cfg, fmt.Errorf("parse SOURCE_CHANNEL_IDS: %w", err)
		}
		cfg.SourceChannelIDs = ids
	}
	if v := os.Getenv("BRANDING_TAG"); v != "" {
		cfg.BrandingTag = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("BROADCAST_PACE_MS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.BroadcastPaceMs = n
		}
	}
	if v := os.Getenv("WORKER_LIMIT"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.WorkerLimit = n
		}
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if strings.TrimSpace(cfg.BotToken) == "" {
		return errors.New("config: botToken is required (set in config.yaml or BOT_TOKEN)")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.OwnerID == 0 {
		return errors.New("config: ownerId is required (set in config.yaml or OWNER_ID)")
	}
	if cfg.RequiredChannelID == 0 {
		return errors.New("config: requiredChannelId is required (set in config.yaml or REQUIRED_CHANNEL_ID)")
	}
	if len(cfg.SourceChannelIDs) == 0 {
		return errors.New("config: at least one source channel is required (sourceChannelIds or SOURCE_CHANNEL_IDS)")
	}
	if strings.TrimSpace(cfg.BrandingTag) == "" {
		return errors.New("config: brandingTag is required (set in config.yaml or BRANDING_TAG)")
	}
	if cfg.BroadcastPaceMs < 0 {
		return errors.New("config: broadcastPaceMs must be >= 0")
	}
	if cfg.WorkerLimit < 0 {
		return errors.New("config: workerLimit must be >= 0")
	}
	return nil
}

func parseIDList(value string) ([]int64, error) {
	parts := strings.Split(value, ",")
	out := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid channel id %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}
