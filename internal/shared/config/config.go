package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"

	"github.com/reshetovitsme/telegram-leave-guard/internal/shared/errors"
)

// AppEnv represents the application environment
type AppEnv string

const (
	AppEnvLocal       AppEnv = "local"
	AppEnvProduction  AppEnv = "production"
	AppEnvDevelopment AppEnv = "development"
	AppEnvTesting     AppEnv = "testing"
)

// ParseAppEnv parses a string into an AppEnv, case-insensitively.
// Unknown values fall back to production.
func ParseAppEnv(s string) AppEnv {
	switch v := AppEnv(strings.ToLower(s)); v {
	case AppEnvLocal, AppEnvProduction, AppEnvDevelopment, AppEnvTesting:
		return v
	default:
		return AppEnvProduction
	}
}

type Config struct {
	TelegramBotToken     string `koanf:"telegram_bot_token"`
	TelegramAPIURL       string `koanf:"telegram_api_url"`
	StoragePath          string `koanf:"storage_path"`
	HTTPPort             string `koanf:"http_port"`
	RequiredChannelID    int64  `koanf:"required_channel_id"`
	RequiredChannelLink  string `koanf:"required_channel_link"`
	MenuImageURL         string `koanf:"menu_image_url"`
	VerificationImageURL string `koanf:"verification_image_url"`
	AppEnv               AppEnv `koanf:"app_env"`
}

// VerificationEnabled reports whether the required-channel join gate is configured.
func (c *Config) VerificationEnabled() bool {
	return c.RequiredChannelID != 0
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try to load config file from various formats
	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	// Use lo.Find to find the first existing config file
	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Load environment variables (they override config file values)
	// Convert TELEGRAM_BOT_TOKEN -> telegram_bot_token
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	// Set defaults
	if !k.Exists("telegram_api_url") {
		k.Set("telegram_api_url", "https://api.telegram.org")
	}
	if !k.Exists("storage_path") {
		k.Set("storage_path", "./data")
	}
	if !k.Exists("http_port") {
		k.Set("http_port", "8080")
	}
	if !k.Exists("app_env") {
		k.Set("app_env", "production")
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	cfg.AppEnv = ParseAppEnv(k.String("app_env"))

	// Validate required fields
	if cfg.TelegramBotToken == "" {
		return nil, errors.ErrMissingBotToken
	}

	return &cfg, nil
}
