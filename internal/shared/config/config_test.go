package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/reshetovitsme/telegram-leave-guard/internal/shared/errors"
)

func TestLoadMissingToken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	_, err := Load()
	if !stderrors.Is(err, errors.ErrMissingBotToken) {
		t.Errorf("Load() error = %v, want %v", err, errors.ErrMissingBotToken)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TelegramAPIURL != "https://api.telegram.org" {
		t.Errorf("TelegramAPIURL = %q", cfg.TelegramAPIURL)
	}
	if cfg.StoragePath != "./data" {
		t.Errorf("StoragePath = %q", cfg.StoragePath)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q", cfg.HTTPPort)
	}
	if cfg.AppEnv != AppEnvProduction {
		t.Errorf("AppEnv = %q", cfg.AppEnv)
	}
	if cfg.VerificationEnabled() {
		t.Error("VerificationEnabled() = true with no required channel")
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `telegram_bot_token: "123:abc"
required_channel_id: -100500
required_channel_link: "https://t.me/mychannel"
http_port: "9090"
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TelegramBotToken != "123:abc" {
		t.Errorf("TelegramBotToken = %q", cfg.TelegramBotToken)
	}
	if cfg.RequiredChannelID != -100500 {
		t.Errorf("RequiredChannelID = %d", cfg.RequiredChannelID)
	}
	if cfg.HTTPPort != "9090" {
		t.Errorf("HTTPPort = %q", cfg.HTTPPort)
	}
	if !cfg.VerificationEnabled() {
		t.Error("VerificationEnabled() = false with required channel set")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `telegram_bot_token: "from-file"
http_port: "9090"
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Chdir(dir)
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TelegramBotToken != "from-env" {
		t.Errorf("TelegramBotToken = %q, want env to win", cfg.TelegramBotToken)
	}
	if cfg.HTTPPort != "9090" {
		t.Errorf("HTTPPort = %q, want file value kept", cfg.HTTPPort)
	}
}

func TestParseAppEnv(t *testing.T) {
	tests := []struct {
		input string
		want  AppEnv
	}{
		{"local", AppEnvLocal},
		{"LOCAL", AppEnvLocal},
		{"development", AppEnvDevelopment},
		{"testing", AppEnvTesting},
		{"production", AppEnvProduction},
		{"staging", AppEnvProduction},
		{"", AppEnvProduction},
	}

	for _, tt := range tests {
		if got := ParseAppEnv(tt.input); got != tt.want {
			t.Errorf("ParseAppEnv(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
