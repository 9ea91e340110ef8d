// Package config loads goalkeeper settings from a YAML file, an optional .env
// file and GOALKEEPER_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/utils"
)

const (
	EnvPrefix         = "GOALKEEPER_"
	FileName          = "config.yaml"
	maxConfigFileSize = 1024 * 1024
)

type Config struct {
	Local    LocalConfig    `koanf:"local"`
	Log      LogConfig      `koanf:"log"`
	Server   ServerConfig   `koanf:"server"`
	LLM      LLMConfig      `koanf:"llm"`
	Feed     FeedConfig     `koanf:"feed"`
	Identity IdentityConfig `koanf:"identity"`
}

// LocalConfig describes the single user the CLI and TUI act as.
type LocalConfig struct {
	UserID   string `koanf:"user_id"`
	Timezone string `koanf:"timezone"`
}

// LogConfig tunes the rotating log file. Zero rotation values use the
// built-in defaults.
type LogConfig struct {
	Level      string `koanf:"level"`
	Debug      bool   `koanf:"debug"`
	Format     string `koanf:"format"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	UserHeader      string        `koanf:"user_header"`
	RateLimitRPS    float64       `koanf:"rate_limit_rps"`
	RateLimitBurst  int           `koanf:"rate_limit_burst"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LLMConfig struct {
	BaseURL     string        `koanf:"base_url"`
	Model       string        `koanf:"model"`
	Token       Secret        `koanf:"token"`
	Timeout     time.Duration `koanf:"timeout"`
	MaxTokens   int           `koanf:"max_tokens"`
	Temperature float64       `koanf:"temperature"`
}

// FeedConfig points at a NATS server. An empty URL starts an embedded one.
type FeedConfig struct {
	NATSURL      string `koanf:"nats_url"`
	EmbeddedPort int    `koanf:"embedded_port"`
}

type IdentityConfig struct {
	WebhookSecret Secret `koanf:"webhook_secret"`
}

// Dir returns the goalkeeper config directory, ~/.config/goalkeeper.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", constants.AppName), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads configuration from path (or the default path when empty). A
// missing file is not an error. Missing credentials are left empty; the
// components that need them report it when called.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	k := koanf.New(".")

	content, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if content != nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// readFile returns nil content when the file does not exist.
func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// envKey maps GOALKEEPER_SERVER_USER_HEADER to server.user_header: the first
// segment is the section, the rest is the field name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func (c *Config) applyDefaults() {
	if c.Local.UserID == "" {
		c.Local.UserID = constants.DefaultLocalUserID
	}
	if c.Server.Host == "" {
		c.Server.Host = constants.DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = constants.DefaultPort
	}
	if c.Server.UserHeader == "" {
		c.Server.UserHeader = constants.DefaultUserHeader
	}
	if c.Server.RateLimitRPS == 0 {
		c.Server.RateLimitRPS = constants.DefaultRateLimitRPS
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = constants.DefaultRateLimitBurst
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = constants.ShutdownTimeout
	}
	if c.LLM.Model == "" {
		c.LLM.Model = constants.DefaultLLMModel
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = constants.DefaultLLMTimeout
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = constants.DefaultLLMMaxTokens
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = constants.DefaultLLMTemperature
	}
}

// Validate checks value ranges. It never requires credentials.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		return errors.New("server rate limits must not be negative")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %v", c.LLM.Temperature)
	}
	if c.Feed.EmbeddedPort < 0 || c.Feed.EmbeddedPort > 65535 {
		return fmt.Errorf("feed.embedded_port must be between 0 and 65535, got %d", c.Feed.EmbeddedPort)
	}
	switch c.Log.Format {
	case "", constants.LogFormatText, constants.LogFormatJSON, constants.LogFormatLogfmt:
	default:
		return fmt.Errorf("log.format must be text, json or logfmt, got %q", c.Log.Format)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return errors.New("log rotation settings must not be negative")
	}
	if _, err := utils.LoadLocation(c.Local.Timezone); err != nil {
		return fmt.Errorf("local.timezone: %w", err)
	}
	return nil
}
