// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (INSIGHTS_* prefix, plus GEMINI_API_KEY)
//  2. Config file (~/.ingredient-insights/config.yaml)
//  3. Default values
//
// Sensitive values (the API key) are never logged and are excluded from the
// JSON representation of the config.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel errors for configuration validation.
// Check with errors.Is().
var (
	// ErrMissingAPIKey indicates the model provider API key is not set.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature is out of [0, 2].
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidAddr indicates the listen address cannot be parsed.
	ErrInvalidAddr = errors.New("invalid listen address")

	// ErrInvalidTimeout indicates the model call timeout is non-positive.
	ErrInvalidTimeout = errors.New("invalid model timeout")

	// ErrInvalidDataDir indicates the data directory path is empty.
	ErrInvalidDataDir = errors.New("invalid data directory")
)

// Defaults applied when neither the environment nor the config file provide
// a value.
const (
	DefaultModelName    = "gemini-2.5-flash"
	DefaultTemperature  = 0.2
	DefaultAddr         = "127.0.0.1:8080"
	DefaultModelTimeout = 60 * time.Second
	DefaultRateBurst    = 60

	configDirName  = ".ingredient-insights"
	configFileName = "config"
)

// Config stores application configuration.
//
// The API key is deliberately excluded from JSON serialization so the config
// can be logged or exported without leaking credentials.
type Config struct {
	// Model configuration
	ModelName   string  `mapstructure:"model_name" json:"model_name"`
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	APIKey      string  `mapstructure:"api_key" json:"-"`

	// ModelTimeout bounds every external model call. The UI-facing contract
	// has no streaming, so a hung call would otherwise block forever.
	ModelTimeout time.Duration `mapstructure:"model_timeout" json:"model_timeout"`

	// Server configuration
	Addr        string   `mapstructure:"addr" json:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"`
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`

	// DataDir holds the chat session store (chat.json).
	DataDir string `mapstructure:"data_dir" json:"data_dir"`

	// Logging
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load reads configuration from defaults, the optional config file, and the
// environment. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("temperature", DefaultTemperature)
	v.SetDefault("model_timeout", DefaultModelTimeout)
	v.SetDefault("api_key", "")
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("rate_burst", DefaultRateBurst)
	v.SetDefault("cors_origins", []string{})
	v.SetDefault("trust_proxy", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("data_dir", defaultDataDir())

	v.SetEnvPrefix("INSIGHTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, configDirName))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// The Gemini API key follows the provider's conventional variable names
	// and is not stored in the config file.
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GOOGLE_API_KEY")
	}

	return &cfg, nil
}

// Validate checks values needed by every command (model, timeout, data dir).
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("configuration is nil")
	}
	if strings.TrimSpace(c.ModelName) == "" || strings.ContainsAny(c.ModelName, " \t\n") {
		return fmt.Errorf("%w: %q", ErrInvalidModelName, c.ModelName)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %v (must be in [0, 2])", ErrInvalidTemperature, c.Temperature)
	}
	if c.ModelTimeout <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTimeout, c.ModelTimeout)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return ErrInvalidDataDir
	}
	return nil
}

// ValidateServe checks values needed by the HTTP server, including the API
// key, which commands that never call the model do not require.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: set GEMINI_API_KEY", ErrMissingAPIKey)
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidAddr, c.Addr, err)
	}
	return nil
}

// StorePath returns the session store file path inside DataDir.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "chat.json")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configDirName
	}
	return filepath.Join(home, configDirName)
}
