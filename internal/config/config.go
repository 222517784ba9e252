// Package config loads goose application settings and manages the
// profiles file under the goose home directory.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment overrides, e.g. GOOSE_MAX_TOKENS.
const EnvPrefix = "GOOSE_"

// Configuration holds application-wide settings. Profiles choose the
// provider and models per session; these values fill in the rest.
type Configuration struct {
	Provider        string  `koanf:"provider" validate:"required"`
	Processor       string  `koanf:"processor" validate:"required"`
	Accelerator     string  `koanf:"accelerator" validate:"required"`
	Moderator       string  `koanf:"moderator" validate:"required,oneof=passive truncate synopsis"`
	Temperature     float64 `koanf:"temperature" validate:"min=0,max=2"`
	MaxTokens       int     `koanf:"max_tokens" validate:"min=1"`
	RequestTimeout  int     `koanf:"request_timeout" validate:"min=1,max=3600"`
	MaxToolRounds   int     `koanf:"max_tool_rounds" validate:"min=1,max=100"`
	ContextLimit    int     `koanf:"context_limit" validate:"min=1000"`
	CostPerToken    float64 `koanf:"cost_per_token" validate:"min=0"`
	StatsMaxEntries int     `koanf:"stats_max_entries" validate:"min=0"`
	LogLevel        string  `koanf:"log_level" validate:"required,oneof=DEBUG INFO WARN ERROR"`
	OpenAIBaseURL   string  `koanf:"openai_base_url" validate:"omitempty,url"`
}

// Load reads configuration for the given paths.
// Priority: environment variables > config.json > defaults.
func Load(paths Paths) (*Configuration, error) {
	return LoadFile(paths.ConfigFile())
}

// LoadFile reads configuration from configPath, which may not exist.
func LoadFile(configPath string) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range GetDefaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), json.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)
	if cfg.OpenAIBaseURL == "" {
		cfg.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// DefaultModelConfiguration returns the provider and models used when a
// profile has to be created from scratch.
func (c *Configuration) DefaultModelConfiguration() (provider, processor, accelerator string) {
	return c.Provider, c.Processor, c.Accelerator
}

// envTransform maps GOOSE_MAX_TOKENS to max_tokens. GOOSE_HOME is a path
// setting and is not part of the configuration.
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if key == "home" {
		return ""
	}
	return key
}
