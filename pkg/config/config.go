// Package config loads application configuration from ~/.mailgate/config.yaml
// with environment variables taking precedence. The resulting Config is
// threaded explicitly into constructors; nothing downstream reads process
// state at request time.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when neither the file nor the environment sets a value.
const (
	DefaultHorizonDays = 40
	DefaultTimezone    = "Europe/London"
	DefaultProvider    = "openai"
	DefaultModel       = "gpt-4o-mini"
)

// Config holds the application configuration.
type Config struct {
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GoogleAPIKey    string

	// ClassifierProvider selects the LLM backend: openai, anthropic, google.
	ClassifierProvider string
	ClassifierModel    string

	// HorizonDays bounds how far back time-window resolution may reach.
	HorizonDays int
	// DefaultAccount is the mail account used when a request names none.
	DefaultAccount string
	// CalendlyToken is the fallback PAT when the token store has no entry.
	CalendlyToken string
	// Timezone is the IANA zone calendar lookups are interpreted in.
	Timezone string
	// Signature is appended to drafted emails when not already present.
	Signature string
	// TokensDir holds per-account credential files.
	TokensDir string
	// DryRun suppresses outbound mail.
	DryRun bool

	ConfigDir string
}

// FileConfig represents the structure of ~/.mailgate/config.yaml
type FileConfig struct {
	APIKeys    APIKeysConfig    `yaml:"api_keys"`
	Classifier ClassifierConfig `yaml:"classifier"`

	HorizonDays    int    `yaml:"horizon_days"`
	DefaultAccount string `yaml:"default_account"`
	CalendlyToken  string `yaml:"calendly_token"`
	Timezone       string `yaml:"timezone"`
	Signature      string `yaml:"signature"`
	TokensDir      string `yaml:"tokens_dir"`
	DryRun         bool   `yaml:"dry_run"`
}

// APIKeysConfig holds API key configuration from file.
type APIKeysConfig struct {
	OpenAI    string `yaml:"openai"`
	Anthropic string `yaml:"anthropic"`
	Google    string `yaml:"google"`
}

// ClassifierConfig selects the LLM backend and model.
type ClassifierConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// Load reads configuration from the config file and environment variables.
// Environment variables take precedence over file configuration.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	fileConfig := loadFileConfig(filepath.Join(configDir, "config.yaml"))

	cfg := &Config{
		OpenAIAPIKey:       getEnvOrDefault("OPENAI_API_KEY", fileConfig.APIKeys.OpenAI),
		AnthropicAPIKey:    getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),
		GoogleAPIKey:       getEnvOrDefault("GOOGLE_API_KEY", fileConfig.APIKeys.Google),
		ClassifierProvider: getEnvOrDefault("MAILGATE_CLASSIFIER", fileConfig.Classifier.Provider),
		ClassifierModel:    getEnvOrDefault("OPENAI_MODEL", fileConfig.Classifier.Model),
		HorizonDays:        fileConfig.HorizonDays,
		DefaultAccount:     getEnvOrDefault("DEFAULT_ACCOUNT_EMAIL", fileConfig.DefaultAccount),
		CalendlyToken:      getEnvOrDefault("CALENDLY_TOKEN", fileConfig.CalendlyToken),
		Timezone:           getEnvOrDefault("LOCAL_TZ", fileConfig.Timezone),
		Signature:          getEnvOrDefault("DEFAULT_SIGNATURE", fileConfig.Signature),
		TokensDir:          getEnvOrDefault("MAILGATE_TOKENS_DIR", fileConfig.TokensDir),
		DryRun:             fileConfig.DryRun || envBool("DRY_RUN"),
		ConfigDir:          configDir,
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.ClassifierProvider == "" {
		cfg.ClassifierProvider = DefaultProvider
	}
	if cfg.ClassifierModel == "" {
		cfg.ClassifierModel = DefaultModel
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = DefaultHorizonDays
	}
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}
	if cfg.TokensDir == "" {
		cfg.TokensDir = filepath.Join(cfg.ConfigDir, "tokens")
	}
}

// Location resolves the configured timezone, falling back to UTC when the
// zone name is unknown to the host.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// loadFileConfig reads the config file, returning an empty config when the
// file does not exist or cannot be parsed.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	_ = yaml.Unmarshal(data, cfg)
	return cfg
}

func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func envBool(envVar string) bool {
	switch strings.ToLower(os.Getenv(envVar)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".mailgate")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
