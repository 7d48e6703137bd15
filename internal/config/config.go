package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/PabloGalante/ai-accountant/internal/domain"
)

// EnvPrefix prefixes every environment variable, e.g. ACCOUNTANT_PORT.
const EnvPrefix = "ACCOUNTANT"

const (
	StorageMemory    = "memory"
	StorageFirestore = "firestore"
)

type Config struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	GeminiAPIKey   string        `mapstructure:"gemini_api_key"`
	GeminiAPIKeys  []string      `mapstructure:"gemini_api_keys"` // comma-separated pool
	VertexProject  string        `mapstructure:"vertex_project"`
	VertexLocation string        `mapstructure:"vertex_location"`
	ModelName      string        `mapstructure:"gemini_model"`
	BackendTimeout time.Duration `mapstructure:"backend_timeout"`
	UseMockLLM     bool          `mapstructure:"use_mock_llm"`

	StorageBackend string `mapstructure:"storage_backend"` // "memory" or "firestore"
	GCPProjectID   string `mapstructure:"gcp_project"`

	DefaultLocale  string   `mapstructure:"default_locale"`
	RandomSeed     uint64   `mapstructure:"random_seed"` // 0 seeds from the clock
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

var defaults = map[string]any{
	"port":            "8080",
	"log_level":       "info",
	"gemini_api_key":  "",
	"gemini_api_keys": "",
	"vertex_project":  "",
	"vertex_location": "us-central1",
	"gemini_model":    "gemini-2.5-pro",
	"backend_timeout": "60s",
	"use_mock_llm":    false,
	"storage_backend": StorageMemory,
	"gcp_project":     "",
	"default_locale":  string(domain.LocaleEnglishUS),
	"random_seed":     0,
	"allowed_origins": "*",
}

// Load reads an optional .env file, then ACCOUNTANT_* environment variables.
// PORT is honoured as a fallback for ACCOUNTANT_PORT.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if err := v.BindEnv("port", EnvPrefix+"_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("binding port env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.GeminiAPIKeys = cleanList(cfg.GeminiAPIKeys)
	cfg.AllowedOrigins = cleanList(cfg.AllowedOrigins)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StorageFirestore:
		if c.GCPProjectID == "" {
			return fmt.Errorf("%s_GCP_PROJECT is required for the firestore storage backend", EnvPrefix)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}

	switch domain.Locale(c.DefaultLocale) {
	case domain.LocaleEnglishUS, domain.LocaleHindiIN:
	default:
		return fmt.Errorf("unsupported default locale %q", c.DefaultLocale)
	}

	if c.BackendTimeout <= 0 {
		return fmt.Errorf("backend timeout must be positive, got %s", c.BackendTimeout)
	}
	return nil
}

// APIKeys returns the Gemini key pool: every key of GEMINI_API_KEYS plus
// GEMINI_API_KEY, without duplicates.
func (c *Config) APIKeys() []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range append(append([]string(nil), c.GeminiAPIKeys...), c.GeminiAPIKey) {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func (c *Config) Locale() domain.Locale {
	return domain.Locale(c.DefaultLocale)
}

func cleanList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
