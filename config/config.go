// Package config resolves runtime settings for the providers, the web
// accessor and the CLI. Resolution is layered: built-in defaults, then an
// optional YAML config file, then environment variables, each layer
// overriding the one before it.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider holds the per-backend settings. Empty fields fall back to the
// adapter's own defaults; only cloud backends need an APIKey.
type Provider struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Config is the resolved configuration.
type Config struct {
	Temperature    float64             `yaml:"temperature"`
	RequestTimeout int                 `yaml:"request_timeout"` // seconds
	MaxRetries     int                 `yaml:"max_retries"`
	UserAgent      string              `yaml:"user_agent"`
	LogLevel       string              `yaml:"log_level"`
	Providers      map[string]Provider `yaml:"providers"`
}

// Default returns the built-in configuration: balanced sampling, 30 second
// request budget, local backends pointed at their standard ports.
func Default() *Config {
	return &Config{
		Temperature:    0.7,
		RequestTimeout: 30,
		MaxRetries:     3,
		UserAgent:      "ModuLLe/0.2.0 (AI Provider Abstraction)",
		LogLevel:       "info",
		Providers: map[string]Provider{
			"openai":    {BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini"},
			"ollama":    {BaseURL: "http://localhost:11434", Model: "llama2"},
			"lm_studio": {BaseURL: "http://localhost:1234", Model: "local-model"},
			"gemini":    {Model: "gemini-1.5-flash"},
			"claude":    {Model: "claude-3-5-haiku-20241022"},
		},
	}
}

// Load resolves configuration from defaults, the discovered config file and
// the environment. File discovery honors MODULLE_CONFIG first, then
// modulle.yaml in the working directory, then ~/.config/modulle/config.yaml;
// no file at all is fine.
func Load() (*Config, error) {
	return load(discoverPath())
}

// LoadFile is Load with an explicit config file path, for callers carrying a
// --config flag. An empty path falls back to discovery.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Load()
	}
	return load(path)
}

func load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		var file Config
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		cfg.merge(&file)
	}
	cfg.applyEnv()
	return cfg, nil
}

// discoverPath picks the config file to load. An explicit MODULLE_CONFIG is
// returned even when the file is missing so the failure is loud; candidate
// locations are skipped silently when absent.
func discoverPath() string {
	if path := os.Getenv("MODULLE_CONFIG"); path != "" {
		return path
	}
	candidates := []string{"modulle.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "modulle", "config.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// merge overlays the non-zero fields of file onto c. Provider entries merge
// field by field so a file that only sets an API key keeps the default base
// URL and model.
func (c *Config) merge(file *Config) {
	if file.Temperature != 0 {
		c.Temperature = file.Temperature
	}
	if file.RequestTimeout != 0 {
		c.RequestTimeout = file.RequestTimeout
	}
	if file.MaxRetries != 0 {
		c.MaxRetries = file.MaxRetries
	}
	if file.UserAgent != "" {
		c.UserAgent = file.UserAgent
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	for name, p := range file.Providers {
		c.setProvider(name, p)
	}
}

// applyEnv overlays environment variables, the highest-priority layer.
// GOOGLE_API_KEY is accepted as a fallback spelling for the Gemini key.
func (c *Config) applyEnv() {
	if v := os.Getenv("MODULLE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	c.setProvider("openai", Provider{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   os.Getenv("OPENAI_TEXT_MODEL"),
	})
	c.setProvider("ollama", Provider{
		BaseURL: os.Getenv("OLLAMA_BASE_URL"),
		Model:   os.Getenv("OLLAMA_TEXT_MODEL"),
	})
	c.setProvider("lm_studio", Provider{
		BaseURL: os.Getenv("LM_STUDIO_BASE_URL"),
		Model:   os.Getenv("LM_STUDIO_TEXT_MODEL"),
	})

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		geminiKey = os.Getenv("GOOGLE_API_KEY")
	}
	c.setProvider("gemini", Provider{
		APIKey: geminiKey,
		Model:  os.Getenv("GEMINI_TEXT_MODEL"),
	})
	c.setProvider("claude", Provider{
		APIKey: os.Getenv("ANTHROPIC_API_KEY"),
		Model:  os.Getenv("CLAUDE_TEXT_MODEL"),
	})
}

// setProvider overlays the non-empty fields of p onto the named provider.
func (c *Config) setProvider(name string, p Provider) {
	if c.Providers == nil {
		c.Providers = make(map[string]Provider)
	}
	entry := c.Providers[name]
	if p.APIKey != "" {
		entry.APIKey = p.APIKey
	}
	if p.BaseURL != "" {
		entry.BaseURL = p.BaseURL
	}
	if p.Model != "" {
		entry.Model = p.Model
	}
	c.Providers[name] = entry
}

// Provider returns the settings for the named backend, zero if unknown.
func (c *Config) Provider(name string) Provider {
	return c.Providers[name]
}

// Timeout returns the request budget as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Level maps the configured log level onto slog. Unknown values mean info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
