package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load consults so tests see only what they
// set themselves. t.Setenv restores the originals afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"MODULLE_CONFIG", "MODULLE_LOG_LEVEL",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_TEXT_MODEL",
		"OLLAMA_BASE_URL", "OLLAMA_TEXT_MODEL",
		"LM_STUDIO_BASE_URL", "LM_STUDIO_TEXT_MODEL",
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "GEMINI_TEXT_MODEL",
		"ANTHROPIC_API_KEY", "CLAUDE_TEXT_MODEL",
	}
	for _, name := range vars {
		t.Setenv(name, "")
	}
}

// writeConfig drops YAML into a temp file and points MODULLE_CONFIG at it.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modulle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("MODULLE_CONFIG", path)
	return path
}

// TestDefault_Values pins the built-in defaults.
func TestDefault_Values(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, "ModuLLe/0.2.0 (AI Provider Abstraction)", cfg.UserAgent)
	assert.Equal(t, slog.LevelInfo, cfg.Level())

	assert.Equal(t, "https://api.openai.com/v1", cfg.Provider("openai").BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.Provider("openai").Model)
	assert.Equal(t, "http://localhost:11434", cfg.Provider("ollama").BaseURL)
	assert.Equal(t, "llama2", cfg.Provider("ollama").Model)
	assert.Equal(t, "http://localhost:1234", cfg.Provider("lm_studio").BaseURL)
	assert.Equal(t, "gemini-1.5-flash", cfg.Provider("gemini").Model)
	assert.Equal(t, "claude-3-5-haiku-20241022", cfg.Provider("claude").Model)
	assert.Empty(t, cfg.Provider("openai").APIKey)
}

// TestLoad_EnvOverridesDefaults verifies environment variables land on the
// right providers.
func TestLoad_EnvOverridesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_TEXT_MODEL", "gpt-4o")
	t.Setenv("OLLAMA_BASE_URL", "http://box:11434")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("MODULLE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Provider("openai").APIKey)
	assert.Equal(t, "gpt-4o", cfg.Provider("openai").Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Provider("openai").BaseURL)
	assert.Equal(t, "http://box:11434", cfg.Provider("ollama").BaseURL)
	assert.Equal(t, "llama2", cfg.Provider("ollama").Model)
	assert.Equal(t, "sk-ant", cfg.Provider("claude").APIKey)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

// TestLoad_FileMergesOverDefaults verifies per-field provider merging: a file
// that only sets an API key keeps the default base URL and model.
func TestLoad_FileMergesOverDefaults(t *testing.T) {
	clearEnv(t)
	writeConfig(t, `
temperature: 0.2
request_timeout: 60
log_level: warn
providers:
  openai:
    api_key: sk-from-file
  ollama:
    model: mistral
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, 60*time.Second, cfg.Timeout())
	assert.Equal(t, slog.LevelWarn, cfg.Level())
	assert.Equal(t, 3, cfg.MaxRetries)

	openai := cfg.Provider("openai")
	assert.Equal(t, "sk-from-file", openai.APIKey)
	assert.Equal(t, "https://api.openai.com/v1", openai.BaseURL)
	assert.Equal(t, "gpt-4o-mini", openai.Model)

	ollama := cfg.Provider("ollama")
	assert.Equal(t, "mistral", ollama.Model)
	assert.Equal(t, "http://localhost:11434", ollama.BaseURL)
}

// TestLoad_EnvBeatsFile verifies the environment is the highest layer.
func TestLoad_EnvBeatsFile(t *testing.T) {
	clearEnv(t)
	writeConfig(t, `
providers:
  openai:
    model: from-file
`)
	t.Setenv("OPENAI_TEXT_MODEL", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Provider("openai").Model)
}

// TestLoad_GoogleKeyFallback verifies GOOGLE_API_KEY backs GEMINI_API_KEY and
// loses to it when both are set.
func TestLoad_GoogleKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "google-key", cfg.Provider("gemini").APIKey)

	t.Setenv("GEMINI_API_KEY", "gemini-key")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini-key", cfg.Provider("gemini").APIKey)
}

// TestLoad_MissingExplicitFileFails verifies that a path set explicitly via
// MODULLE_CONFIG must exist.
func TestLoad_MissingExplicitFileFails(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODULLE_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

// TestLoad_MalformedFileFails verifies parse errors carry the file path.
func TestLoad_MalformedFileFails(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "providers: [not, a, map")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
	assert.Contains(t, err.Error(), path)
}

// TestLoadFile_ExplicitPath verifies the --config entry point.
func TestLoadFile_ExplicitPath(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "alt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: error\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, cfg.Level())
}

// TestConfig_Level covers the level name mapping.
func TestConfig_Level(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.name}
		assert.Equal(t, tt.want, cfg.Level(), "level %q", tt.name)
	}
}
