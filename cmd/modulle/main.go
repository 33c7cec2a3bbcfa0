// Command modulle talks to LLM backends through one provider-agnostic
// surface: list models, probe backend health, chat, or hand a question to
// the autonomous web agent.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Alexthestampede/ModuLLe/config"
	"github.com/Alexthestampede/ModuLLe/providers"
)

const version = "0.2.0"

var (
	configFlag   string
	providerFlag string
	modelFlag    string
	verboseFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "modulle",
	Short: "Provider-agnostic LLM chat and tool calling",
	Long: `ModuLLe talks to OpenAI, Ollama, LM Studio, Google Gemini and Anthropic
Claude through one canonical conversation and tool-calling model.

Configuration comes from defaults, an optional YAML file (modulle.yaml,
~/.config/modulle/config.yaml or $MODULLE_CONFIG) and environment variables
such as OPENAI_API_KEY, OLLAMA_BASE_URL and ANTHROPIC_API_KEY.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "ollama", "provider to talk to")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "model id (default: the provider's configured model)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(modelsCmd, healthCmd, chatCmd, agentCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves configuration and installs the default logger at the
// configured level; --verbose forces debug.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(configFlag)
	if err != nil {
		return nil, err
	}
	level := cfg.Level()
	if verboseFlag {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return cfg, nil
}

// buildAdapter constructs the named provider adapter from config.
func buildAdapter(cfg *config.Config, name string) (providers.Adapter, error) {
	p := cfg.Provider(name)
	return providers.New(name, providers.Options{
		BaseURL:    p.BaseURL,
		APIKey:     p.APIKey,
		Timeout:    cfg.Timeout(),
		MaxRetries: cfg.MaxRetries,
		UserAgent:  cfg.UserAgent,
	})
}

// modelFor picks the model id to use: the --model flag when given, otherwise
// the provider's configured default.
func modelFor(cfg *config.Config, provider string) (string, error) {
	if modelFlag != "" {
		return modelFlag, nil
	}
	if model := cfg.Provider(provider).Model; model != "" {
		return model, nil
	}
	return "", fmt.Errorf("no model configured for %s; pass --model", provider)
}

// defaultCachePath is where the model catalog cache lives.
func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "modulle-models.db"
	}
	return filepath.Join(dir, "modulle", "models.db")
}
