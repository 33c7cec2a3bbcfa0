package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Alexthestampede/ModuLLe/agent"
	"github.com/Alexthestampede/ModuLLe/chat"
	"github.com/Alexthestampede/ModuLLe/config"
	"github.com/Alexthestampede/ModuLLe/providers"
	"github.com/Alexthestampede/ModuLLe/storage"
	"github.com/Alexthestampede/ModuLLe/tools"
	"github.com/Alexthestampede/ModuLLe/web"
)

// researchSystemPrompt primes the model for the autonomous web agent.
const researchSystemPrompt = "You are an AI research assistant with access to web search and " +
	"page fetching tools. When asked a question, use these tools to gather current " +
	"information from the web. Search for relevant information, fetch pages to read them, " +
	"and synthesize what you learn. Once you have enough information, provide a " +
	"comprehensive answer with citations. Be thorough but efficient - don't fetch more " +
	"pages than needed."

var (
	dbFlag        string
	noCacheFlag   bool
	messageFlag   string
	systemFlag    string
	tempFlag      float64
	maxRoundsFlag int
)

var modelsCmd = &cobra.Command{
	Use:   "models [provider]",
	Short: "List the models each backend currently serves",
	Long: `List model ids, either for one provider or for all of them. Listings are
cached in SQLite and refreshed when stale; a backend that cannot be reached
serves its last known catalog.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runModels,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe which backends are reachable",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a model, single message or interactive",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

var agentCmd = &cobra.Command{
	Use:   "agent <question>",
	Short: "Answer a question using autonomous web search",
	Long: `Hand a question to the agent loop with the search_web and fetch_page tools
registered. The model decides what to search for and which pages to read,
then synthesizes an answer. Use --verbose to watch the rounds.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAgent,
}

func init() {
	modelsCmd.Flags().StringVar(&dbFlag, "db", defaultCachePath(), "model catalog cache path")
	modelsCmd.Flags().BoolVar(&noCacheFlag, "no-cache", false, "always query the backends directly")

	chatCmd.Flags().StringVar(&messageFlag, "message", "", "send a single message instead of starting a session")
	chatCmd.Flags().StringVar(&systemFlag, "system", "", "system prompt")
	chatCmd.Flags().Float64Var(&tempFlag, "temperature", -1, "sampling temperature (default: from config)")

	agentCmd.Flags().IntVar(&maxRoundsFlag, "max-rounds", agent.DefaultMaxRounds, "maximum model rounds before giving up")
	agentCmd.Flags().Float64Var(&tempFlag, "temperature", -1, "sampling temperature (default: from config)")
}

// temperature resolves the sampling temperature: the flag when given,
// otherwise the configured default.
func temperature(cfg *config.Config) float64 {
	if tempFlag >= 0 {
		return tempFlag
	}
	return cfg.Temperature
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	targets := providers.Registered()
	if len(args) == 1 {
		if _, ok := providers.Get(args[0]); !ok {
			return fmt.Errorf("unknown provider: %s", args[0])
		}
		targets = []string{args[0]}
	}

	var catalog *storage.Catalog
	if !noCacheFlag {
		catalog, err = storage.Open(dbFlag)
		if err != nil {
			return err
		}
		defer catalog.Close()
	}

	for _, name := range targets {
		adapter, err := buildAdapter(cfg, name)
		if err != nil {
			fmt.Printf("%s: skipped (%v)\n", name, err)
			continue
		}

		var models []string
		if catalog != nil {
			models, err = catalog.Models(ctx, name, adapter.ListModels)
			if err != nil {
				return err
			}
		} else {
			models = adapter.ListModels(ctx)
		}

		if len(models) == 0 {
			fmt.Printf("%s: no models listed (backend unreachable?)\n", name)
			continue
		}
		fmt.Printf("%s (%d models):\n", name, len(models))
		for _, model := range models {
			fmt.Printf("  %s\n", model)
		}
	}
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	for _, name := range providers.Registered() {
		adapter, err := buildAdapter(cfg, name)
		if err != nil {
			fmt.Printf("- %-10s %v\n", name, err)
			continue
		}
		if adapter.HealthCheck(ctx) {
			fmt.Printf("✓ %-10s reachable\n", name)
		} else {
			fmt.Printf("✗ %-10s unreachable\n", name)
		}
	}
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	adapter, err := buildAdapter(cfg, providerFlag)
	if err != nil {
		return err
	}
	model, err := modelFor(cfg, providerFlag)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	temp := temperature(cfg)

	var turns []chat.Turn
	if systemFlag != "" {
		turns = append(turns, chat.System(systemFlag))
	}

	// ask sends one user message and appends the exchange to the session.
	// A failed round is rolled back so a retry does not stack user turns.
	ask := func(content string) error {
		turns = append(turns, chat.User(content))
		result := adapter.Send(ctx, model, turns, nil, temp)
		if result.FinishReason == chat.FinishError {
			turns = turns[:len(turns)-1]
			return result.Err
		}
		turns = append(turns, chat.Assistant(result.Content))
		fmt.Println(result.Content)
		return nil
	}

	if messageFlag != "" {
		return ask(messageFlag)
	}

	fmt.Printf("%s / %s (type 'exit' to quit)\n", providerFlag, model)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}
		if err := ask(input); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return scanner.Err()
}

func runAgent(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("empty question")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	adapter, err := buildAdapter(cfg, providerFlag)
	if err != nil {
		return err
	}
	model, err := modelFor(cfg, providerFlag)
	if err != nil {
		return err
	}

	accessor := web.NewAccessor(web.Options{
		UserAgent:  cfg.UserAgent,
		Timeout:    cfg.Timeout(),
		MaxRetries: cfg.MaxRetries,
	})
	registry := tools.NewRegistry()
	web.RegisterTools(registry, accessor)

	runner := agent.New(adapter, registry, model,
		agent.WithMaxRounds(maxRoundsFlag),
		agent.WithTemperature(temperature(cfg)),
	)

	outcome := runner.Run(cmd.Context(), []chat.Turn{
		chat.System(researchSystemPrompt),
		chat.User(question),
	})

	switch outcome.Status {
	case agent.StatusExhausted:
		fmt.Fprintf(os.Stderr, "Warning: no final answer after %d rounds\n", outcome.Rounds)
		if outcome.Text != "" {
			fmt.Println(outcome.Text)
		}
		return nil
	case agent.StatusFailed:
		return outcome.Err
	default:
		fmt.Println(outcome.Text)
		return nil
	}
}
