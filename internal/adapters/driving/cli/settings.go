package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

const notSet = "(not set)"

var (
	settingsProvider   string
	settingsURL        string
	settingsCollection string

	// readSecret prompts for a credential. Replaced in tests.
	readSecret = readPassword
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, the vector store and API keys.

Values stored here take precedence over environment variables.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key [key]",
	Short: "Store a provider API key",
	Long: `Store the API key for a provider. Keys must start with "sk-".
Without an argument the key is read from the terminal without echo.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSettingsSetKey,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm <provider> [model]",
	Short: "Configure the LLM provider",
	Long: `Select the generation provider: openai, openrouter or anthropic.
The provider default model is used when no model is given.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsLLM,
}

var settingsBackendCmd = &cobra.Command{
	Use:   "backend <qdrant|sqlite|mongo|memory>",
	Short: "Configure the vector store",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsBackend,
}

func init() {
	settingsSetKeyCmd.Flags().StringVar(&settingsProvider, "provider", string(domain.AIProviderOpenAI),
		"provider the key belongs to")
	settingsBackendCmd.Flags().StringVar(&settingsURL, "url", "", "backend URL (Qdrant endpoint or MongoDB URI)")
	settingsBackendCmd.Flags().StringVar(&settingsCollection, "collection", "", "collection name")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsBackendCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s (%d dimensions)\n", settings.Embedding.Model, settings.Embedding.Dimensions)
	cmd.Printf("  API Key: %s\n", displayKey(settings.Embedding.APIKey))
	cmd.Printf("  Status: %s\n", configuredStatus(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	cmd.Printf("  API Key: %s\n", displayKey(settings.LLM.APIKey))
	cmd.Printf("  Status: %s\n", configuredStatus(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Vector Store]")
	cmd.Printf("  Backend: %s\n", settings.VectorStore.Backend)
	cmd.Printf("  Collection: %s\n", settings.VectorStore.Collection)
	switch settings.VectorStore.Backend {
	case domain.VectorBackendQdrant:
		cmd.Printf("  URL: %s\n", settings.VectorStore.URL)
	case domain.VectorBackendMongo:
		cmd.Printf("  Database: %s\n", settings.VectorStore.MongoDatabase)
	case domain.VectorBackendSQLite:
		cmd.Printf("  Data Dir: %s\n", settings.VectorStore.DataDir)
	}
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Max Tool Rounds: %d\n", settings.Retrieval.MaxToolRounds)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Port: %d\n", settings.Server.Port)
	cmd.Printf("  Allowed Origins: %s\n", strings.Join(settings.Server.AllowedOrigins, ", "))
	cmd.Printf("  GitHub Token: %s\n", displayKey(settings.GitHubToken))

	return nil
}

func runSettingsSetKey(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		cmd.Printf("%s API key: ", settingsProvider)
		key = readSecret()
		cmd.Println()
	}
	key = strings.TrimSpace(key)

	provider := domain.AIProvider(settingsProvider)
	var err error
	if provider == domain.AIProviderOpenAI {
		err = settingsService.SetAPIKey(key)
	} else {
		err = settingsService.SetProviderKey(provider, key)
	}
	if err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	cmd.Printf("Stored %s API key %s\n", provider, domain.MaskAPIKey(key))
	return nil
}

func runSettingsLLM(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	provider := domain.AIProvider(args[0])
	model := ""
	if len(args) == 2 {
		model = args[1]
	}
	if err := settingsService.SetLLMProvider(provider, model); err != nil {
		return fmt.Errorf("failed to set LLM provider: %w", err)
	}

	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}
	cmd.Printf("LLM provider set to %s (%s)\n", provider.Description(), model)
	return nil
}

func runSettingsBackend(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	backend := domain.VectorBackend(args[0])
	if err := settingsService.SetVectorBackend(backend, settingsURL, settingsCollection); err != nil {
		return fmt.Errorf("failed to set vector backend: %w", err)
	}
	cmd.Printf("Vector store set to %s\n", backend)
	return nil
}

func displayKey(key string) string {
	if key == "" {
		return notSet
	}
	return domain.MaskAPIKey(key)
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
