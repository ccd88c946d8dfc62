package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/longevityfoodlab/citegate/internal/llm"
	"github.com/longevityfoodlab/citegate/internal/model"
	"github.com/longevityfoodlab/citegate/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	suggestIngredient string
	suggestNutrient   string
	suggestOutcome    string
	suggestCount      int
	suggestProvider   string
	suggestModel      string
	suggestVerify     bool
	suggestTimeout    time.Duration
)

// suggestCmd represents the suggest command
var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest candidate citations for a nutrition claim",
	Long: `Suggest asks an LLM provider for published research citations matching
an ingredient, nutrient, and health outcome.

Suggestions are candidates only. They carry no trust until they pass
registry verification; pass --verify to run them through the full
pipeline immediately.

Example:
  citegate suggest --ingredient "green tea" --outcome "cardiovascular health"
  citegate suggest --ingredient turmeric --nutrient curcumin --provider openai --verify
  citegate suggest --ingredient salmon --provider ollama --model llama3.1:8b`,
	RunE: runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)

	suggestCmd.Flags().StringVar(&suggestIngredient, "ingredient", "", "food or supplement the claim is about (required)")
	suggestCmd.Flags().StringVar(&suggestNutrient, "nutrient", "", "active compound or nutrient")
	suggestCmd.Flags().StringVar(&suggestOutcome, "outcome", "", "claimed health outcome")
	suggestCmd.Flags().IntVar(&suggestCount, "count", 3, "number of citations to request")
	suggestCmd.Flags().StringVar(&suggestProvider, "provider", "", "LLM provider (openai, anthropic, ollama)")
	suggestCmd.Flags().StringVar(&suggestModel, "model", "", "LLM model name")
	suggestCmd.Flags().BoolVar(&suggestVerify, "verify", false, "run suggestions through registry verification")
	suggestCmd.Flags().DurationVar(&suggestTimeout, "timeout", 3*time.Minute, "overall suggest timeout")

	_ = suggestCmd.MarkFlagRequired("ingredient")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), suggestTimeout)
	defer cancel()

	cfg := loadConfig()
	if suggestProvider != "" {
		cfg.LLM.Provider = suggestProvider
	}
	if suggestModel != "" {
		cfg.LLM.Model = suggestModel
	}

	if cfg.LLM.Provider == "" {
		return fmt.Errorf("no LLM provider configured (use --provider or set llm.provider)")
	}

	// Get API key from environment
	switch cfg.LLM.Provider {
	case "openai":
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	suggester, err := llm.NewSuggester(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return fmt.Errorf("initialize LLM provider: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Provider: %s\n", suggester.ProviderName())
		fmt.Fprintf(os.Stderr, "Requesting %d citations for %q\n", suggestCount, suggestIngredient)
		fmt.Fprintln(os.Stderr)
	}

	citations, resp, err := suggester.SuggestCitations(ctx, llm.SuggestRequest{
		Ingredient: suggestIngredient,
		Nutrient:   suggestNutrient,
		Outcome:    suggestOutcome,
		Count:      suggestCount,
	})
	if err != nil {
		return fmt.Errorf("suggest failed: %w", err)
	}

	if verbose && resp != nil {
		fmt.Fprintf(os.Stderr, "✓ Received %d suggestions from %s\n", len(citations), resp.Model)
		fmt.Fprintf(os.Stderr, "✓ Tokens used: %d\n", resp.TokensUsed)
		fmt.Fprintln(os.Stderr)
	}

	if !suggestVerify {
		// Unverified candidates go out in the payload envelope shape so
		// they can be piped straight into the verify command
		out, err := json.MarshalIndent(model.EvidencePayload{ResearchEvidence: citations}, "", "  ")
		if err != nil {
			return fmt.Errorf("encode suggestions: %w", err)
		}
		fmt.Println(string(out))
		fmt.Fprintf(os.Stderr, "Suggestions are unverified. Run them through 'citegate verify -' before use.\n")
		return nil
	}

	// Verify the suggestions immediately
	p := pipeline.NewPipeline(cfg)
	released, report := p.VerifyWithReport(ctx, citations)

	renderer := pipeline.NewRenderer()
	out, err := renderer.PayloadJSON(released)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(out))

	renderer.RenderSummary(os.Stderr, report)

	return nil
}
