package llm

import (
	"context"
	"fmt"

	"github.com/longevityfoodlab/citegate/internal/model"
)

// Provider defines the interface for citation-suggestion backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Suggest asks the model for candidate citations as a researchEvidence payload
	Suggest(ctx context.Context, req SuggestRequest) (*SuggestResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SuggestRequest describes the claim to find citations for
type SuggestRequest struct {
	// Ingredient is the food or supplement the claim is about
	Ingredient string

	// Nutrient is the active compound, optional
	Nutrient string

	// Outcome is the health outcome being claimed, optional
	Outcome string

	// Count caps how many citations to ask for (default 3)
	Count int

	// Prompt overrides the default prompt when non-empty
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SuggestResponse contains the model's raw output
type SuggestResponse struct {
	// Payload is the raw model output, expected to contain a researchEvidence
	// object. It goes through the same payload parser as assistant output;
	// nothing in it is trusted until verified.
	Payload string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   30,
		MaxTokens: 1500,
	}
}

// ConfigFromModel lifts the application LLM settings into a provider Config
func ConfigFromModel(cfg model.LLMConfig, httpCfg model.HTTPConfig) Config {
	out := DefaultConfig()
	out.Provider = cfg.Provider
	out.Model = cfg.Model
	out.APIKey = cfg.APIKey
	out.BaseURL = cfg.BaseURL
	if cfg.Timeout > 0 {
		out.Timeout = cfg.Timeout
	}
	if cfg.MaxTokens > 0 {
		out.MaxTokens = cfg.MaxTokens
	}
	out.HTTPProxy = httpCfg.HTTPProxy
	out.HTTPSProxy = httpCfg.HTTPSProxy
	out.NoProxy = httpCfg.NoProxy
	return out
}

// BuildPrompt constructs the default citation-request prompt. The payload
// shape is spelled out verbatim so responses survive the strict parser, and
// every suggestion is declared subject to independent verification.
func BuildPrompt(req SuggestRequest) string {
	count := req.Count
	if count <= 0 {
		count = 3
	}

	return fmt.Sprintf(`You suggest published research citations for nutrition claims.

Return ONLY a JSON object of this exact shape, with no surrounding prose:
{"researchEvidence": [{"ingredient": "...", "nutrient": "...", "outcome": "...", "authors": "...", "year": 2020, "journal": "...", "doi": "...", "pmid": "...", "url": "...", "title": "..."}]}

RULES:
1. Suggest up to %d citations for: ingredient %q, nutrient %q, outcome %q.
2. Only include works you are confident actually exist. Omit a citation rather than invent one.
3. Include a real DOI or PMID whenever you know it; leave the field out otherwise.
4. "authors" is the first author's family name. "year" is the publication year.
5. Every suggestion is independently checked against Crossref and PubMed; entries that do not verify are discarded.`,
		count, req.Ingredient, req.Nutrient, req.Outcome)
}
