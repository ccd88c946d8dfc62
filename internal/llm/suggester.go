package llm

import (
	"context"
	"fmt"

	"github.com/longevityfoodlab/citegate/internal/extract"
	"github.com/longevityfoodlab/citegate/internal/model"
)

// Suggester orchestrates citation suggestion through an LLM provider.
// Suggested citations are candidates only; they carry no trust until
// they pass registry verification.
type Suggester struct {
	provider Provider
	config   Config
}

// NewSuggester creates a suggester from the given config.
// An empty provider name yields a disabled suggester, not an error.
func NewSuggester(config Config) (*Suggester, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}

	return &Suggester{
		provider: provider,
		config:   config,
	}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Suggester) IsEnabled() bool {
	return s.provider != nil
}

// ProviderName returns the active provider name, or empty when disabled
func (s *Suggester) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// SuggestCitations asks the provider for candidate citations and parses
// them into the evidence payload shape. Returns (nil, nil, nil) when
// no provider is configured.
func (s *Suggester) SuggestCitations(ctx context.Context, req SuggestRequest) ([]model.RawCitation, *SuggestResponse, error) {
	if s.provider == nil {
		return nil, nil, nil
	}

	if !s.provider.IsAvailable(ctx) {
		return nil, nil, fmt.Errorf("%s provider unavailable", s.provider.Name())
	}

	resp, err := s.provider.Suggest(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	citations, err := extract.ParsePayload(resp.Payload)
	if err != nil {
		return nil, resp, fmt.Errorf("parse suggested payload: %w", err)
	}

	return citations, resp, nil
}
