package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/scorelog/internal/model"
)

// Narrator attaches an optional prose description to finished reports
type Narrator struct {
	provider Provider
	config   Config
}

// NewNarrator creates a narrator; a disabled provider yields a narrator that does nothing
func NewNarrator(config Config) (*Narrator, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Narrator{provider: provider, config: config}, nil
}

// IsEnabled reports whether a provider is configured
func (n *Narrator) IsEnabled() bool {
	return n != nil && n.provider != nil
}

// ProviderName returns the configured provider, or "" when disabled
func (n *Narrator) ProviderName() string {
	if !n.IsEnabled() {
		return ""
	}
	return n.provider.Name()
}

// Describe narrates report. It returns nil without error when disabled.
func (n *Narrator) Describe(ctx context.Context, report *model.TeamReport) (*model.Narrative, error) {
	if !n.IsEnabled() || report == nil {
		return nil, nil
	}

	if !n.provider.IsAvailable(ctx) {
		return nil, fmt.Errorf("LLM provider %s is not available", n.provider.Name())
	}

	resp, err := n.provider.Narrate(ctx, NarrateRequest{
		Report:     *report,
		SourceURLs: report.SourceURLs,
		MaxTokens:  n.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("narrate %s: %w", report.Team, err)
	}

	return &model.Narrative{
		Provider:   n.provider.Name(),
		Model:      resp.Model,
		Text:       resp.Text,
		CitedURLs:  resp.CitedURLs,
		TokensUsed: resp.TokensUsed,
	}, nil
}
