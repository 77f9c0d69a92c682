package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/aisearch/ai"
)

// Provider bundles an Embedder and a Summarizer that share one configuration.
type Provider struct {
	config     *ai.Config
	embedder   *Embedder
	summarizer *Summarizer
	logger     *slog.Logger
}

// NewProvider builds both services. It performs no network calls.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create embedder (using internal constructor for concrete type)
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	summarizer, err := newSummarizer(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:     config,
		embedder:   embedder,
		summarizer: summarizer,
		logger:     slog.Default().With("component", "openai-provider"),
	}, nil
}

// Factory returns an ai.ProviderFactory suitable for ai.NewLazyProvider.
func Factory(config *ai.Config) ai.ProviderFactory {
	return func(_ context.Context) (ai.AIProvider, error) {
		return NewProvider(config)
	}
}

func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *Provider) Summarizer() ai.Summarizer {
	return p.summarizer
}

func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
