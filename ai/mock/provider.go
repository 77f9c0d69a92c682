package mock

import (
	"sync/atomic"

	"github.com/poiesic/aisearch/ai"
)

// MockProvider aggregates the mock services.
type MockProvider struct {
	embedder   *MockEmbedder
	summarizer *MockSummarizer
	closed     atomic.Bool
}

// NewMockProvider creates a provider with default mock services.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		embedder:   NewMockEmbedder(),
		summarizer: NewMockSummarizer(),
	}
}

// NewMockProviderWithServices creates a provider around existing mocks.
func NewMockProviderWithServices(embedder *MockEmbedder, summarizer *MockSummarizer) *MockProvider {
	return &MockProvider{
		embedder:   embedder,
		summarizer: summarizer,
	}
}

func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *MockProvider) Summarizer() ai.Summarizer {
	return p.summarizer
}

func (p *MockProvider) Close() error {
	p.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed.Load()
}

// GetMockEmbedder returns the concrete embedder for assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockSummarizer returns the concrete summarizer for assertions.
func (p *MockProvider) GetMockSummarizer() *MockSummarizer {
	return p.summarizer
}
