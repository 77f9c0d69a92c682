// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ProviderFactory builds a provider. It may be slow (model loading, dialing).
type ProviderFactory func(ctx context.Context) (AIProvider, error)

// LazyProvider defers construction of an AIProvider until first use.
//
// Initialization runs at most once at a time; concurrent first callers wait
// for the same attempt and share its result. A failed attempt is not cached,
// so the next call tries again. LazyProvider itself satisfies AIProvider.
type LazyProvider struct {
	factory ProviderFactory
	logger  *slog.Logger

	mu      sync.Mutex
	current atomic.Pointer[providerHandle]
	inits   atomic.Int64
}

type providerHandle struct {
	provider AIProvider
}

var _ AIProvider = (*LazyProvider)(nil)

// NewLazyProvider wraps factory.
func NewLazyProvider(factory ProviderFactory, logger *slog.Logger) (*LazyProvider, error) {
	if factory == nil {
		return nil, ErrFactoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LazyProvider{
		factory: factory,
		logger:  logger.With("component", "lazy-provider"),
	}, nil
}

// Get returns the provider, initializing it on first use.
func (l *LazyProvider) Get(ctx context.Context) (AIProvider, error) {
	if h := l.current.Load(); h != nil {
		return h.provider, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Another caller may have finished while we waited.
	if h := l.current.Load(); h != nil {
		return h.provider, nil
	}

	l.inits.Add(1)
	l.logger.Debug("initializing AI provider")
	provider, err := l.factory(ctx)
	if err != nil {
		l.logger.Error("AI provider initialization failed", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: factory returned nil provider", ErrProviderUnavailable)
	}
	l.current.Store(&providerHandle{provider: provider})
	l.logger.Info("AI provider ready")
	return provider, nil
}

// Ready reports whether initialization has completed successfully.
func (l *LazyProvider) Ready() bool {
	return l.current.Load() != nil
}

// Initializations returns how many times the factory has been invoked.
func (l *LazyProvider) Initializations() int64 {
	return l.inits.Load()
}

// Embedder returns an Embedder that initializes the provider on first call.
func (l *LazyProvider) Embedder() Embedder {
	return lazyEmbedder{l}
}

// Summarizer returns a Summarizer that initializes the provider on first call.
func (l *LazyProvider) Summarizer() Summarizer {
	return lazySummarizer{l}
}

// Close closes the underlying provider if it was initialized.
func (l *LazyProvider) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	h := l.current.Swap(nil)
	if h == nil {
		return nil
	}
	return h.provider.Close()
}

type lazyEmbedder struct {
	l *LazyProvider
}

func (e lazyEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	p, err := e.l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return p.Embedder().EmbedText(ctx, text)
}

func (e lazyEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	p, err := e.l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return p.Embedder().EmbedTexts(ctx, texts)
}

type lazySummarizer struct {
	l *LazyProvider
}

func (s lazySummarizer) Summarize(ctx context.Context, text string, minWords, maxWords int) (string, error) {
	p, err := s.l.Get(ctx)
	if err != nil {
		return "", err
	}
	return p.Summarizer().Summarize(ctx, text, minWords, maxWords)
}
