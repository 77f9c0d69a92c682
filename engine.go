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

// Package aisearch wires configuration, an index backend and an AI provider
// into a ready-to-use search engine.
package aisearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/poiesic/aisearch/ai"
	"github.com/poiesic/aisearch/ai/openai"
	"github.com/poiesic/aisearch/config"
	"github.com/poiesic/aisearch/core"
	"github.com/poiesic/aisearch/ingestion"
	"github.com/poiesic/aisearch/scoring"
	"github.com/poiesic/aisearch/search"
	"github.com/poiesic/aisearch/storage"
	"github.com/poiesic/aisearch/storage/badger"
	"github.com/poiesic/aisearch/storage/chromem"
	"github.com/poiesic/aisearch/storage/qdrant"
)

// Engine owns an index, an AI provider and a searcher built over them.
type Engine struct {
	cfg      *config.Config
	index    storage.Index
	provider ai.AIProvider
	searcher *search.Searcher
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider ai.AIProvider
	index    storage.Index
	logger   *slog.Logger
	registry prometheus.Registerer
}

// WithProvider supplies an AI provider instead of the lazily created
// OpenAI-compatible one. The engine takes ownership and closes it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithIndex supplies an open index instead of the configured backend.
// The engine takes ownership and closes it.
func WithIndex(index storage.Index) EngineOption {
	return func(o *engineOptions) {
		o.index = index
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithMetricsRegistry registers search metrics with reg.
func WithMetricsRegistry(reg prometheus.Registerer) EngineOption {
	return func(o *engineOptions) {
		o.registry = reg
	}
}

// NewEngine builds an engine from cfg. A nil cfg means config.Default().
func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger

	index := options.index
	if index == nil {
		var err error
		if index, err = OpenIndex(cfg.Index, logger); err != nil {
			return nil, err
		}
	}

	provider := options.provider
	if provider == nil {
		lazy, err := ai.NewLazyProvider(openai.Factory(AIConfig(cfg.AI)), logger)
		if err != nil {
			index.Close()
			return nil, err
		}
		provider = lazy
	}

	searchOpts, err := SearchOptions(cfg.Search, logger)
	if err != nil {
		provider.Close()
		index.Close()
		return nil, err
	}
	if cache, ok := index.(storage.SummaryCache); ok {
		searchOpts = append(searchOpts, search.WithSummaryCache(cache))
	}
	if options.registry != nil {
		metrics, err := search.NewMetrics(options.registry)
		if err != nil {
			provider.Close()
			index.Close()
			return nil, err
		}
		searchOpts = append(searchOpts, search.WithMetrics(metrics))
	}

	searcher, err := search.NewSearcher(provider, index, index, searchOpts...)
	if err != nil {
		provider.Close()
		index.Close()
		return nil, err
	}

	return &Engine{
		cfg:      cfg,
		index:    index,
		provider: provider,
		searcher: searcher,
		logger:   logger.With("component", "engine"),
	}, nil
}

// OpenIndex opens the configured backend.
func OpenIndex(cfg config.Index, logger *slog.Logger) (storage.Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(cfg.Backend) {
	case config.BackendBadger:
		opts := []badger.Option{badger.WithLogger(logger)}
		if cfg.InMemory {
			opts = append(opts, badger.WithInMemory())
		}
		return badger.NewIndex(cfg.Path, opts...)
	case config.BackendQdrant:
		return qdrant.NewIndex(qdrant.Config{
			Host:             cfg.Qdrant.Host,
			Port:             cfg.Qdrant.Port,
			UseTLS:           cfg.Qdrant.TLS,
			APIKey:           cfg.Qdrant.APIKey,
			CollectionPrefix: cfg.Qdrant.CollectionPrefix,
		}, qdrant.WithLogger(logger))
	case config.BackendChromem:
		opts := []chromem.Option{chromem.WithLogger(logger)}
		if !cfg.InMemory && cfg.Path != "" {
			opts = append(opts, chromem.WithPersistence(cfg.Path, cfg.Compress))
		}
		return chromem.NewIndex(opts...)
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", core.ErrConfiguration, cfg.Backend)
	}
}

// AIConfig converts the AI section into provider settings.
func AIConfig(cfg config.AI) *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(cfg.ResolvedEmbeddingHost()),
		ai.WithSummarizerHost(cfg.ResolvedSummarizerHost()),
		ai.WithEmbeddingModel(cfg.EmbeddingModel),
		ai.WithSummarizerModel(cfg.SummarizerModel),
		ai.WithToken(cfg.Token),
		ai.WithTimeout(cfg.Timeout),
	)
}

// SearchOptions converts the search section into searcher options.
func SearchOptions(cfg config.Search, logger *slog.Logger) ([]search.Option, error) {
	strategy, err := scoring.FromConfig(cfg.Strategy, cfg.BoostFactor, cfg.SemanticWeight, cfg.MetadataWeight)
	if err != nil {
		return nil, err
	}
	return []search.Option{
		search.WithLogger(logger),
		search.WithStrategy(strategy),
		search.WithMaxLimit(cfg.MaxLimit),
		search.WithDefaultLimit(cfg.DefaultLimit),
		search.WithOverFetch(cfg.OverFetch),
		search.WithPassageCandidates(cfg.PassageCandidates),
		search.WithSummaryThreshold(cfg.SummaryThreshold),
		search.WithSummaryBounds(cfg.SummaryMinWords, cfg.SummaryMaxWords),
		search.WithSummaryWorkers(cfg.SummaryWorkers),
	}, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Index returns the underlying index.
func (e *Engine) Index() storage.Index {
	return e.index
}

// Searcher returns the underlying searcher.
func (e *Engine) Searcher() *search.Searcher {
	return e.searcher
}

// Parse interprets query text without searching.
func (e *Engine) Parse(text string) core.ParsedQuery {
	return e.searcher.Parse(text)
}

// Search runs a ranked search, summarizing results when summaries is true.
// Callers usually pass Config().Search.Summaries.
func (e *Engine) Search(ctx context.Context, text string, limit int, summaries bool) (*core.SearchResponse, error) {
	return e.searcher.Search(ctx, text, search.SearchOptions{Limit: limit, Summaries: summaries})
}

// Passages runs a passage-only search.
func (e *Engine) Passages(ctx context.Context, text string, limit int) (*core.PassageResponse, error) {
	return e.searcher.Passages(ctx, text, limit)
}

// Similar finds documents near documentID.
func (e *Engine) Similar(ctx context.Context, documentID string, limit int) (*core.SimilarResponse, error) {
	return e.searcher.Similar(ctx, documentID, limit)
}

// Status reports engine health.
func (e *Engine) Status(ctx context.Context) core.Status {
	return e.searcher.Status(ctx)
}

// NewIngestionPipeline creates a pipeline writing into the engine's index.
// Chunking, batch size and workers come from the ingest section unless
// overridden by opts.
func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	chunker, err := ingestion.NewChunker(e.cfg.Ingest.WordsPerChunk, e.cfg.Ingest.Overlap)
	if err != nil {
		return nil, err
	}
	base := []ingestion.Option{
		ingestion.WithLogger(e.logger),
		ingestion.WithChunker(chunker),
		ingestion.WithBatchSize(e.cfg.Ingest.BatchSize),
		ingestion.WithPoolSize(e.cfg.Ingest.Workers),
	}
	return ingestion.NewPipeline(e.index, e.provider, append(base, opts...)...)
}

// Close releases the searcher, the provider and the index.
func (e *Engine) Close() error {
	e.searcher.Release()

	var errs []error
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if err := e.index.Close(); err != nil {
		e.logger.Error("error closing index", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
