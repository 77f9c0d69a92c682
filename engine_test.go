package aisearch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/aisearch/ai/mock"
	"github.com/poiesic/aisearch/config"
	"github.com/poiesic/aisearch/core"
	"github.com/poiesic/aisearch/ingestion"
	"github.com/poiesic/aisearch/storage/badger"
	"github.com/poiesic/aisearch/storage/chromem"
)

func newTestEngine(t *testing.T, cfg *config.Config) (*Engine, *mock.MockProvider) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.Index.InMemory = true
	provider := mock.NewMockProvider()
	provider.GetMockEmbedder().Dimension = 16
	engine, err := NewEngine(cfg, WithProvider(provider))
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine, provider
}

var corpus = []*ingestion.Record{
	{ID: "pg1342", Title: "Pride and Prejudice", Creators: []string{"Jane Austen"},
		Text: "It is a truth universally acknowledged that a single man in possession of a good fortune must be in want of a wife"},
	{ID: "pg2701", Title: "Moby Dick", Creators: []string{"Herman Melville"},
		Text: "Call me Ishmael. Some years ago never mind how long precisely having little or no money in my purse"},
	{ID: "pg345", Title: "Dracula", Creators: []string{"Bram Stoker"},
		Text: "Listen to them, the children of the night. What music they make!"},
}

func indexCorpus(t *testing.T, engine *Engine) {
	t.Helper()
	pipeline, err := engine.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	stats, err := pipeline.IndexAll(context.Background(), corpus)
	require.NoError(t, err)
	require.Equal(t, len(corpus), stats.Documents)
}

func TestNewEngine(t *testing.T) {
	t.Run("rejects invalid config", func(t *testing.T) {
		cfg := config.Default()
		cfg.Index.Backend = "nope"
		_, err := NewEngine(cfg, WithProvider(mock.NewMockProvider()))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0o644))

		cfg := config.Default()
		cfg.Index.Path = tmpFile
		engine, err := NewEngine(cfg, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, engine)
	})

	t.Run("default provider is lazy", func(t *testing.T) {
		cfg := config.Default()
		cfg.Index.InMemory = true
		engine, err := NewEngine(cfg)
		require.NoError(t, err)
		defer engine.Close()

		status := engine.Status(context.Background())
		assert.False(t, status.ProviderReady)
		assert.Equal(t, core.StatusReady, status.Status)
	})

	t.Run("supplied index", func(t *testing.T) {
		idx, err := chromem.NewIndex()
		require.NoError(t, err)
		engine, err := NewEngine(nil, WithIndex(idx), WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		defer engine.Close()
		assert.Equal(t, chromem.BackendName, engine.Status(context.Background()).Backend)
	})
}

func TestEngine_IndexAndSearch(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t, nil)
	indexCorpus(t, engine)

	status := engine.Status(ctx)
	assert.Equal(t, badger.BackendName, status.Backend)
	assert.Equal(t, 3, status.Documents)
	assert.Equal(t, 3, status.Passages)

	resp, err := engine.Search(ctx, "find 2 books about whales", 0, engine.Config().Search.Summaries)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Parsed.Limit)
	assert.LessOrEqual(t, len(resp.Results), 2)
	assert.Equal(t, len(resp.Results), resp.Total)
	for _, r := range resp.Results {
		assert.NotEmpty(t, r.Summary)
		assert.GreaterOrEqual(t, r.FinalScore, r.BookScore)
	}

	passages, err := engine.Passages(ctx, "children of the night", 2)
	require.NoError(t, err)
	assert.Len(t, passages.Passages, 2)

	similar, err := engine.Similar(ctx, "pg345", 5)
	require.NoError(t, err)
	assert.Equal(t, "Dracula", similar.SourceTitle)
	assert.Len(t, similar.Similar, 2)
	for _, s := range similar.Similar {
		assert.NotEqual(t, "pg345", s.DocumentID)
	}

	_, err = engine.Similar(ctx, "missing", 5)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestEngine_SummariesDisabled(t *testing.T) {
	engine, provider := newTestEngine(t, nil)
	indexCorpus(t, engine)
	require.True(t, engine.Config().Search.Summaries)

	t.Run("per call", func(t *testing.T) {
		resp, err := engine.Search(context.Background(), "whales", 3, false)
		require.NoError(t, err)
		require.NotEmpty(t, resp.Results)
		for _, r := range resp.Results {
			assert.Empty(t, r.Summary)
		}
		assert.Zero(t, provider.GetMockSummarizer().CallCount())
		// The shared configuration is left alone.
		assert.True(t, engine.Config().Search.Summaries)
	})

	t.Run("next call still summarizes", func(t *testing.T) {
		resp, err := engine.Search(context.Background(), "whales", 3, true)
		require.NoError(t, err)
		require.NotEmpty(t, resp.Results)
		for _, r := range resp.Results {
			assert.NotEmpty(t, r.Summary)
		}
	})
}

func TestEngine_Metrics(t *testing.T) {
	cfg := config.Default()
	cfg.Index.InMemory = true
	reg := prometheus.NewRegistry()
	engine, err := NewEngine(cfg, WithProvider(mock.NewMockProvider()), WithMetricsRegistry(reg))
	require.NoError(t, err)
	defer engine.Close()

	_, err = engine.Search(context.Background(), "anything", 1, false)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestEngine_Parse(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	q := engine.Parse("how many tragic novels")
	assert.Equal(t, core.IntentCount, q.Intent)
}

func TestOpenIndex(t *testing.T) {
	t.Run("chromem in memory", func(t *testing.T) {
		idx, err := OpenIndex(config.Index{Backend: config.BackendChromem, InMemory: true}, nil)
		require.NoError(t, err)
		defer idx.Close()
		assert.Equal(t, chromem.BackendName, idx.Name())
	})

	t.Run("badger on disk", func(t *testing.T) {
		idx, err := OpenIndex(config.Index{Backend: config.BackendBadger, Path: filepath.Join(t.TempDir(), "db")}, nil)
		require.NoError(t, err)
		defer idx.Close()
		assert.Equal(t, badger.BackendName, idx.Name())
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := OpenIndex(config.Index{Backend: "mongo"}, nil)
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})
}
