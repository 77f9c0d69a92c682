package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/aisearch/ai/mock"
	"github.com/poiesic/aisearch/core"
	"github.com/poiesic/aisearch/scoring"
	"github.com/poiesic/aisearch/storage/badger"
)

func newTestPipeline(t *testing.T, provider *mock.MockProvider, opts ...Option) (*Pipeline, *badger.Index) {
	t.Helper()
	idx, err := badger.NewMemoryIndex()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	opts = append([]Option{WithRetry(2, time.Millisecond), WithPoolSize(2)}, opts...)
	p, err := NewPipeline(idx, provider, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p, idx
}

func TestNewPipeline_Validation(t *testing.T) {
	idx, err := badger.NewMemoryIndex()
	require.NoError(t, err)
	defer idx.Close()

	_, err = NewPipeline(nil, mock.NewMockProvider())
	assert.ErrorIs(t, err, ErrDocumentWriterRequired)
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = NewPipeline(idx, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)

	_, err = NewPipeline(idx, mock.NewMockProvider(), WithBatchSize(0))
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = NewPipeline(idx, mock.NewMockProvider(), WithChunker(&Chunker{WordsPerChunk: 5, Overlap: 5}))
	assert.ErrorIs(t, err, ErrInvalidChunking)
}

func TestPipeline_IndexDocument(t *testing.T) {
	ctx := context.Background()
	p, idx := newTestPipeline(t, mock.NewMockProvider(), WithChunker(&Chunker{WordsPerChunk: 4, Overlap: 1}))

	rec := &Record{
		ID:       "pg1342",
		Title:    "Pride and Prejudice",
		Creators: []string{"Jane Austen"},
		Text:     "It is a truth universally acknowledged that a single man",
	}
	n, err := p.IndexDocument(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	doc, err := idx.GetDocument(ctx, "pg1342")
	require.NoError(t, err)
	assert.Equal(t, "Pride and Prejudice", doc.Metadata.Title)
	assert.False(t, doc.IndexedAt.IsZero())
	assert.InDelta(t, 1.0, scoring.Norm(doc.Vector), 1e-5)

	passages, err := idx.GetPassages(ctx, "pg1342")
	require.NoError(t, err)
	require.Len(t, passages, 3)
	assert.Equal(t, "It is a truth", passages[0].Text)
	assert.Equal(t, "truth universally acknowledged that", passages[1].Text)

	counts, err := idx.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Documents)
	assert.Equal(t, 3, counts.Passages)
}

func TestPipeline_DocumentTextFallsBackToFirstPassage(t *testing.T) {
	ctx := context.Background()
	provider := mock.NewMockProvider()
	var embedded []string
	provider.GetMockEmbedder().EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		embedded = append(embedded, text)
		return mock.DeterministicVector(text, 8), nil
	}
	p, _ := newTestPipeline(t, provider)

	_, err := p.IndexDocument(ctx, &Record{ID: "x", Text: "only body text here"})
	require.NoError(t, err)
	require.NotEmpty(t, embedded)
	assert.Equal(t, "only body text here", embedded[0])

	_, err = p.IndexDocument(ctx, &Record{ID: "empty"})
	assert.ErrorIs(t, err, core.ErrInvalidDocument)
}

func TestPipeline_RetriesEmbedding(t *testing.T) {
	ctx := context.Background()
	provider := mock.NewMockProvider()
	var calls atomic.Int32
	provider.GetMockEmbedder().EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("rate limited")
		}
		return mock.DeterministicVector(text, 8), nil
	}
	p, idx := newTestPipeline(t, provider)

	_, err := p.IndexDocument(ctx, &Record{ID: "r", Title: "Retry", Text: "some words"})
	require.NoError(t, err)
	_, err = idx.GetDocument(ctx, "r")
	assert.NoError(t, err)
}

func TestPipeline_IndexAll(t *testing.T) {
	ctx := context.Background()
	provider := mock.NewMockProvider()
	provider.GetMockEmbedder().EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		if text == "Broken" {
			return nil, errors.New("provider down")
		}
		return mock.DeterministicVector(text, 8), nil
	}
	p, idx := newTestPipeline(t, provider)

	records := []*Record{
		{ID: "a", Title: "Emma", Text: "one two three"},
		{ID: "b", Title: "Broken", Text: "four five"},
		{ID: "c", Title: "Persuasion", Text: "six seven"},
	}
	stats, err := p.IndexAll(ctx, records)
	assert.Equal(t, Stats{Documents: 2, Passages: 2, Failed: 1}, stats)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmbeddingFailure)

	var opErr *core.OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "b", opErr.Subject)

	counts, err := idx.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Documents)
}

func TestPipeline_IndexFile(t *testing.T) {
	ctx := context.Background()
	p, idx := newTestPipeline(t, mock.NewMockProvider())

	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	content := `{"id":"a","title":"Emma","text":"handsome clever and rich"}
{"id":"b","title":"Dracula","text":"listen to them the children of the night"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	stats, err := p.IndexFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Zero(t, stats.Failed)

	meta, err := idx.GetMetadata(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "Dracula", meta.Title)

	_, err = p.IndexFile(ctx, filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}
