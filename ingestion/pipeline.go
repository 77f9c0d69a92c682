package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/aisearch/ai"
	"github.com/poiesic/aisearch/core"
	"github.com/poiesic/aisearch/scoring"
	"github.com/poiesic/aisearch/storage"
)

// Defaults for embedding calls.
const (
	DefaultBatchSize     = 32
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 500 * time.Millisecond
)

// Stats summarizes an IndexAll run.
type Stats struct {
	Documents int `json:"documents"`
	Passages  int `json:"passages"`
	Failed    int `json:"failed"`
}

// Pipeline embeds records and writes them to an index.
type Pipeline struct {
	writer        storage.DocumentWriter
	embedder      ai.Embedder
	pool          *ants.Pool
	chunker       *Chunker
	batchSize     int
	retryAttempts int
	retryDelay    time.Duration
	progress      *Progress
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithChunker replaces the default 200/20 chunker.
func WithChunker(c *Chunker) Option {
	return func(p *Pipeline) error {
		if c == nil {
			return nil
		}
		if _, err := NewChunker(c.WordsPerChunk, c.Overlap); err != nil {
			return err
		}
		p.chunker = c
		return nil
	}
}

// WithBatchSize sets how many passages go into one embedding request.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("%w: batch size must be positive", core.ErrConfiguration)
		}
		p.batchSize = size
		return nil
	}
}

// WithRetry sets the attempts and base delay for embedding calls.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if attempts < 1 {
			return ErrInvalidMaxAttempts
		}
		p.retryAttempts = attempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithProgress reports IndexAll progress through progress.
func WithProgress(progress *Progress) Option {
	return func(p *Pipeline) error {
		p.progress = progress
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(writer storage.DocumentWriter, provider ai.AIProvider, opts ...Option) (*Pipeline, error) {
	if writer == nil {
		return nil, ErrDocumentWriterRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		writer:        writer,
		embedder:      provider.Embedder(),
		pool:          pool,
		chunker:       DefaultChunker(),
		batchSize:     DefaultBatchSize,
		retryAttempts: DefaultRetryAttempts,
		retryDelay:    DefaultRetryDelay,
		logger:        slog.Default(),
		now:           func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")
	return p, nil
}

// IndexDocument chunks, embeds and stores one record. It returns the number of
// passages written.
func (p *Pipeline) IndexDocument(ctx context.Context, rec *Record) (int, error) {
	if rec == nil || rec.ID == "" {
		return 0, fmt.Errorf("%w: %w", core.ErrInvalidDocument, core.ErrEmptyID)
	}

	passages := p.chunker.Chunk(rec.ID, rec.Text)
	meta := rec.Metadata()

	docText := documentText(meta)
	if docText == "" && len(passages) > 0 {
		docText = passages[0].Text
	}
	if docText == "" {
		return 0, core.NewOpError("index", rec.ID, core.ErrInvalidDocument, core.ErrEmptyContent)
	}

	docVector, err := p.embedOne(ctx, docText)
	if err != nil {
		return 0, core.NewOpError("index", rec.ID, core.ErrEmbeddingFailure, err)
	}

	for start := 0; start < len(passages); start += p.batchSize {
		batch := passages[start:min(start+p.batchSize, len(passages))]
		texts := make([]string, len(batch))
		for i, ps := range batch {
			texts[i] = ps.Text
		}
		vectors, err := p.embedMany(ctx, texts)
		if err != nil {
			return 0, core.NewOpError("index", rec.ID, core.ErrEmbeddingFailure, err)
		}
		for i, ps := range batch {
			ps.Vector = scoring.Normalize(vectors[i])
		}
	}

	doc := &core.Document{
		ID:        rec.ID,
		Metadata:  meta,
		Vector:    scoring.Normalize(docVector),
		IndexedAt: p.now(),
	}
	if err := p.writer.PutDocument(ctx, doc, passages); err != nil {
		return 0, fmt.Errorf("storing %s: %w", rec.ID, err)
	}

	p.logger.Debug("indexed document", "id", rec.ID, "passages", len(passages))
	return len(passages), nil
}

// IndexAll indexes records concurrently. Failed records are counted in Stats
// and their errors joined into the returned error.
func (p *Pipeline) IndexAll(ctx context.Context, records []*Record) (Stats, error) {
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		stats Stats
		errs  []error
	)

	if p.progress != nil {
		p.progress.begin(len(records))
		defer p.progress.finish()
	}

	record := func(n int, err error) {
		if p.progress != nil {
			p.progress.record(err != nil)
		}
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			stats.Failed++
			errs = append(errs, err)
			return
		}
		stats.Documents++
		stats.Passages += n
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			record(0, err)
			continue
		}
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			n, err := p.IndexDocument(ctx, rec)
			if err != nil {
				p.logger.Error("error indexing record", "id", rec.ID, "err", err)
			}
			record(n, err)
		})
		if submitErr != nil {
			wg.Done()
			record(0, submitErr)
		}
	}
	wg.Wait()

	p.logger.Info("indexing complete", "documents", stats.Documents, "passages", stats.Passages, "failed", stats.Failed)
	return stats, errors.Join(errs...)
}

// IndexReader reads JSONL records from r and indexes them.
func (p *Pipeline) IndexReader(ctx context.Context, r io.Reader) (Stats, error) {
	records, err := ReadRecords(r)
	if err != nil {
		return Stats{}, err
	}
	return p.IndexAll(ctx, records)
}

// IndexFile indexes the JSONL file at path.
func (p *Pipeline) IndexFile(ctx context.Context, path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, err
	}
	defer f.Close()
	return p.IndexReader(ctx, f)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

func (p *Pipeline) embedOne(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := RetryWithBackoff(ctx, p.logger, func() error {
		v, err := p.embedder.EmbedText(ctx, text)
		if err != nil {
			return err
		}
		vector = v
		return nil
	}, p.retryAttempts, p.retryDelay)
	return vector, err
}

func (p *Pipeline) embedMany(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := RetryWithBackoff(ctx, p.logger, func() error {
		v, err := p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(v) != len(texts) {
			return fmt.Errorf("%w: got %d, want %d", ErrEmbeddingCountMismatch, len(v), len(texts))
		}
		vectors = v
		return nil
	}, p.retryAttempts, p.retryDelay)
	return vectors, err
}

// documentText is the text embedded as the document-level vector.
func documentText(meta core.Metadata) string {
	parts := make([]string, 0, 3)
	if meta.Title != "" {
		parts = append(parts, meta.Title)
	}
	if len(meta.Creators) > 0 {
		parts = append(parts, "by "+strings.Join(meta.Creators, ", "))
	}
	if meta.Description != "" {
		parts = append(parts, meta.Description)
	}
	return strings.Join(parts, ". ")
}
