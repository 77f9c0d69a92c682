// Package chromem implements storage.Index on an in-process chromem-go database.
//
// It needs no external service and can persist to a directory, which makes it
// the default for tests and small collections. Every Document and Passage
// carries its own embedding; the index never embeds text itself.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/poiesic/aisearch/core"
	"github.com/poiesic/aisearch/scoring"
	"github.com/poiesic/aisearch/storage"
)

// BackendName identifies this backend in status reports.
const BackendName = "chromem"

const (
	documentsCollection = "documents"
	passagesCollection  = "passages"
	creatorSeparator    = "\x1f"
)

var errEmbeddingRequired = errors.New("chromem index requires precomputed embeddings")

// Index implements storage.Index on chromem-go.
type Index struct {
	db        *chromem.DB
	documents *chromem.Collection
	passages  *chromem.Collection
	logger    *slog.Logger
}

var _ storage.Index = (*Index)(nil)

// Option configures an Index.
type Option func(*options) error

type options struct {
	logger   *slog.Logger
	path     string
	compress bool
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithPersistence stores the database under path instead of keeping it in memory only.
func WithPersistence(path string, compress bool) Option {
	return func(o *options) error {
		if path == "" {
			return fmt.Errorf("%w: chromem path is required", core.ErrConfiguration)
		}
		o.path = path
		o.compress = compress
		return nil
	}
}

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errEmbeddingRequired
}

// NewIndex creates an index. Without WithPersistence it lives in memory.
func NewIndex(opts ...Option) (*Index, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	var (
		db  *chromem.DB
		err error
	)
	if o.path != "" {
		db, err = chromem.NewPersistentDB(o.path, o.compress)
		if err != nil {
			return nil, fmt.Errorf("opening chromem db at %s: %w", o.path, err)
		}
	} else {
		db = chromem.NewDB()
	}

	documents, err := db.GetOrCreateCollection(documentsCollection, nil, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", documentsCollection, err)
	}
	passages, err := db.GetOrCreateCollection(passagesCollection, nil, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", passagesCollection, err)
	}

	return &Index{
		db:        db,
		documents: documents,
		passages:  passages,
		logger:    o.logger.With("component", "chromem-index"),
	}, nil
}

// Name implements storage.VectorIndex.
func (i *Index) Name() string {
	return BackendName
}

// Close is a no-op; persistent databases write through on every change.
func (i *Index) Close() error {
	return nil
}

// QueryNearest implements storage.VectorIndex.
func (i *Index) QueryNearest(ctx context.Context, vector []float32, k int, granularity core.Granularity) ([]core.Hit, error) {
	var collection *chromem.Collection
	switch granularity {
	case core.GranularityDocument:
		collection = i.documents
	case core.GranularityPassage:
		collection = i.passages
	default:
		return nil, fmt.Errorf("%w: granularity %d", storage.ErrInvalidQuery, granularity)
	}

	// chromem requires nResults <= document count
	n := min(k, collection.Count())
	if n <= 0 {
		return []core.Hit{}, nil
	}

	results, err := collection.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", collection.Name, err)
	}

	hits := make([]core.Hit, 0, len(results))
	for _, r := range results {
		hit := core.Hit{
			DocumentID: r.Metadata[metaDocumentID],
			Score:      scoring.Clamp(r.Similarity),
		}
		if granularity == core.GranularityPassage {
			hit.Passage = passageFromMetadata(r.Metadata, r.Content)
		}
		hits = append(hits, hit)
	}
	scoring.SortHits(hits)
	return hits, nil
}

// GetVector implements storage.VectorIndex.
func (i *Index) GetVector(ctx context.Context, documentID string) ([]float32, error) {
	doc, err := i.getDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(doc.Embedding) == 0 {
		return nil, storage.ErrNotFound
	}
	return doc.Embedding, nil
}

// GetMetadata implements storage.MetadataSource.
func (i *Index) GetMetadata(ctx context.Context, documentID string) (*core.Metadata, error) {
	doc, err := i.getDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return metadataFromMap(doc.Metadata, doc.Content), nil
}

func (i *Index) getDocument(ctx context.Context, documentID string) (chromem.Document, error) {
	if documentID == "" {
		return chromem.Document{}, storage.ErrNotFound
	}
	doc, err := i.documents.GetByID(ctx, documentID)
	if err != nil {
		return chromem.Document{}, storage.ErrNotFound
	}
	return doc, nil
}

// Counts implements storage.VectorIndex.
func (i *Index) Counts(ctx context.Context) (storage.Counts, error) {
	return storage.Counts{
		Documents: i.documents.Count(),
		Passages:  i.passages.Count(),
	}, nil
}

// PutDocument implements storage.DocumentWriter.
func (i *Index) PutDocument(ctx context.Context, doc *core.Document, passages []*core.Passage) error {
	if err := core.ValidateDocument(doc); err != nil {
		return err
	}
	if len(doc.Vector) == 0 {
		return fmt.Errorf("%w: document %s has no vector", core.ErrInvalidDocument, doc.ID)
	}
	for _, p := range passages {
		if err := core.ValidatePassage(p); err != nil {
			return err
		}
		if len(p.Vector) == 0 {
			return fmt.Errorf("%w: passage %s has no vector", core.ErrInvalidPassage, p.ID())
		}
	}

	if err := i.passages.Delete(ctx, map[string]string{metaDocumentID: doc.ID}, nil); err != nil {
		return fmt.Errorf("deleting passages of %s: %w", doc.ID, err)
	}

	err := i.documents.AddDocument(ctx, chromem.Document{
		ID:        doc.ID,
		Content:   doc.Metadata.Description,
		Metadata:  metadataToMap(doc),
		Embedding: doc.Vector,
	})
	if err != nil {
		return fmt.Errorf("adding document %s: %w", doc.ID, err)
	}

	if len(passages) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(passages))
	for n, p := range passages {
		docs[n] = chromem.Document{
			ID:        p.ID(),
			Content:   p.Text,
			Metadata:  passageToMap(p),
			Embedding: p.Vector,
		}
	}
	// Concurrency of 1 since embeddings are already present.
	if err := i.passages.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("adding passages of %s: %w", doc.ID, err)
	}
	i.logger.Debug("stored document", "id", doc.ID, "passages", len(passages))
	return nil
}

// DeleteDocument implements storage.DocumentWriter.
func (i *Index) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := i.getDocument(ctx, documentID); err != nil {
		return err
	}
	if err := i.documents.Delete(ctx, nil, nil, documentID); err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	if err := i.passages.Delete(ctx, map[string]string{metaDocumentID: documentID}, nil); err != nil {
		return fmt.Errorf("deleting passages of %s: %w", documentID, err)
	}
	return nil
}

const (
	metaDocumentID   = "document_id"
	metaTitle        = "title"
	metaCreators     = "creators"
	metaPublished    = "publication_date"
	metaResourceType = "resource_type"
	metaLicense      = "license"
	metaAccess       = "access_status"
	metaChunkIndex   = "chunk_index"
	metaChunkCount   = "chunk_count"
	metaWordCount    = "word_count"
	metaCharStart    = "char_start"
	metaCharEnd      = "char_end"
)

func metadataToMap(doc *core.Document) map[string]string {
	m := doc.Metadata
	return map[string]string{
		metaDocumentID:   doc.ID,
		metaTitle:        m.Title,
		metaCreators:     strings.Join(m.Creators, creatorSeparator),
		metaPublished:    m.PublicationDate,
		metaResourceType: m.ResourceType,
		metaLicense:      m.License,
		metaAccess:       m.AccessStatus,
	}
}

func metadataFromMap(m map[string]string, description string) *core.Metadata {
	var creators []string
	if c := m[metaCreators]; c != "" {
		creators = strings.Split(c, creatorSeparator)
	}
	return &core.Metadata{
		Title:           m[metaTitle],
		Creators:        creators,
		Description:     description,
		PublicationDate: m[metaPublished],
		ResourceType:    m[metaResourceType],
		License:         m[metaLicense],
		AccessStatus:    m[metaAccess],
	}
}

func passageToMap(p *core.Passage) map[string]string {
	return map[string]string{
		metaDocumentID: p.DocumentID,
		metaChunkIndex: strconv.Itoa(p.ChunkIndex),
		metaChunkCount: strconv.Itoa(p.ChunkCount),
		metaWordCount:  strconv.Itoa(p.WordCount),
		metaCharStart:  strconv.Itoa(p.CharStart),
		metaCharEnd:    strconv.Itoa(p.CharEnd),
	}
}

func passageFromMetadata(m map[string]string, text string) *core.Passage {
	atoi := func(key string) int {
		n, _ := strconv.Atoi(m[key])
		return n
	}
	return &core.Passage{
		DocumentID: m[metaDocumentID],
		ChunkIndex: atoi(metaChunkIndex),
		ChunkCount: atoi(metaChunkCount),
		Text:       text,
		WordCount:  atoi(metaWordCount),
		CharStart:  atoi(metaCharStart),
		CharEnd:    atoi(metaCharEnd),
	}
}
