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

package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/aisearch/core"
	"github.com/poiesic/aisearch/scoring"
	"github.com/poiesic/aisearch/storage"
)

// BackendName identifies this backend in status reports.
const BackendName = "badger"

// Index implements storage.Index and storage.SummaryCache on BadgerDB.
// Nearest-neighbor queries scan every vector of the requested granularity.
type Index struct {
	backend *Backend
	logger  *slog.Logger
}

var (
	_ storage.Index        = (*Index)(nil)
	_ storage.SummaryCache = (*Index)(nil)
)

// Option configures an Index.
type Option func(*indexOptions) error

type indexOptions struct {
	logger   *slog.Logger
	inMemory bool
}

// WithLogger sets the logger used by the index and badger itself.
func WithLogger(logger *slog.Logger) Option {
	return func(o *indexOptions) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithInMemory keeps all data in memory. The path is ignored.
func WithInMemory() Option {
	return func(o *indexOptions) error {
		o.inMemory = true
		return nil
	}
}

// NewIndex opens or creates an index at path.
func NewIndex(path string, opts ...Option) (*Index, error) {
	o := &indexOptions{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if !o.inMemory && path == "" {
		return nil, fmt.Errorf("%w: badger index path is required", core.ErrConfiguration)
	}
	backend, err := OpenBackend(path, o.inMemory, o.logger)
	if err != nil {
		return nil, err
	}
	return NewIndexFromBackend(backend), nil
}

// NewIndexFromBackend wraps an already opened backend.
func NewIndexFromBackend(backend *Backend) *Index {
	return &Index{
		backend: backend,
		logger:  backend.logger.With("component", "badger-index"),
	}
}

// Name implements storage.VectorIndex.
func (i *Index) Name() string {
	return BackendName
}

// Close closes the underlying database.
func (i *Index) Close() error {
	return i.backend.Close()
}

// QueryNearest implements storage.VectorIndex.
func (i *Index) QueryNearest(ctx context.Context, vector []float32, k int, granularity core.Granularity) ([]core.Hit, error) {
	if k <= 0 {
		return []core.Hit{}, nil
	}

	var prefix []byte
	switch granularity {
	case core.GranularityDocument:
		prefix = []byte(documentPrefix)
	case core.GranularityPassage:
		prefix = []byte(passagePrefix)
	default:
		return nil, fmt.Errorf("%w: granularity %d", storage.ErrInvalidQuery, granularity)
	}

	hits := []core.Hit{}
	err := i.backend.View(func(tx *badger.Txn) error {
		return scanPrefix(tx, prefix, func(_, val []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if granularity == core.GranularityDocument {
				doc, err := storage.UnmarshalDocument(val)
				if err != nil {
					return err
				}
				if len(doc.Vector) == 0 {
					return nil
				}
				if err := checkDimension(vector, doc.Vector, doc.ID); err != nil {
					return err
				}
				hits = append(hits, core.Hit{
					DocumentID: doc.ID,
					Score:      scoring.Cosine(vector, doc.Vector),
				})
				return nil
			}

			p, err := storage.UnmarshalPassage(val)
			if err != nil {
				return err
			}
			if len(p.Vector) == 0 {
				return nil
			}
			if err := checkDimension(vector, p.Vector, p.DocumentID); err != nil {
				return err
			}
			score := scoring.Cosine(vector, p.Vector)
			p.Vector = nil
			hits = append(hits, core.Hit{
				DocumentID: p.DocumentID,
				Score:      score,
				Passage:    p,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	scoring.SortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// checkDimension rejects a query vector that cannot be compared with a stored one.
func checkDimension(query, stored []float32, documentID string) error {
	if len(query) != len(stored) {
		return fmt.Errorf("%w: query dimension %d, document %s has dimension %d",
			storage.ErrInvalidQuery, len(query), documentID, len(stored))
	}
	return nil
}

// GetVector implements storage.VectorIndex.
func (i *Index) GetVector(ctx context.Context, documentID string) ([]float32, error) {
	doc, err := i.getDocument(documentID)
	if err != nil {
		return nil, err
	}
	if len(doc.Vector) == 0 {
		return nil, storage.ErrNotFound
	}
	return doc.Vector, nil
}

// GetMetadata implements storage.MetadataSource.
func (i *Index) GetMetadata(ctx context.Context, documentID string) (*core.Metadata, error) {
	doc, err := i.getDocument(documentID)
	if err != nil {
		return nil, err
	}
	return &doc.Metadata, nil
}

// GetDocument returns the stored document record.
func (i *Index) GetDocument(ctx context.Context, documentID string) (*core.Document, error) {
	return i.getDocument(documentID)
}

// GetPassages returns the passages of a document in chunk order.
func (i *Index) GetPassages(ctx context.Context, documentID string) ([]*core.Passage, error) {
	var passages []*core.Passage
	err := i.backend.View(func(tx *badger.Txn) error {
		return scanPrefix(tx, makePassagePrefix(documentID), func(_, val []byte) error {
			p, err := storage.UnmarshalPassage(val)
			if err != nil {
				return err
			}
			passages = append(passages, p)
			return nil
		})
	})
	return passages, err
}

func (i *Index) getDocument(documentID string) (*core.Document, error) {
	var doc *core.Document
	err := i.backend.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentKey(documentID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			doc, unmarshalErr = storage.UnmarshalDocument(val)
			return unmarshalErr
		})
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Counts implements storage.VectorIndex.
func (i *Index) Counts(ctx context.Context) (storage.Counts, error) {
	var counts storage.Counts
	err := i.backend.View(func(tx *badger.Txn) error {
		counts.Documents = countPrefix(tx, []byte(documentPrefix))
		counts.Passages = countPrefix(tx, []byte(passagePrefix))
		return nil
	})
	return counts, err
}

// PutDocument implements storage.DocumentWriter.
func (i *Index) PutDocument(ctx context.Context, doc *core.Document, passages []*core.Passage) error {
	if err := core.ValidateDocument(doc); err != nil {
		return err
	}
	for _, p := range passages {
		if err := core.ValidatePassage(p); err != nil {
			return err
		}
		if p.DocumentID != doc.ID {
			return fmt.Errorf("%w: passage %s does not belong to %s", core.ErrInvalidPassage, p.ID(), doc.ID)
		}
	}

	err := i.backend.Update(func(tx *badger.Txn) error {
		if err := deletePassages(tx, doc.ID); err != nil {
			return err
		}
		if err := tx.Set(makeDocumentKey(doc.ID), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		for _, p := range passages {
			if err := tx.Set(makePassageKey(p.DocumentID, p.ChunkIndex), storage.MarshalPassage(p)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	i.logger.Debug("stored document", "id", doc.ID, "passages", len(passages))
	return nil
}

// DeleteDocument implements storage.DocumentWriter.
func (i *Index) DeleteDocument(ctx context.Context, documentID string) error {
	return i.backend.Update(func(tx *badger.Txn) error {
		key := makeDocumentKey(documentID)
		if _, err := tx.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return deletePassages(tx, documentID)
	})
}

func deletePassages(tx *badger.Txn, documentID string) error {
	var keys [][]byte
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePassagePrefix(documentID)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// GetSummary implements storage.SummaryCache.
func (i *Index) GetSummary(ctx context.Context, key core.Fingerprint) (string, bool, error) {
	var (
		summary string
		found   bool
	)
	err := i.backend.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSummaryKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			summary, unmarshalErr = storage.UnmarshalString(val)
			found = unmarshalErr == nil
			return unmarshalErr
		})
	})
	return summary, found, err
}

// PutSummary implements storage.SummaryCache.
func (i *Index) PutSummary(ctx context.Context, key core.Fingerprint, summary string) error {
	return i.backend.Update(func(tx *badger.Txn) error {
		return tx.Set(makeSummaryKey(key), storage.MarshalString(summary))
	})
}
