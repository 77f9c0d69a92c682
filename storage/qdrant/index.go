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

// Package qdrant implements storage.Index on a Qdrant server.
//
// Documents and passages live in two collections named <prefix>_documents
// and <prefix>_passages. Point ids are name-based UUIDs derived from the
// document id and chunk index, so re-indexing a document overwrites its points.
// Collections are created on first write with cosine distance.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/aisearch/core"
	"github.com/poiesic/aisearch/scoring"
	"github.com/poiesic/aisearch/storage"
	pb "github.com/qdrant/go-client/qdrant"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// BackendName identifies this backend in status reports.
const BackendName = "qdrant"

var tracer = otel.Tracer("github.com/poiesic/aisearch/storage/qdrant")

// Config holds connection settings.
type Config struct {
	Host             string
	Port             int
	UseTLS           bool
	APIKey           string
	CollectionPrefix string
}

// DefaultConfig returns settings for a local Qdrant instance.
func DefaultConfig() Config {
	return Config{
		Host:             "localhost",
		Port:             6334,
		CollectionPrefix: "aisearch",
	}
}

// Index implements storage.Index against Qdrant.
type Index struct {
	client      *pb.Client
	documents   string
	passages    string
	logger      *slog.Logger
	collections sync.Map
}

var _ storage.Index = (*Index)(nil)

// Option configures an Index.
type Option func(*Index) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		i.logger = logger
		return nil
	}
}

// NewIndex connects to Qdrant. The connection is established lazily by the client.
func NewIndex(config Config, opts ...Option) (*Index, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("%w: qdrant host is required", core.ErrConfiguration)
	}
	if config.CollectionPrefix == "" {
		config.CollectionPrefix = DefaultConfig().CollectionPrefix
	}

	client, err := pb.NewClient(&pb.Config{
		Host:   config.Host,
		Port:   config.Port,
		UseTLS: config.UseTLS,
		APIKey: config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}

	idx := &Index{
		client:    client,
		documents: config.CollectionPrefix + "_documents",
		passages:  config.CollectionPrefix + "_passages",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			client.Close()
			return nil, err
		}
	}
	idx.logger = idx.logger.With("component", "qdrant-index")
	return idx, nil
}

// Name implements storage.VectorIndex.
func (i *Index) Name() string {
	return BackendName
}

// Close closes the client connection.
func (i *Index) Close() error {
	return i.client.Close()
}

func (i *Index) collectionFor(granularity core.Granularity) (string, error) {
	switch granularity {
	case core.GranularityDocument:
		return i.documents, nil
	case core.GranularityPassage:
		return i.passages, nil
	default:
		return "", fmt.Errorf("%w: granularity %d", storage.ErrInvalidQuery, granularity)
	}
}

func (i *Index) exists(ctx context.Context, collection string) (bool, error) {
	if _, ok := i.collections.Load(collection); ok {
		return true, nil
	}
	exists, err := i.client.CollectionExists(ctx, collection)
	if err != nil {
		return false, fmt.Errorf("checking collection %s: %w", collection, err)
	}
	if exists {
		i.collections.Store(collection, true)
	}
	return exists, nil
}

func (i *Index) ensure(ctx context.Context, collection string, dimension int) error {
	exists, err := i.exists(ctx, collection)
	if err != nil || exists {
		return err
	}
	err = i.client.CreateCollection(ctx, &pb.CreateCollection{
		CollectionName: collection,
		VectorsConfig: pb.NewVectorsConfig(&pb.VectorParams{
			Size:     uint64(dimension),
			Distance: pb.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", collection, err)
	}
	i.collections.Store(collection, true)
	i.logger.Info("created collection", "collection", collection, "dimension", dimension)
	return nil
}

// QueryNearest implements storage.VectorIndex.
func (i *Index) QueryNearest(ctx context.Context, vector []float32, k int, granularity core.Granularity) ([]core.Hit, error) {
	ctx, span := tracer.Start(ctx, "qdrant.QueryNearest")
	defer span.End()
	span.SetAttributes(
		attribute.String("granularity", granularity.String()),
		attribute.Int("k", k),
	)

	collection, err := i.collectionFor(granularity)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return []core.Hit{}, nil
	}
	exists, err := i.exists(ctx, collection)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !exists {
		return []core.Hit{}, nil
	}

	points, err := i.client.Query(ctx, &pb.QueryPoints{
		CollectionName: collection,
		Query:          pb.NewQuery(vector...),
		Limit:          pb.PtrOf(uint64(k)),
		WithPayload:    pb.NewWithPayload(true),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("searching collection %s: %w", collection, err)
	}

	hits := make([]core.Hit, 0, len(points))
	for _, point := range points {
		hit := core.Hit{
			DocumentID: getString(point.GetPayload(), keyDocumentID),
			Score:      scoring.Clamp(point.GetScore()),
		}
		if granularity == core.GranularityPassage {
			hit.Passage = passageFromPayload(point.GetPayload())
		}
		hits = append(hits, hit)
	}
	scoring.SortHits(hits)

	span.SetAttributes(attribute.Int("results_count", len(hits)))
	return hits, nil
}

func (i *Index) getDocumentPoint(ctx context.Context, documentID string, withVector bool) (*pb.RetrievedPoint, error) {
	exists, err := i.exists(ctx, i.documents)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, storage.ErrNotFound
	}
	points, err := i.client.Get(ctx, &pb.GetPoints{
		CollectionName: i.documents,
		Ids:            []*pb.PointId{pb.NewIDUUID(documentPointID(documentID))},
		WithPayload:    pb.NewWithPayload(true),
		WithVectors:    pb.NewWithVectors(withVector),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", documentID, err)
	}
	if len(points) == 0 {
		return nil, storage.ErrNotFound
	}
	return points[0], nil
}

// GetVector implements storage.VectorIndex.
func (i *Index) GetVector(ctx context.Context, documentID string) ([]float32, error) {
	point, err := i.getDocumentPoint(ctx, documentID, true)
	if err != nil {
		return nil, err
	}
	vec := point.GetVectors().GetVector().GetData()
	if len(vec) == 0 {
		return nil, storage.ErrNotFound
	}
	return vec, nil
}

// GetMetadata implements storage.MetadataSource.
func (i *Index) GetMetadata(ctx context.Context, documentID string) (*core.Metadata, error) {
	point, err := i.getDocumentPoint(ctx, documentID, false)
	if err != nil {
		return nil, err
	}
	return metadataFromPayload(point.GetPayload()), nil
}

// Counts implements storage.VectorIndex.
func (i *Index) Counts(ctx context.Context) (storage.Counts, error) {
	docs, err := i.count(ctx, i.documents)
	if err != nil {
		return storage.Counts{}, err
	}
	passages, err := i.count(ctx, i.passages)
	if err != nil {
		return storage.Counts{}, err
	}
	return storage.Counts{Documents: docs, Passages: passages}, nil
}

func (i *Index) count(ctx context.Context, collection string) (int, error) {
	exists, err := i.exists(ctx, collection)
	if err != nil || !exists {
		return 0, err
	}
	info, err := i.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("collection info %s: %w", collection, err)
	}
	return int(info.GetPointsCount()), nil
}

// PutDocument implements storage.DocumentWriter.
func (i *Index) PutDocument(ctx context.Context, doc *core.Document, passages []*core.Passage) error {
	ctx, span := tracer.Start(ctx, "qdrant.PutDocument")
	defer span.End()
	span.SetAttributes(attribute.Int("passages", len(passages)))

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

	if err := i.ensure(ctx, i.documents, len(doc.Vector)); err != nil {
		return err
	}
	if len(passages) > 0 {
		if err := i.ensure(ctx, i.passages, len(passages[0].Vector)); err != nil {
			return err
		}
	}
	if err := i.deletePassages(ctx, doc.ID); err != nil {
		return err
	}

	_, err := i.client.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: i.documents,
		Wait:           pb.PtrOf(true),
		Points: []*pb.PointStruct{{
			Id:      pb.NewIDUUID(documentPointID(doc.ID)),
			Vectors: pb.NewVectors(doc.Vector...),
			Payload: documentPayload(doc),
		}},
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("upserting document %s: %w", doc.ID, err)
	}

	if len(passages) == 0 {
		return nil
	}
	points := make([]*pb.PointStruct, len(passages))
	for n, p := range passages {
		points[n] = &pb.PointStruct{
			Id:      pb.NewIDUUID(passagePointID(p.DocumentID, p.ChunkIndex)),
			Vectors: pb.NewVectors(p.Vector...),
			Payload: passagePayload(p),
		}
	}
	_, err = i.client.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: i.passages,
		Wait:           pb.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("upserting passages of %s: %w", doc.ID, err)
	}
	return nil
}

func (i *Index) deletePassages(ctx context.Context, documentID string) error {
	exists, err := i.exists(ctx, i.passages)
	if err != nil || !exists {
		return err
	}
	_, err = i.client.Delete(ctx, &pb.DeletePoints{
		CollectionName: i.passages,
		Wait:           pb.PtrOf(true),
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: documentFilter(documentID),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting passages of %s: %w", documentID, err)
	}
	return nil
}

// DeleteDocument implements storage.DocumentWriter.
func (i *Index) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := i.getDocumentPoint(ctx, documentID, false); err != nil {
		return err
	}
	_, err := i.client.Delete(ctx, &pb.DeletePoints{
		CollectionName: i.documents,
		Wait:           pb.PtrOf(true),
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{pb.NewIDUUID(documentPointID(documentID))},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	return i.deletePassages(ctx, documentID)
}
