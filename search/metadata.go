package search

import (
	"context"
	"log/slog"

	"github.com/poiesic/aisearch/core"
	"github.com/poiesic/aisearch/storage"
)

// metadataCache memoizes metadata lookups for one call.
// Failed lookups are logged once and remembered as missing.
type metadataCache struct {
	ctx     context.Context
	source  storage.MetadataSource
	logger  *slog.Logger
	entries map[string]*core.Metadata
}

func newMetadataCache(ctx context.Context, source storage.MetadataSource, logger *slog.Logger) *metadataCache {
	return &metadataCache{
		ctx:     ctx,
		source:  source,
		logger:  logger,
		entries: make(map[string]*core.Metadata),
	}
}

// get returns the metadata of documentID, or nil when it is unavailable.
func (c *metadataCache) get(documentID string) *core.Metadata {
	if meta, ok := c.entries[documentID]; ok {
		return meta
	}
	meta, err := c.source.GetMetadata(c.ctx, documentID)
	if err != nil {
		c.logger.Warn("metadata unavailable", "document_id", documentID, "err", err)
		meta = nil
	}
	c.entries[documentID] = meta
	return meta
}
