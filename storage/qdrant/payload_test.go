package qdrant

import (
	"testing"

	"github.com/poiesic/aisearch/core"
	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointIDs(t *testing.T) {
	t.Run("stable", func(t *testing.T) {
		assert.Equal(t, documentPointID("moby"), documentPointID("moby"))
		assert.Equal(t, passagePointID("moby", 3), passagePointID("moby", 3))
	})

	t.Run("distinct", func(t *testing.T) {
		assert.NotEqual(t, documentPointID("moby"), passagePointID("moby", 0))
		assert.NotEqual(t, passagePointID("moby", 0), passagePointID("moby", 1))
	})
}

func TestDocumentPayloadRoundTrip(t *testing.T) {
	doc := &core.Document{
		ID: "emma",
		Metadata: core.Metadata{
			Title:           "Emma",
			Creators:        []string{"Jane Austen"},
			Description:     "A comedy of manners.",
			PublicationDate: "1815",
			License:         "public domain",
		},
	}

	payload := documentPayload(doc)
	assert.Equal(t, "emma", getString(payload, keyDocumentID))

	meta := metadataFromPayload(payload)
	assert.Equal(t, doc.Metadata.Title, meta.Title)
	assert.Equal(t, doc.Metadata.Creators, meta.Creators)
	assert.Equal(t, doc.Metadata.Description, meta.Description)
	assert.Equal(t, doc.Metadata.PublicationDate, meta.PublicationDate)
	assert.Equal(t, doc.Metadata.License, meta.License)
}

func TestPassagePayloadRoundTrip(t *testing.T) {
	p := &core.Passage{
		DocumentID: "emma",
		ChunkIndex: 4,
		ChunkCount: 9,
		Text:       "Emma Woodhouse, handsome, clever, and rich",
		WordCount:  6,
		CharStart:  10,
		CharEnd:    52,
	}
	assert.Equal(t, p, passageFromPayload(passagePayload(p)))
}

func TestPayloadGetters_Missing(t *testing.T) {
	payload := map[string]*pb.Value{
		"n": {Kind: &pb.Value_DoubleValue{DoubleValue: 3}},
	}
	assert.Equal(t, "", getString(payload, "missing"))
	assert.Equal(t, 0, getInt(payload, "missing"))
	assert.Equal(t, 3, getInt(payload, "n"))
	assert.Nil(t, getStrings(payload, "n"))
}

func TestDocumentFilter(t *testing.T) {
	f := documentFilter("emma")
	require.Len(t, f.Must, 1)
	field := f.Must[0].GetField()
	require.NotNil(t, field)
	assert.Equal(t, keyDocumentID, field.Key)
	assert.Equal(t, "emma", field.GetMatch().GetKeyword())
}

func TestNewIndex_RequiresHost(t *testing.T) {
	_, err := NewIndex(Config{})
	assert.ErrorIs(t, err, core.ErrConfiguration)
}
