package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/poiesic/aisearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalDocument(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name string
		doc  *core.Document
	}{
		{
			name: "full metadata",
			doc: &core.Document{
				ID: "moby-dick",
				Metadata: core.Metadata{
					Title:           "Moby Dick",
					Creators:        []string{"Herman Melville"},
					Description:     "A whaling voyage.",
					PublicationDate: "1851",
					ResourceType:    "text",
					License:         "public domain",
					AccessStatus:    "open",
				},
				Vector:    []float32{0.1, -0.2, 0.3},
				IndexedAt: now,
			},
		},
		{
			name: "minimal",
			doc:  &core.Document{ID: "x", Metadata: core.Metadata{Title: "X"}},
		},
		{
			name: "unicode",
			doc: &core.Document{
				ID:       "kafka",
				Metadata: core.Metadata{Title: "Die Verwandlung", Creators: []string{"Franz Kafka", "Übersetzer"}},
				Vector:   []float32{1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalDocument(tt.doc)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalDocument(data)
			require.NoError(t, err)
			assert.Equal(t, tt.doc.ID, decoded.ID)
			assert.Equal(t, tt.doc.Metadata.Title, decoded.Metadata.Title)
			assert.Equal(t, tt.doc.Metadata.Creators, decoded.Metadata.Creators)
			assert.Equal(t, tt.doc.Metadata.Description, decoded.Metadata.Description)
			assert.Equal(t, tt.doc.Vector, decoded.Vector)
			assert.True(t, tt.doc.IndexedAt.Equal(decoded.IndexedAt))
		})
	}
}

func TestMarshalUnmarshalPassage(t *testing.T) {
	p := &core.Passage{
		DocumentID: "moby-dick",
		ChunkIndex: 3,
		ChunkCount: 12,
		Text:       "Call me Ishmael.",
		WordCount:  3,
		CharStart:  120,
		CharEnd:    136,
		Vector:     []float32{0.5, 0.5},
	}

	decoded, err := UnmarshalPassage(MarshalPassage(p))
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
}

func TestUnmarshal_Invalid(t *testing.T) {
	t.Run("empty document", func(t *testing.T) {
		_, err := UnmarshalDocument([]byte{})
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})

	t.Run("truncated passage", func(t *testing.T) {
		data := MarshalPassage(&core.Passage{DocumentID: "d", Text: "some text", Vector: []float32{1, 2, 3}})
		_, err := UnmarshalPassage(data[:len(data)-5])
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})

	t.Run("unknown version", func(t *testing.T) {
		data := MarshalDocument(&core.Document{ID: "d"})
		data[0] = 0x7e
		_, err := UnmarshalDocument(data)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedVersion))
	})
}

func TestMarshalUnmarshalString(t *testing.T) {
	s, err := UnmarshalString(MarshalString("a short summary"))
	require.NoError(t, err)
	assert.Equal(t, "a short summary", s)
}
