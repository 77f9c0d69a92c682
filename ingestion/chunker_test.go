package ingestion

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(w, " ")
}

func TestNewChunker_Validation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"valid", 10, 2, false},
		{"no overlap", 10, 0, false},
		{"zero size", 0, 0, true},
		{"negative overlap", 10, -1, true},
		{"overlap equals size", 10, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChunker(tt.size, tt.overlap)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidChunking)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChunker_Chunk(t *testing.T) {
	c, err := NewChunker(10, 2)
	require.NoError(t, err)

	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, c.Chunk("doc", "  \n\t "))
	})

	t.Run("short text is one chunk", func(t *testing.T) {
		ps := c.Chunk("doc", "  call me ishmael  ")
		require.Len(t, ps, 1)
		assert.Equal(t, "call me ishmael", ps[0].Text)
		assert.Equal(t, 2, ps[0].CharStart)
		assert.Equal(t, 17, ps[0].CharEnd)
		assert.Equal(t, 3, ps[0].WordCount)
		assert.Equal(t, 1, ps[0].ChunkCount)
	})

	t.Run("overlapping windows", func(t *testing.T) {
		ps := c.Chunk("doc", words(25))
		// windows start at 0, 8, 16
		require.Len(t, ps, 3)
		for i, p := range ps {
			assert.Equal(t, i, p.ChunkIndex)
			assert.Equal(t, 3, p.ChunkCount)
			assert.Equal(t, "doc", p.DocumentID)
		}
		assert.True(t, strings.HasPrefix(ps[1].Text, "w8 w9 w10"))
		assert.True(t, strings.HasSuffix(ps[0].Text, "w8 w9"))
		assert.Equal(t, 10, ps[0].WordCount)
		assert.Equal(t, 9, ps[2].WordCount)
		assert.True(t, strings.HasSuffix(ps[2].Text, "w24"))
	})

	t.Run("offsets count runes", func(t *testing.T) {
		text := "café über naïve"
		ps := c.Chunk("doc", text)
		require.Len(t, ps, 1)
		runes := []rune(text)
		assert.Equal(t, text, string(runes[ps[0].CharStart:ps[0].CharEnd]))
		assert.Equal(t, 15, ps[0].CharEnd)
	})
}

func TestChunker_ChunkUnvalidatedFields(t *testing.T) {
	tests := []struct {
		name      string
		chunker   Chunker
		words     int
		wantCount int
		wantWords int
	}{
		{"zero value uses default size", Chunker{}, 250, 2, DefaultWordsPerChunk},
		{"overlap equal to size", Chunker{WordsPerChunk: 5, Overlap: 5}, 7, 3, 5},
		{"overlap above size", Chunker{WordsPerChunk: 5, Overlap: 9}, 7, 3, 5},
		{"negative overlap", Chunker{WordsPerChunk: 3, Overlap: -2}, 7, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := tt.chunker.Chunk("doc", words(tt.words))
			require.Len(t, ps, tt.wantCount)
			assert.Equal(t, tt.wantWords, ps[0].WordCount)
			assert.True(t, strings.HasSuffix(ps[len(ps)-1].Text, fmt.Sprintf("w%d", tt.words-1)))
		})
	}
}
