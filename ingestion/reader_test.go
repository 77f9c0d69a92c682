package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/aisearch/core"
)

func TestReadRecords(t *testing.T) {
	input := `{"id":"a","title":" Emma ","creators":["Jane Austen"],"text":"Emma Woodhouse, handsome, clever, and rich"}
{"id":"b","title":"Moby Dick","description":"A whale of a tale","license":"public domain"}
`
	recs, err := ReadRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	meta := recs[0].Metadata()
	assert.Equal(t, "Emma", meta.Title)
	assert.Equal(t, []string{"Jane Austen"}, meta.Creators)
	assert.Equal(t, "public domain", recs[1].Metadata().License)
}

func TestReadRecords_Errors(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		_, err := ReadRecords(strings.NewReader(`{"title":"x"}`))
		assert.ErrorIs(t, err, core.ErrEmptyID)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := ReadRecords(strings.NewReader(`{"id":`))
		assert.Error(t, err)
	})

	t.Run("empty input", func(t *testing.T) {
		recs, err := ReadRecords(strings.NewReader(""))
		assert.NoError(t, err)
		assert.Empty(t, recs)
	})
}
