package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/aisearch/ai/mock"
	"github.com/poiesic/aisearch/core"
	"github.com/poiesic/aisearch/ingestion"
)

const corpus = `{"id":"pg1342","title":"Pride and Prejudice","creators":["Jane Austen"],"text":"It is a truth universally acknowledged that a single man in possession of a good fortune must be in want of a wife"}
{"id":"pg2701","title":"Moby Dick","creators":["Herman Melville"],"text":"Call me Ishmael. Some years ago never mind how long precisely"}
{"id":"pg345","title":"Dracula","creators":["Bram Stoker"],"text":"Listen to them, the children of the night. What music they make!"}
`

type harness struct {
	t        *testing.T
	db       string
	provider *mock.MockProvider
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		t:        t,
		db:       filepath.Join(t.TempDir(), "index"),
		provider: mock.NewMockProvider(),
	}
}

func (h *harness) run(args ...string) (string, error) {
	var out bytes.Buffer
	app := newApp(&out, h.provider)
	app.ErrWriter = &bytes.Buffer{}
	full := append([]string{"aisearch", "--db", h.db, "--log-level", "error"}, args...)
	err := app.Run(full)
	return out.String(), err
}

func (h *harness) indexCorpus() {
	h.t.Helper()
	path := filepath.Join(h.t.TempDir(), "corpus.jsonl")
	require.NoError(h.t, os.WriteFile(path, []byte(corpus), 0o644))

	out, err := h.run("index", "--report-interval", "0", path)
	require.NoError(h.t, err)
	var stats ingestion.Stats
	require.NoError(h.t, json.Unmarshal([]byte(out), &stats))
	require.Equal(h.t, 3, stats.Documents)
}

func TestCLI_IndexSearchAndStatus(t *testing.T) {
	h := newHarness(t)
	h.indexCorpus()

	t.Run("status", func(t *testing.T) {
		out, err := h.run("status")
		require.NoError(t, err)
		var status core.Status
		require.NoError(t, json.Unmarshal([]byte(out), &status))
		assert.Equal(t, core.StatusReady, status.Status)
		assert.Equal(t, 3, status.Documents)
		assert.Equal(t, "badger", status.Backend)
	})

	t.Run("search", func(t *testing.T) {
		out, err := h.run("search", "--limit", "2", "--no-summaries", "books", "about", "whales")
		require.NoError(t, err)
		var resp core.SearchResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, "books about whales", resp.Query)
		assert.Len(t, resp.Results, 2)
		for _, r := range resp.Results {
			assert.Empty(t, r.Summary)
		}
	})

	t.Run("passages", func(t *testing.T) {
		out, err := h.run("passages", "-n", "1", "children of the night")
		require.NoError(t, err)
		var resp core.PassageResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, 1, resp.Total)
	})

	t.Run("similar", func(t *testing.T) {
		out, err := h.run("similar", "pg345")
		require.NoError(t, err)
		var resp core.SimilarResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, "Dracula", resp.SourceTitle)
		assert.Equal(t, 2, resp.Total)
	})

	t.Run("similar unknown id", func(t *testing.T) {
		_, err := h.run("similar", "nope")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		_, err := h.run("delete", "pg345")
		require.NoError(t, err)

		out, err := h.run("status")
		require.NoError(t, err)
		var status core.Status
		require.NoError(t, json.Unmarshal([]byte(out), &status))
		assert.Equal(t, 2, status.Documents)
	})
}

func TestCLI_Parse(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("parse", "get", "me", "3", "tragic", "novels")
	require.NoError(t, err)

	var parsed core.ParsedQuery
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, 3, parsed.Limit)
	assert.Contains(t, parsed.Attributes, "tragedy")
}

func TestCLI_Errors(t *testing.T) {
	h := newHarness(t)

	t.Run("query is required", func(t *testing.T) {
		_, err := h.run("search")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query is required")
	})

	t.Run("index file is required", func(t *testing.T) {
		_, err := h.run("index")
		assert.Error(t, err)
	})

	t.Run("missing index file", func(t *testing.T) {
		_, err := h.run("index", filepath.Join(t.TempDir(), "absent.jsonl"))
		assert.Error(t, err)
	})

	t.Run("invalid log level", func(t *testing.T) {
		var out bytes.Buffer
		app := newApp(&out, h.provider)
		err := app.Run([]string{"aisearch", "--log-level", "loud", "status"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}
