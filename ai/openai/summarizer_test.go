package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/poiesic/aisearch/ai"
)

// cannedModel answers every request with the same content.
type cannedModel struct {
	content string
	calls   int
}

func (m *cannedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.content}}}, nil
}

func (m *cannedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return m.content, nil
}

func newTestSummarizer(content string, logs *bytes.Buffer) (*Summarizer, *cannedModel) {
	model := &cannedModel{content: content}
	handler := slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &Summarizer{client: model, logger: slog.New(handler)}, model
}

func TestSummarizer_Summarize(t *testing.T) {
	t.Run("logs the word count of the summary", func(t *testing.T) {
		var logs bytes.Buffer
		s, _ := newTestSummarizer("```json\n{\"summary\": \"A whale hunt ends badly.\"}\n```", &logs)

		summary, err := s.Summarize(context.Background(), "Call me Ishmael.", 3, 10)
		require.NoError(t, err)
		assert.Equal(t, "A whale hunt ends badly.", summary)

		var entry map[string]any
		for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
			require.NoError(t, json.Unmarshal([]byte(line), &entry))
			if entry["msg"] == "generated summary" {
				break
			}
		}
		assert.Equal(t, "generated summary", entry["msg"])
		assert.Equal(t, float64(5), entry["words"])
		assert.Equal(t, float64(len("Call me Ishmael.")), entry["input_length"])
	})

	t.Run("cuts long summaries to max words", func(t *testing.T) {
		var logs bytes.Buffer
		s, _ := newTestSummarizer(`{"summary": "one two three four five six"}`, &logs)

		summary, err := s.Summarize(context.Background(), "text", 1, 4)
		require.NoError(t, err)
		assert.Equal(t, "one two three four", summary)
	})

	t.Run("empty summary", func(t *testing.T) {
		var logs bytes.Buffer
		s, _ := newTestSummarizer(`{"summary": "   "}`, &logs)

		_, err := s.Summarize(context.Background(), "text", 1, 4)
		assert.ErrorIs(t, err, ai.ErrEmptySummary)
	})

	t.Run("unparseable responses are retried", func(t *testing.T) {
		var logs bytes.Buffer
		s, model := newTestSummarizer("not json at all", &logs)

		_, err := s.Summarize(context.Background(), "text", 1, 4)
		assert.Error(t, err)
		assert.Equal(t, maxParseAttempts, model.calls)
	})
}
