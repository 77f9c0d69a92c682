package mock

import (
	"context"
	"strings"
	"sync/atomic"
)

// MockSummarizer is a test double for ai.Summarizer.
type MockSummarizer struct {
	// SummarizeFunc is called by Summarize if set.
	// If nil, the first maxWords words of the text are returned.
	SummarizeFunc func(ctx context.Context, text string, minWords, maxWords int) (string, error)

	callCount atomic.Int64
}

// NewMockSummarizer creates a summarizer that truncates its input.
func NewMockSummarizer() *MockSummarizer {
	return &MockSummarizer{}
}

func (m *MockSummarizer) Summarize(ctx context.Context, text string, minWords, maxWords int) (string, error) {
	m.callCount.Add(1)

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, text, minWords, maxWords)
	}

	words := strings.Fields(text)
	if maxWords > 0 && len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " "), nil
}

// CallCount returns the number of Summarize calls.
func (m *MockSummarizer) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call counter and injected behavior.
func (m *MockSummarizer) Reset() {
	m.callCount.Store(0)
	m.SummarizeFunc = nil
}
