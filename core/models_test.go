package core

import (
	"testing"
)

func TestFingerprintOf(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "same content produces same fingerprint", content: "test content"},
		{name: "empty string", content: ""},
		{name: "long content", content: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f1 := FingerprintOf(tt.content)
			f2 := FingerprintOf(tt.content)
			if f1 != f2 {
				t.Errorf("FingerprintOf() produced different values for same content: %d vs %d", f1, f2)
			}
		})
	}
}

func TestFingerprintOf_Different(t *testing.T) {
	if FingerprintOf("content1") == FingerprintOf("content2") {
		t.Errorf("FingerprintOf() produced same value for different content")
	}
}

func TestFingerprint_String(t *testing.T) {
	if got := Fingerprint(0xab).String(); got != "00000000000000ab" {
		t.Errorf("String() = %q", got)
	}
}

func TestPassageID(t *testing.T) {
	p := &Passage{DocumentID: "abc-123", ChunkIndex: 4}
	if got := p.ID(); got != "abc-123#4" {
		t.Errorf("ID() = %q, want %q", got, "abc-123#4")
	}
}

func TestGranularity_String(t *testing.T) {
	tests := []struct {
		g    Granularity
		want string
	}{
		{GranularityDocument, "document"},
		{GranularityPassage, "passage"},
		{Granularity(0), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.g.String(); got != tt.want {
			t.Errorf("Granularity(%d).String() = %q, want %q", tt.g, got, tt.want)
		}
	}
}

func TestScoredResult_Title(t *testing.T) {
	r := ScoredResult{DocumentID: "doc-1"}
	if got := r.Title(); got != "doc-1" {
		t.Errorf("Title() without metadata = %q", got)
	}
	r.Metadata = &Metadata{Title: "Middlemarch"}
	if got := r.Title(); got != "Middlemarch" {
		t.Errorf("Title() = %q", got)
	}
}

func TestNewPassageMatch(t *testing.T) {
	p := &Passage{
		DocumentID: "d",
		ChunkIndex: 1,
		ChunkCount: 3,
		Text:       "hello",
		WordCount:  1,
		CharStart:  10,
		CharEnd:    15,
		Vector:     []float32{1, 2},
	}
	m := NewPassageMatch(p, 0.5)
	if m.DocumentID != "d" || m.ChunkIndex != 1 || m.ChunkCount != 3 || m.Score != 0.5 {
		t.Errorf("unexpected match: %+v", m)
	}
	if m.CharStart != 10 || m.CharEnd != 15 || m.Text != "hello" || m.WordCount != 1 {
		t.Errorf("unexpected passage fields: %+v", m)
	}
}
