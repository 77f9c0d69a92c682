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

package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Fingerprint is a deterministic 64-bit digest of text content.
type Fingerprint uint64

// FingerprintOf hashes text with BLAKE2b so identical content yields identical keys.
func FingerprintOf(text string) Fingerprint {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}

// String renders the fingerprint as fixed-width hex.
func (f Fingerprint) String() string {
	s := strconv.FormatUint(uint64(f), 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return s
}

// Metadata is the descriptive record attached to a Document.
type Metadata struct {
	Title           string   `json:"title"`
	Creators        []string `json:"creators,omitempty"`
	Description     string   `json:"description,omitempty"`
	PublicationDate string   `json:"publication_date,omitempty"`
	ResourceType    string   `json:"resource_type,omitempty"`
	License         string   `json:"license,omitempty"`
	AccessStatus    string   `json:"access_status,omitempty"`
}

// Document is an indexed record with one document-level embedding.
// Documents own their Passages.
type Document struct {
	ID        string
	Metadata  Metadata
	Vector    []float32
	IndexedAt time.Time
}

// Passage is a contiguous span of a Document's text with its own embedding.
type Passage struct {
	DocumentID string
	ChunkIndex int // 0-based, always < ChunkCount
	ChunkCount int
	Text       string
	WordCount  int
	CharStart  int
	CharEnd    int
	Vector     []float32
}

// ID returns the stable identifier of the passage within the index.
func (p *Passage) ID() string {
	return PassageID(p.DocumentID, p.ChunkIndex)
}

// PassageID builds the identifier of chunk index of the given document.
func PassageID(documentID string, chunkIndex int) string {
	return documentID + "#" + strconv.Itoa(chunkIndex)
}

// Granularity selects which family of vectors a nearest-neighbor query runs against.
type Granularity int

const (
	// GranularityDocument queries document-level vectors.
	GranularityDocument Granularity = iota + 1
	// GranularityPassage queries passage-level vectors.
	GranularityPassage
)

func (g Granularity) String() string {
	switch g {
	case GranularityDocument:
		return "document"
	case GranularityPassage:
		return "passage"
	default:
		return "unknown"
	}
}

// Hit is one nearest-neighbor match returned by a vector index.
// Passage is set only for passage-granularity queries.
type Hit struct {
	DocumentID string
	Score      float32
	Passage    *Passage
}

// Intent is the action a query asks for.
type Intent string

const (
	IntentSearch Intent = "search"
	IntentCount  Intent = "count"
	IntentList   Intent = "list"
)

// ParsedQuery is the structured interpretation of a free-text query.
type ParsedQuery struct {
	Original      string   `json:"original_query"`
	Intent        Intent   `json:"intent"`
	Limit         int      `json:"limit,omitempty"` // 0 when the query names no limit
	Attributes    []string `json:"attributes"`
	SearchTerms   []string `json:"search_terms"`
	SemanticQuery string   `json:"semantic_query"`
}

// HasLimit reports whether the query carried an explicit result limit.
func (q ParsedQuery) HasLimit() bool {
	return q.Limit > 0
}

// PassageMatch is a matched passage with its own similarity score.
type PassageMatch struct {
	DocumentID string  `json:"record_id"`
	ChunkIndex int     `json:"chunk_index"`
	ChunkCount int     `json:"chunk_count"`
	Text       string  `json:"text"`
	WordCount  int     `json:"word_count"`
	CharStart  int     `json:"char_start"`
	CharEnd    int     `json:"char_end"`
	Score      float32 `json:"similarity_score"`
	Title      string  `json:"title,omitempty"`
}

// NewPassageMatch builds a match from an indexed passage, dropping its vector.
func NewPassageMatch(p *Passage, score float32) PassageMatch {
	return PassageMatch{
		DocumentID: p.DocumentID,
		ChunkIndex: p.ChunkIndex,
		ChunkCount: p.ChunkCount,
		Text:       p.Text,
		WordCount:  p.WordCount,
		CharStart:  p.CharStart,
		CharEnd:    p.CharEnd,
		Score:      score,
	}
}

// ScoredResult is one ranked document in a search response.
type ScoredResult struct {
	DocumentID   string         `json:"record_id"`
	Metadata     *Metadata      `json:"metadata,omitempty"` // nil when metadata was unavailable
	BookScore    float32        `json:"book_score"`
	PassageBoost *float32       `json:"passage_boost,omitempty"` // nil when no passage contributed
	Passages     []PassageMatch `json:"passages,omitempty"`
	FinalScore   float32        `json:"final_score"`
	Summary      string         `json:"summary,omitempty"`
}

// Title returns the document title, or the document id when metadata is missing.
func (r *ScoredResult) Title() string {
	if r.Metadata != nil && r.Metadata.Title != "" {
		return r.Metadata.Title
	}
	return r.DocumentID
}

// SimilarResult is a neighbor of a source document.
type SimilarResult struct {
	DocumentID string    `json:"record_id"`
	Metadata   *Metadata `json:"metadata,omitempty"`
	Score      float32   `json:"similarity_score"`
}

// SearchResponse is the output of a ranked search.
type SearchResponse struct {
	Query      string         `json:"query"`
	Parsed     ParsedQuery    `json:"parsed"`
	Results    []ScoredResult `json:"results"`
	Unattached []PassageMatch `json:"unattached_passages"`
	Total      int            `json:"total"`
}

// PassageResponse is the output of a passage-only search.
type PassageResponse struct {
	Query    string         `json:"query"`
	Passages []PassageMatch `json:"passages"`
	Total    int            `json:"total"`
}

// SimilarResponse is the output of a similar-documents lookup.
type SimilarResponse struct {
	SourceID       string          `json:"record_id"`
	SourceTitle    string          `json:"source_title,omitempty"`
	SourceCreators []string        `json:"source_creators,omitempty"`
	Similar        []SimilarResult `json:"similar"`
	Total          int             `json:"total"`
}

// Status describes engine health.
type Status struct {
	Status        string `json:"status"`
	ProviderReady bool   `json:"model_loaded"`
	Backend       string `json:"backend"`
	Documents     int    `json:"documents"`
	Passages      int    `json:"passages"`
	Error         string `json:"error,omitempty"`
}

const (
	StatusReady = "ready"
	StatusError = "error"
)
