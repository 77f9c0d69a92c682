package ingestion

import (
	"fmt"
	"unicode"

	"github.com/poiesic/aisearch/core"
)

// Default chunking parameters.
const (
	DefaultWordsPerChunk = 200
	DefaultOverlap       = 20
)

// Chunker splits document text into overlapping word windows.
type Chunker struct {
	WordsPerChunk int
	Overlap       int
}

// NewChunker validates the parameters. overlap must be smaller than wordsPerChunk.
func NewChunker(wordsPerChunk, overlap int) (*Chunker, error) {
	if wordsPerChunk < 1 || overlap < 0 || overlap >= wordsPerChunk {
		return nil, fmt.Errorf("%w: %d words, %d overlap", ErrInvalidChunking, wordsPerChunk, overlap)
	}
	return &Chunker{WordsPerChunk: wordsPerChunk, Overlap: overlap}, nil
}

// DefaultChunker returns a chunker with 200-word windows overlapping by 20 words.
func DefaultChunker() *Chunker {
	return &Chunker{WordsPerChunk: DefaultWordsPerChunk, Overlap: DefaultOverlap}
}

type wordSpan struct {
	start, end int // rune offsets, end exclusive
	byteStart  int
	byteEnd    int
}

func scanWords(text string) []wordSpan {
	var (
		spans  []wordSpan
		inWord bool
		cur    wordSpan
		runeAt int
	)
	for byteAt, r := range text {
		if unicode.IsSpace(r) {
			if inWord {
				cur.end = runeAt
				cur.byteEnd = byteAt
				spans = append(spans, cur)
				inWord = false
			}
		} else if !inWord {
			cur = wordSpan{start: runeAt, byteStart: byteAt}
			inWord = true
		}
		runeAt++
	}
	if inWord {
		cur.end = runeAt
		cur.byteEnd = len(text)
		spans = append(spans, cur)
	}
	return spans
}

// window returns usable window parameters for a Chunker built without
// NewChunker: a non-positive size falls back to the default and the overlap
// is clamped so every window advances by at least one word.
func (c *Chunker) window() (size, overlap int) {
	size = c.WordsPerChunk
	if size < 1 {
		size = DefaultWordsPerChunk
	}
	overlap = min(max(c.Overlap, 0), size-1)
	return size, overlap
}

// Chunk splits text into passages of documentID. Character ranges are rune
// offsets into text, end exclusive. Whitespace-only text yields no passages.
func (c *Chunker) Chunk(documentID, text string) []*core.Passage {
	words := scanWords(text)
	if len(words) == 0 {
		return nil
	}

	size, overlap := c.window()
	step := size - overlap
	var windows [][2]int
	for start := 0; start < len(words); start += step {
		end := min(start+size, len(words))
		windows = append(windows, [2]int{start, end})
		if end == len(words) {
			break
		}
	}

	passages := make([]*core.Passage, len(windows))
	for i, w := range windows {
		first, last := words[w[0]], words[w[1]-1]
		passages[i] = &core.Passage{
			DocumentID: documentID,
			ChunkIndex: i,
			ChunkCount: len(windows),
			Text:       text[first.byteStart:last.byteEnd],
			WordCount:  w[1] - w[0],
			CharStart:  first.start,
			CharEnd:    last.end,
		}
	}
	return passages
}
