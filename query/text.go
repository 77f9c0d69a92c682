package query

import "strings"

// Terms splits text into words, lowercases, trims punctuation, and removes stop words
// of the default lexicon.
func Terms(text string) []string {
	return defaultParser.Terms(text)
}

// Terms splits text into filtered words using the parser's stop words.
func (p *Parser) Terms(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := cleanToken(word)
		if cleaned != "" && !p.lexicon.StopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// MatchRatio returns the fraction of terms that occur among the words of text.
// Zero terms yield zero.
func MatchRatio(text string, terms []string) float32 {
	if len(terms) == 0 {
		return 0
	}
	words := make(map[string]bool)
	for _, w := range strings.Fields(text) {
		if c := cleanToken(w); c != "" {
			words[c] = true
		}
	}
	hits := 0
	for _, t := range terms {
		if words[t] {
			hits++
		}
	}
	return float32(hits) / float32(len(terms))
}
