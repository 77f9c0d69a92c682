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

package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/aisearch/core"
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
}

// Parser converts free text into a core.ParsedQuery. It is safe for concurrent use.
type Parser struct {
	lexicon      *Lexicon
	countRe      *regexp.Regexp
	listRe       *regexp.Regexp
	fillers      [][]string
	instructions [][]string
	leading      map[string]bool
}

// Option configures a Parser.
type Option func(*Parser) error

// WithLexicon replaces the built-in lexicon.
func WithLexicon(lexicon *Lexicon) Option {
	return func(p *Parser) error {
		if lexicon != nil {
			p.lexicon = lexicon
		}
		return nil
	}
}

// NewParser creates a parser over the default lexicon unless overridden.
func NewParser(opts ...Option) (*Parser, error) {
	p := &Parser{lexicon: DefaultLexicon()}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if err := p.lexicon.compile(); err != nil {
		return nil, err
	}
	p.countRe = phraseRegexp(p.lexicon.Fillers, p.lexicon.CountPhrases)
	p.listRe = phraseRegexp(p.lexicon.Fillers, p.lexicon.ListPhrases)
	p.fillers = splitPhrases(p.lexicon.Fillers)
	p.instructions = splitPhrases(p.lexicon.Instructions)
	p.leading = make(map[string]bool, len(p.lexicon.LeadingVerbs))
	for _, v := range p.lexicon.LeadingVerbs {
		p.leading[v] = true
	}
	return p, nil
}

var defaultParser *Parser

func init() {
	p, err := NewParser()
	if err != nil {
		panic(err)
	}
	defaultParser = p
}

// Parse interprets text with the default lexicon.
func Parse(text string) core.ParsedQuery {
	return defaultParser.Parse(text)
}

// Parse interprets text. It never fails: unrecognized input degrades to a
// plain search over the tokenized text.
func (p *Parser) Parse(text string) core.ParsedQuery {
	normalized := Normalize(text)
	words := strings.Fields(normalized)
	tokens := make([]string, len(words))
	for i, w := range words {
		tokens[i] = cleanToken(w)
	}

	parsed := core.ParsedQuery{
		Original:    text,
		Intent:      p.intent(normalized),
		Attributes:  []string{},
		SearchTerms: []string{},
	}

	// Indices of tokens consumed as instructions rather than content.
	consumed := make([]bool, len(tokens))
	prefixEnd, instructed := p.markPrefix(tokens, consumed)

	limit, limitAt, nounAt := p.limit(tokens)
	if limitAt < 0 && instructed && prefixEnd == len(tokens)-1 {
		// "get me 3": a bare number closing an instruction is the limit.
		if n := parseNumber(tokens[prefixEnd]); n > 0 {
			limit, limitAt = n, prefixEnd
		}
	}
	parsed.Limit = limit
	if limitAt >= 0 {
		consumed[limitAt] = true
	}

	for i := range p.lexicon.Attributes {
		rule := &p.lexicon.Attributes[i]
		if rule.matches(normalized) {
			parsed.Attributes = append(parsed.Attributes, rule.Tag)
		}
	}

	parsed.SearchTerms = p.searchTerms(tokens, consumed, nounAt, parsed.Attributes)
	parsed.SemanticQuery = semanticQuery(words, consumed, normalized, limitAt >= 0)
	return parsed
}

func (p *Parser) intent(normalized string) core.Intent {
	switch {
	case p.countRe != nil && p.countRe.MatchString(normalized):
		return core.IntentCount
	case p.listRe != nil && p.listRe.MatchString(normalized):
		return core.IntentList
	default:
		return core.IntentSearch
	}
}

// limit returns the first number followed by a result noun, allowing up to
// LimitGap descriptive words in between ("3 tragic novels"). It returns the
// value, the index of the number and the index of the noun, or -1 for both.
func (p *Parser) limit(tokens []string) (int, int, int) {
	for i := range tokens {
		n := parseNumber(tokens[i])
		if n <= 0 {
			continue
		}
		for j := i + 1; j < len(tokens) && j <= i+1+p.lexicon.LimitGap; j++ {
			tok := tokens[j]
			if p.lexicon.ResultNouns[tok] {
				return n, i, j
			}
			if tok == "" || p.lexicon.StopWords[tok] || parseNumber(tok) > 0 {
				break
			}
		}
	}
	return 0, -1, -1
}

// markPrefix consumes the fillers and instruction phrases that open the
// query, followed by at most one command verb. It returns the index of the
// first unconsumed token and whether an instruction was seen.
func (p *Parser) markPrefix(tokens []string, consumed []bool) (int, bool) {
	pos, instructed := 0, false
	consume := func(n int) {
		for j := 0; j < n; j++ {
			consumed[pos+j] = true
		}
		pos += n
	}
	for pos < len(tokens) {
		if phrase := longestAt(tokens, pos, p.instructions); phrase > 0 {
			consume(phrase)
			instructed = true
			continue
		}
		if phrase := longestAt(tokens, pos, p.fillers); phrase > 0 {
			consume(phrase)
			continue
		}
		break
	}
	// A bare command verb needs something after it to act on.
	if !instructed && pos+1 < len(tokens) && p.leading[tokens[pos]] {
		consume(1)
		instructed = true
	}
	return pos, instructed
}

func (p *Parser) searchTerms(tokens []string, consumed []bool, nounAt int, attributes []string) []string {
	seen := make(map[string]bool)
	terms := make([]string, 0, len(tokens))
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}

	kept := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		// The noun of a limit phrase belongs to the instruction.
		if consumed[i] || i == nounAt || tok == "" || p.lexicon.StopWords[tok] {
			continue
		}
		kept = append(kept, tok)
	}

	for _, tok := range kept {
		add(tok)
	}
	for _, tok := range kept {
		for _, syn := range p.lexicon.synonymLookup[tok] {
			add(syn)
		}
	}
	for _, tag := range attributes {
		for i := range p.lexicon.Attributes {
			if p.lexicon.Attributes[i].Tag == tag {
				for _, s := range p.lexicon.Attributes[i].Subjects {
					add(s)
				}
			}
		}
	}
	return terms
}

// semanticQuery keeps content words verbatim and drops instruction tokens.
// A query that is nothing but an instruction with a limit has no content.
func semanticQuery(words []string, consumed []bool, normalized string, hasLimit bool) string {
	kept := make([]string, 0, len(words))
	for i, w := range words {
		if !consumed[i] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		if hasLimit {
			return ""
		}
		return normalized
	}
	return strings.Join(kept, " ")
}

// Normalize lower-cases text, trims it and collapses internal whitespace.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func cleanToken(word string) string {
	return strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
}

func parseNumber(tok string) int {
	if n, ok := numberWords[tok]; ok {
		return n
	}
	if !isDigits(tok) {
		return 0
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0
	}
	return n
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// longestAt returns the length of the longest phrase starting at tokens[at].
func longestAt(tokens []string, at int, phrases [][]string) int {
	best := 0
	for _, phrase := range phrases {
		if len(phrase) > best && hasPhraseAt(tokens, at, phrase) {
			best = len(phrase)
		}
	}
	return best
}

func hasPhraseAt(tokens []string, at int, phrase []string) bool {
	if at+len(phrase) > len(tokens) {
		return false
	}
	for j, w := range phrase {
		if tokens[at+j] != w {
			return false
		}
	}
	return true
}

// phraseRegexp matches phrases at the start of the text, optionally preceded
// by any run of fillers.
func phraseRegexp(fillers, phrases []string) *regexp.Regexp {
	if len(phrases) == 0 {
		return nil
	}
	lead := ""
	if len(fillers) > 0 {
		lead = `(?:(?:` + quoteAll(fillers) + `)\s+)*`
	}
	return regexp.MustCompile(`^` + lead + `(?:` + quoteAll(phrases) + `)\b`)
}

func quoteAll(phrases []string) string {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(quoted, "|")
}
