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
	"fmt"
	"regexp"
	"strings"
)

// Attribute tags recognized by the default lexicon.
const (
	AttrFemaleProtagonist = "female_protagonist"
	AttrMaleProtagonist   = "male_protagonist"
	AttrFemaleAuthor      = "female_author"
	AttrRomance           = "romance"
	AttrAdventure         = "adventure"
	AttrTragedy           = "tragedy"
	AttrSocialInjustice   = "social_injustice"
	AttrWar               = "war"
	AttrVictorianEra      = "victorian_era"
)

// AttributeRule maps a set of phrases to one attribute tag.
type AttributeRule struct {
	Tag      string
	Phrases  []string // regular expressions, matched on word boundaries
	Subjects []string // search terms contributed when the rule matches
	patterns []*regexp.Regexp
}

// Synonym lists the extra search terms added for a token.
type Synonym struct {
	Token string
	Terms []string
}

// Lexicon is the closed vocabulary the parser understands.
type Lexicon struct {
	Attributes    []AttributeRule
	Synonyms      []Synonym
	StopWords     map[string]bool
	ResultNouns   map[string]bool
	CountPhrases  []string // matched only at the start, after Fillers
	ListPhrases   []string // matched only at the start, after Fillers
	Fillers       []string // politeness allowed before an opening phrase
	Instructions  []string // stripped only when they open the query
	LeadingVerbs  []string // stripped only when they open the query
	LimitGap      int      // words allowed between a number and its result noun
	synonymLookup map[string][]string
}

// DefaultLexicon returns the built-in English lexicon.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Attributes: []AttributeRule{
			{
				Tag:      AttrFemaleProtagonist,
				Phrases:  []string{`female protagonists?`, `wom[ae]n protagonists?`, `female main characters?`, `heroines?`, `strong female characters?`},
				Subjects: []string{"female", "women", "protagonist"},
			},
			{
				Tag:      AttrMaleProtagonist,
				Phrases:  []string{`male protagonists?`, `male main characters?`, `hero(es)?`},
				Subjects: []string{"male", "protagonist"},
			},
			{
				Tag:      AttrFemaleAuthor,
				Phrases:  []string{`by (a )?wom[ae]n`, `female authors?`, `wom[ae]n writers?`},
				Subjects: []string{"women", "female"},
			},
			{
				Tag:      AttrRomance,
				Phrases:  []string{`love stor(y|ies)`, `romance`, `romantic`},
				Subjects: []string{"love", "romance"},
			},
			{
				Tag:      AttrAdventure,
				Phrases:  []string{`adventures?`, `quests?`},
				Subjects: []string{"adventure"},
			},
			{
				Tag:      AttrTragedy,
				Phrases:  []string{`tragic`, `tragedy`, `tragedies`},
				Subjects: []string{"tragedy", "tragic"},
			},
			{
				Tag:      AttrSocialInjustice,
				Phrases:  []string{`social injustice`, `inequality`, `oppression`},
				Subjects: []string{"social", "injustice"},
			},
			{
				Tag:      AttrWar,
				Phrases:  []string{`about war`, `war stories`, `warfare`},
				Subjects: []string{"war"},
			},
			{
				Tag:      AttrVictorianEra,
				Phrases:  []string{`victorian`, `19th century`, `nineteenth century`},
				Subjects: []string{"victorian", "19th"},
			},
		},
		Synonyms: []Synonym{
			{Token: "female", Terms: []string{"women"}},
			{Token: "women", Terms: []string{"female"}},
			{Token: "woman", Terms: []string{"women", "female"}},
			{Token: "male", Terms: []string{"men"}},
			{Token: "men", Terms: []string{"male"}},
			{Token: "protagonists", Terms: []string{"protagonist"}},
			{Token: "heroine", Terms: []string{"female", "protagonist"}},
			{Token: "heroines", Terms: []string{"heroine", "female", "protagonist"}},
			{Token: "tragic", Terms: []string{"tragedy"}},
			{Token: "tragedy", Terms: []string{"tragic"}},
			{Token: "novels", Terms: []string{"novel"}},
			{Token: "books", Terms: []string{"book"}},
			{Token: "stories", Terms: []string{"story"}},
			{Token: "romantic", Terms: []string{"romance", "love"}},
			{Token: "love", Terms: []string{"romance"}},
			{Token: "war", Terms: []string{"warfare"}},
			{Token: "injustice", Terms: []string{"inequality"}},
			{Token: "victorian", Terms: []string{"19th"}},
		},
		StopWords: map[string]bool{
			"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
			"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
			"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
			"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
			"by": true, "from": true, "me": true, "there": true, "some": true, "any": true,
			"about": true, "what": true, "which": true, "i": true, "want": true,
		},
		ResultNouns: map[string]bool{
			"book": true, "books": true, "novel": true, "novels": true,
			"result": true, "results": true, "record": true, "records": true,
			"story": true, "stories": true, "text": true, "texts": true,
			"work": true, "works": true,
		},
		CountPhrases: []string{"how many", "count", "number of"},
		ListPhrases:  []string{"list all", "show all"},
		Fillers:      []string{"please", "can you", "could you", "would you", "tell me", "i want to know", "i'd like to know"},
		Instructions: []string{
			"how many", "number of", "list all", "show all", "show me", "find me",
			"get me", "give me", "tell me", "search for",
		},
		LeadingVerbs: []string{"count", "list", "find", "show", "get", "give", "search"},
		LimitGap:     3,
	}
}

// compile prepares regular expressions and lookup tables.
func (l *Lexicon) compile() error {
	for i := range l.Attributes {
		rule := &l.Attributes[i]
		rule.patterns = make([]*regexp.Regexp, 0, len(rule.Phrases))
		for _, phrase := range rule.Phrases {
			re, err := regexp.Compile(`\b(?:` + phrase + `)\b`)
			if err != nil {
				return fmt.Errorf("attribute %s: %w", rule.Tag, err)
			}
			rule.patterns = append(rule.patterns, re)
		}
	}
	l.synonymLookup = make(map[string][]string, len(l.Synonyms))
	for _, s := range l.Synonyms {
		l.synonymLookup[s.Token] = append(l.synonymLookup[s.Token], s.Terms...)
	}
	if l.StopWords == nil {
		l.StopWords = map[string]bool{}
	}
	if l.ResultNouns == nil {
		l.ResultNouns = map[string]bool{}
	}
	return nil
}

// matches reports whether any phrase of the rule occurs in text.
func (r *AttributeRule) matches(text string) bool {
	for _, re := range r.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func splitPhrases(phrases []string) [][]string {
	out := make([][]string, 0, len(phrases))
	for _, p := range phrases {
		if words := strings.Fields(p); len(words) > 0 {
			out = append(out, words)
		}
	}
	return out
}
