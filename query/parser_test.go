package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/aisearch/core"
)

func TestParse_Scenarios(t *testing.T) {
	t.Run("count intent with tragedy attribute", func(t *testing.T) {
		q := Parse("how many tragic novels")
		assert.Equal(t, core.IntentCount, q.Intent)
		assert.Contains(t, q.Attributes, AttrTragedy)
		assert.False(t, q.HasLimit())
	})

	t.Run("limit with female protagonist", func(t *testing.T) {
		q := Parse("get me 3 books with female protagonists")
		assert.Equal(t, core.IntentSearch, q.Intent)
		assert.Equal(t, 3, q.Limit)
		assert.Equal(t, []string{AttrFemaleProtagonist}, q.Attributes)
		assert.Contains(t, q.SearchTerms, "female")
		assert.Contains(t, q.SearchTerms, "protagonist")
		assert.Contains(t, q.SearchTerms, "women")
		assert.Equal(t, "books with female protagonists", q.SemanticQuery)
	})

	t.Run("list intent", func(t *testing.T) {
		q := Parse("List all Victorian novels")
		assert.Equal(t, core.IntentList, q.Intent)
		assert.Equal(t, []string{AttrVictorianEra}, q.Attributes)
		assert.Equal(t, "victorian novels", q.SemanticQuery)
	})

	t.Run("count phrase later in the query does not change intent", func(t *testing.T) {
		q := Parse("show all books and count them")
		assert.Equal(t, core.IntentList, q.Intent)
		assert.Equal(t, "books and count them", q.SemanticQuery)
	})

	t.Run("leading filler before an intent phrase", func(t *testing.T) {
		q := Parse("Please tell me how many Victorian novels")
		assert.Equal(t, core.IntentCount, q.Intent)
		assert.Equal(t, "victorian novels", q.SemanticQuery)

		q = Parse("could you list all tragic novels")
		assert.Equal(t, core.IntentList, q.Intent)
		assert.Equal(t, "tragic novels", q.SemanticQuery)
	})

	t.Run("adjectives between number and noun", func(t *testing.T) {
		q := Parse("get me 3 tragic novels")
		assert.Equal(t, 3, q.Limit)
		assert.Equal(t, []string{AttrTragedy}, q.Attributes)
		assert.Equal(t, "tragic novels", q.SemanticQuery)
		assert.Contains(t, q.SearchTerms, "tragic")
		assert.NotContains(t, q.SearchTerms, "3")
		assert.NotContains(t, q.SearchTerms, "novels")
	})

	t.Run("too many words between number and noun", func(t *testing.T) {
		q := Parse("3 long dark cold wet novels")
		assert.False(t, q.HasLimit())
	})

	t.Run("stop word breaks a limit phrase", func(t *testing.T) {
		q := Parse("set in 1850 and other novels")
		assert.False(t, q.HasLimit())
	})

	t.Run("bare number after an instruction", func(t *testing.T) {
		q := Parse("get me 3")
		assert.Equal(t, core.IntentSearch, q.Intent)
		assert.Equal(t, 3, q.Limit)
		assert.Equal(t, "", q.SemanticQuery)
		assert.Empty(t, q.SearchTerms)

		q = Parse("give me five")
		assert.Equal(t, 5, q.Limit)
		assert.Equal(t, "", q.SemanticQuery)
	})

	t.Run("bare number without an instruction is content", func(t *testing.T) {
		q := Parse("catch 22")
		assert.False(t, q.HasLimit())
		assert.Equal(t, "catch 22", q.SemanticQuery)
	})

	t.Run("show me is a search", func(t *testing.T) {
		q := Parse("show me adventure stories")
		assert.Equal(t, core.IntentSearch, q.Intent)
		assert.Equal(t, []string{AttrAdventure}, q.Attributes)
		assert.Equal(t, "adventure stories", q.SemanticQuery)
	})

	t.Run("number word limit", func(t *testing.T) {
		q := Parse("find twelve novels by women")
		assert.Equal(t, 12, q.Limit)
		assert.Equal(t, []string{AttrFemaleAuthor}, q.Attributes)
		assert.Equal(t, "novels by women", q.SemanticQuery)
	})

	t.Run("first limit in reading order wins", func(t *testing.T) {
		q := Parse("5 books or 7 stories")
		assert.Equal(t, 5, q.Limit)
	})

	t.Run("number without result noun is not a limit", func(t *testing.T) {
		q := Parse("novels set in 1850")
		assert.False(t, q.HasLimit())
		assert.Contains(t, q.SearchTerms, "1850")
	})

	t.Run("zero is not a limit", func(t *testing.T) {
		q := Parse("0 books about war")
		assert.False(t, q.HasLimit())
	})
}

func TestParse_IntentPhrasesOnlyWhenLeading(t *testing.T) {
	tests := []string{
		"the count of monte cristo",
		"novels where a hero must count the cost",
		"a number of tragic novels about sailors",
		"stories that show all sides of war",
		"what to do when you list all your sins",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			q := Parse(in)
			assert.Equal(t, core.IntentSearch, q.Intent)
			assert.Equal(t, in, q.SemanticQuery)
			assert.False(t, q.HasLimit())
		})
	}
}

func TestParser_CountBeforeList(t *testing.T) {
	lex := DefaultLexicon()
	lex.ListPhrases = append(lex.ListPhrases, "how many")
	p, err := NewParser(WithLexicon(lex))
	require.NoError(t, err)
	assert.Equal(t, core.IntentCount, p.Parse("how many sea stories").Intent)
}

func TestParse_Total(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"!!!???",
		"\x00\xff garbage ☃☃☃",
		"-- [] {} ()",
		"the the the",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			q := Parse(in)
			assert.Equal(t, core.IntentSearch, q.Intent)
			assert.Equal(t, in, q.Original)
			assert.NotNil(t, q.Attributes)
			assert.NotNil(t, q.SearchTerms)
			assert.False(t, q.HasLimit())
		})
	}
}

func TestParse_EmptyInput(t *testing.T) {
	q := Parse("")
	assert.Equal(t, "", q.SemanticQuery)
	assert.Empty(t, q.SearchTerms)
	assert.Empty(t, q.Attributes)
}

func TestParse_Attributes(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"a heroine in trouble", []string{AttrFemaleProtagonist}},
		{"stories with a hero", []string{AttrMaleProtagonist}},
		{"female protagonist", []string{AttrFemaleProtagonist}},
		{"tragic love stories", []string{AttrRomance, AttrTragedy}},
		{"books about social injustice and inequality", []string{AttrSocialInjustice}},
		{"19th century warfare", []string{AttrWar, AttrVictorianEra}},
		{"books by a woman", []string{AttrFemaleAuthor}},
		{"cookbooks", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.query).Attributes)
		})
	}
}

func TestParse_SearchTermsOrder(t *testing.T) {
	q := Parse("tragic female heroes")
	require.GreaterOrEqual(t, len(q.SearchTerms), 3)
	// Filtered tokens first, in reading order.
	assert.Equal(t, []string{"tragic", "female", "heroes"}, q.SearchTerms[:3])

	seen := map[string]bool{}
	for _, term := range q.SearchTerms {
		assert.False(t, seen[term], "duplicate term %q", term)
		seen[term] = true
	}
	assert.True(t, seen["tragedy"])
	assert.True(t, seen["women"])
}

func TestParse_StopWordsRemoved(t *testing.T) {
	q := Parse("what is the meaning of the white whale")
	assert.Equal(t, []string{"meaning", "white", "whale"}, q.SearchTerms)
}

func TestNewParser_CustomLexicon(t *testing.T) {
	lex := DefaultLexicon()
	lex.Attributes = append(lex.Attributes, AttributeRule{
		Tag:      "gothic",
		Phrases:  []string{`gothic`, `haunted`},
		Subjects: []string{"gothic"},
	})
	p, err := NewParser(WithLexicon(lex))
	require.NoError(t, err)

	q := p.Parse("haunted houses")
	assert.Equal(t, []string{"gothic"}, q.Attributes)
}

func TestNewParser_InvalidPattern(t *testing.T) {
	lex := DefaultLexicon()
	lex.Attributes = []AttributeRule{{Tag: "broken", Phrases: []string{`(`}}}
	_, err := NewParser(WithLexicon(lex))
	assert.Error(t, err)
}

func TestTermsAndMatchRatio(t *testing.T) {
	assert.Equal(t, []string{"pride", "prejudice"}, Terms("Pride and Prejudice"))
	assert.InDelta(t, 0.5, MatchRatio("Pride and Prejudice", []string{"pride", "war"}), 1e-6)
	assert.Equal(t, float32(0), MatchRatio("anything", nil))
}
