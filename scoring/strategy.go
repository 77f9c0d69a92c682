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

package scoring

import (
	"fmt"

	"github.com/poiesic/aisearch/core"
	"github.com/poiesic/aisearch/query"
)

// Strategy names accepted by FromConfig.
const (
	StrategyVectorBoost = "vector_boost"
	StrategyHybrid      = "hybrid"
)

// Defaults for the built-in strategies.
const (
	DefaultBoostFactor    float32 = 0.5
	DefaultSemanticWeight float32 = 0.7
	DefaultMetadataWeight float32 = 0.3
)

// Candidate is a document-level match with the signals a strategy may weigh.
type Candidate struct {
	DocumentID  string
	BookScore   float32
	BestPassage *float32 // nil when none of the document's passages matched
	Title       string
	SearchTerms []string
}

// Scored is a strategy's verdict for one candidate.
type Scored struct {
	Final float32
	Boost *float32 // nil when the strategy applied no passage boost
}

// Strategy combines the signals of a candidate into a final score.
type Strategy interface {
	Name() string
	Score(c Candidate) Scored
}

// CombineBoost is the passage boost primitive:
//
//	boost = max(0, bestPassage) * factor
//	final = min(1, book + boost)
//
// final is never below book and never above 1.
func CombineBoost(book, bestPassage, factor float32) (final, boost float32) {
	book = Clamp(book)
	if bestPassage > 0 && factor > 0 {
		boost = Clamp(bestPassage) * factor
	}
	final = book + boost
	if final > 1 {
		final = 1
	}
	if final < book {
		final = book
	}
	return final, boost
}

// VectorOnlyWithPassageBoost ranks by document similarity plus a capped boost
// from the best matching passage.
type VectorOnlyWithPassageBoost struct {
	BoostFactor float32
}

// NewVectorOnlyWithPassageBoost validates the factor, which must lie in (0, 1].
func NewVectorOnlyWithPassageBoost(factor float32) (*VectorOnlyWithPassageBoost, error) {
	if factor <= 0 || factor > 1 {
		return nil, fmt.Errorf("%w: boost factor %v outside (0, 1]", core.ErrConfiguration, factor)
	}
	return &VectorOnlyWithPassageBoost{BoostFactor: factor}, nil
}

func (s *VectorOnlyWithPassageBoost) Name() string {
	return StrategyVectorBoost
}

func (s *VectorOnlyWithPassageBoost) Score(c Candidate) Scored {
	if c.BestPassage == nil {
		return Scored{Final: c.BookScore}
	}
	final, boost := CombineBoost(c.BookScore, *c.BestPassage, s.BoostFactor)
	return Scored{Final: final, Boost: &boost}
}

// HybridWeighted blends document similarity with the share of search terms
// found in the title. Passages are reported but do not boost.
type HybridWeighted struct {
	SemanticWeight float32
	MetadataWeight float32
}

// NewHybridWeighted validates the weights: neither negative, not both zero.
func NewHybridWeighted(semantic, metadata float32) (*HybridWeighted, error) {
	if semantic < 0 || metadata < 0 || semantic+metadata == 0 {
		return nil, fmt.Errorf("%w: invalid hybrid weights %v/%v", core.ErrConfiguration, semantic, metadata)
	}
	return &HybridWeighted{SemanticWeight: semantic, MetadataWeight: metadata}, nil
}

func (s *HybridWeighted) Name() string {
	return StrategyHybrid
}

func (s *HybridWeighted) Score(c Candidate) Scored {
	metadata := query.MatchRatio(c.Title, c.SearchTerms)
	return Scored{Final: Clamp(s.SemanticWeight*c.BookScore + s.MetadataWeight*metadata)}
}

// FromConfig builds the strategy registered under name.
func FromConfig(name string, boostFactor, semanticWeight, metadataWeight float32) (Strategy, error) {
	switch name {
	case "", StrategyVectorBoost:
		return NewVectorOnlyWithPassageBoost(boostFactor)
	case StrategyHybrid:
		return NewHybridWeighted(semanticWeight, metadataWeight)
	default:
		return nil, fmt.Errorf("%w: unknown scoring strategy %q", core.ErrConfiguration, name)
	}
}
