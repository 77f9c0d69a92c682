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

// Package config loads engine settings from YAML and the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/aisearch/core"
	"github.com/poiesic/aisearch/scoring"
)

// Index backends.
const (
	BackendBadger  = "badger"
	BackendQdrant  = "qdrant"
	BackendChromem = "chromem"
)

// Config is the full engine configuration.
type Config struct {
	AI     AI     `koanf:"ai"`
	Index  Index  `koanf:"index"`
	Search Search `koanf:"search"`
	Ingest Ingest `koanf:"ingest"`
	Log    Log    `koanf:"log"`
}

// AI configures the embedding and summarization services.
type AI struct {
	// Host sets both service hosts when the specific ones are empty.
	Host            string        `koanf:"host"`
	EmbeddingHost   string        `koanf:"embedding_host"`
	SummarizerHost  string        `koanf:"summarizer_host"`
	EmbeddingModel  string        `koanf:"embedding_model"`
	SummarizerModel string        `koanf:"summarizer_model"`
	Token           string        `koanf:"token"`
	Timeout         time.Duration `koanf:"timeout"`
}

// Index selects and configures the vector index backend.
type Index struct {
	Backend  string `koanf:"backend"`
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
	Compress bool   `koanf:"compress"`
	Qdrant   Qdrant `koanf:"qdrant"`
}

// Qdrant holds connection settings for the qdrant backend.
type Qdrant struct {
	Host             string `koanf:"host"`
	Port             int    `koanf:"port"`
	TLS              bool   `koanf:"tls"`
	APIKey           string `koanf:"api_key"`
	CollectionPrefix string `koanf:"collection_prefix"`
}

// Search configures ranking, limits and summaries.
type Search struct {
	Strategy          string  `koanf:"strategy"`
	BoostFactor       float32 `koanf:"boost_factor"`
	SemanticWeight    float32 `koanf:"semantic_weight"`
	MetadataWeight    float32 `koanf:"metadata_weight"`
	DefaultLimit      int     `koanf:"default_limit"`
	MaxLimit          int     `koanf:"max_limit"`
	OverFetch         int     `koanf:"over_fetch"`
	PassageCandidates int     `koanf:"passage_candidates"`
	Summaries         bool    `koanf:"summaries"`
	SummaryThreshold  int     `koanf:"summary_threshold"`
	SummaryMinWords   int     `koanf:"summary_min_words"`
	SummaryMaxWords   int     `koanf:"summary_max_words"`
	SummaryWorkers    int     `koanf:"summary_workers"`
}

// Ingest configures chunking and embedding during indexing.
type Ingest struct {
	WordsPerChunk int `koanf:"words_per_chunk"`
	Overlap       int `koanf:"overlap"`
	BatchSize     int `koanf:"batch_size"`
	Workers       int `koanf:"workers"`
}

// Log configures the process logger.
type Log struct {
	Level string `koanf:"level"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		AI: AI{
			Host:            "http://localhost:11434/v1",
			EmbeddingModel:  "embeddinggemma",
			SummarizerModel: "qwen2.5:3b",
			Token:           "none",
			Timeout:         30 * time.Second,
		},
		Index: Index{
			Backend: BackendBadger,
			Path:    "aisearch.db",
			Qdrant: Qdrant{
				Host:             "localhost",
				Port:             6334,
				CollectionPrefix: "aisearch",
			},
		},
		Search: Search{
			Strategy:          scoring.StrategyVectorBoost,
			BoostFactor:       scoring.DefaultBoostFactor,
			SemanticWeight:    scoring.DefaultSemanticWeight,
			MetadataWeight:    scoring.DefaultMetadataWeight,
			DefaultLimit:      10,
			MaxLimit:          100,
			OverFetch:         3,
			PassageCandidates: 20,
			Summaries:         true,
			SummaryThreshold:  500,
			SummaryMinWords:   50,
			SummaryMaxWords:   150,
			SummaryWorkers:    4,
		},
		Ingest: Ingest{
			WordsPerChunk: 200,
			Overlap:       20,
			BatchSize:     32,
			Workers:       2,
		},
		Log: Log{Level: "info"},
	}
}

// ResolvedEmbeddingHost returns the embedding host, falling back to Host.
func (a AI) ResolvedEmbeddingHost() string {
	if a.EmbeddingHost != "" {
		return a.EmbeddingHost
	}
	return a.Host
}

// ResolvedSummarizerHost returns the summarizer host, falling back to Host.
func (a AI) ResolvedSummarizerHost() string {
	if a.SummarizerHost != "" {
		return a.SummarizerHost
	}
	return a.Host
}

// SlogLevel maps Log.Level to a slog level.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log level %q", core.ErrConfiguration, l.Level)
	}
	return level, nil
}

// Validate checks the configuration for values no component accepts.
func (c *Config) Validate() error {
	if c.AI.ResolvedEmbeddingHost() == "" {
		return configError("ai.embedding_host is required")
	}
	if c.AI.EmbeddingModel == "" {
		return configError("ai.embedding_model is required")
	}
	if c.AI.Timeout < 0 {
		return configError("ai.timeout must not be negative")
	}

	switch strings.ToLower(c.Index.Backend) {
	case BackendBadger:
		if c.Index.Path == "" && !c.Index.InMemory {
			return configError("index.path is required for the badger backend")
		}
	case BackendQdrant:
		if c.Index.Qdrant.Host == "" {
			return configError("index.qdrant.host is required")
		}
		if c.Index.Qdrant.Port <= 0 {
			return configError("index.qdrant.port must be positive")
		}
	case BackendChromem:
	default:
		return configError(fmt.Sprintf("unknown index backend %q", c.Index.Backend))
	}

	s := c.Search
	if _, err := scoring.FromConfig(s.Strategy, s.BoostFactor, s.SemanticWeight, s.MetadataWeight); err != nil {
		return err
	}
	positive := map[string]int{
		"search.default_limit":      s.DefaultLimit,
		"search.max_limit":          s.MaxLimit,
		"search.over_fetch":         s.OverFetch,
		"search.passage_candidates": s.PassageCandidates,
		"search.summary_workers":    s.SummaryWorkers,
		"search.summary_threshold":  s.SummaryThreshold,
		"ingest.words_per_chunk":    c.Ingest.WordsPerChunk,
		"ingest.batch_size":         c.Ingest.BatchSize,
		"ingest.workers":            c.Ingest.Workers,
	}
	for name, v := range positive {
		if v <= 0 {
			return configError(name + " must be positive")
		}
	}
	if s.DefaultLimit > s.MaxLimit {
		return configError("search.default_limit exceeds search.max_limit")
	}
	if s.SummaryMinWords < 1 || s.SummaryMaxWords < s.SummaryMinWords {
		return configError("search.summary_min_words and summary_max_words must satisfy 1 <= min <= max")
	}
	if c.Ingest.Overlap < 0 || c.Ingest.Overlap >= c.Ingest.WordsPerChunk {
		return configError("ingest.overlap must be in [0, words_per_chunk)")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

func configError(msg string) error {
	return fmt.Errorf("%w: %s", core.ErrConfiguration, msg)
}
