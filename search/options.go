package search

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/aisearch/core"
	"github.com/poiesic/aisearch/query"
	"github.com/poiesic/aisearch/scoring"
	"github.com/poiesic/aisearch/storage"
	"go.opentelemetry.io/otel/trace"
)

// Defaults applied by NewSearcher.
const (
	DefaultLimit             = 10
	DefaultMaxLimit          = 100
	DefaultOverFetch         = 3
	DefaultPassageCandidates = 20
	DefaultSummaryThreshold  = 500
	DefaultSummaryMinWords   = 50
	DefaultSummaryMaxWords   = 150
	DefaultSummaryWorkers    = 4
)

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithParser replaces the default query parser.
func WithParser(parser *query.Parser) Option {
	return func(s *Searcher) error {
		if parser == nil {
			return fmt.Errorf("%w: parser cannot be nil", core.ErrConfiguration)
		}
		s.parser = parser
		return nil
	}
}

// WithStrategy sets the scoring strategy.
// Default is VectorOnlyWithPassageBoost with factor 0.5.
func WithStrategy(strategy scoring.Strategy) Option {
	return func(s *Searcher) error {
		if strategy == nil {
			return fmt.Errorf("%w: strategy cannot be nil", core.ErrConfiguration)
		}
		s.strategy = strategy
		return nil
	}
}

// WithDefaultLimit sets the limit used when neither caller nor query names one.
func WithDefaultLimit(limit int) Option {
	return func(s *Searcher) error {
		if limit < 1 {
			return fmt.Errorf("%w: default limit must be positive", core.ErrConfiguration)
		}
		s.defaultLimit = limit
		return nil
	}
}

// WithMaxLimit caps every requested limit.
func WithMaxLimit(limit int) Option {
	return func(s *Searcher) error {
		if limit < 1 {
			return fmt.Errorf("%w: max limit must be positive", core.ErrConfiguration)
		}
		s.maxLimit = limit
		return nil
	}
}

// WithOverFetch sets the multiple of limit fetched at document level before re-ranking.
func WithOverFetch(factor int) Option {
	return func(s *Searcher) error {
		if factor < 1 {
			return fmt.Errorf("%w: over-fetch factor must be at least 1", core.ErrConfiguration)
		}
		s.overFetch = factor
		return nil
	}
}

// WithPassageCandidates sets how many passages are fetched per search.
func WithPassageCandidates(n int) Option {
	return func(s *Searcher) error {
		if n < 1 {
			return fmt.Errorf("%w: passage candidates must be positive", core.ErrConfiguration)
		}
		s.passageCandidates = n
		return nil
	}
}

// WithSummaryThreshold sets the description length in characters above which
// the description is summarized instead of used as-is.
func WithSummaryThreshold(chars int) Option {
	return func(s *Searcher) error {
		if chars < 1 {
			return fmt.Errorf("%w: summary threshold must be positive", core.ErrConfiguration)
		}
		s.summaryThreshold = chars
		return nil
	}
}

// WithSummaryBounds sets the word bounds passed to the summarizer.
func WithSummaryBounds(minWords, maxWords int) Option {
	return func(s *Searcher) error {
		if minWords < 1 || maxWords < minWords {
			return fmt.Errorf("%w: invalid summary bounds %d..%d", core.ErrConfiguration, minWords, maxWords)
		}
		s.summaryMin = minWords
		s.summaryMax = maxWords
		return nil
	}
}

// WithSummaryWorkers sets the size of the summarization worker pool.
func WithSummaryWorkers(n int) Option {
	return func(s *Searcher) error {
		if n < 1 {
			n = 1
		}
		s.summaryWorkers = n
		return nil
	}
}

// WithSummaryCache stores generated summaries keyed by source text fingerprint.
func WithSummaryCache(cache storage.SummaryCache) Option {
	return func(s *Searcher) error {
		s.cache = cache
		return nil
	}
}

// WithMetrics records operation counters and latencies.
func WithMetrics(metrics *Metrics) Option {
	return func(s *Searcher) error {
		s.metrics = metrics
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer.
// Default is the global tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Searcher) error {
		if tracer == nil {
			return errors.New("tracer cannot be nil")
		}
		s.tracer = tracer
		return nil
	}
}

// WithMonitor sets the monitor used when a call does not supply its own.
// It receives hooks from concurrent searches and must be safe for concurrent use.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Searcher) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}
