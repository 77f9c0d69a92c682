package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/poiesic/aisearch/ai"
	"github.com/poiesic/aisearch/core"
)

// summarize fills the Summary of every result. Each result is handled on the
// worker pool; a failure falls back to the title and never aborts the others.
func (s *Searcher) summarize(ctx context.Context, results []core.ScoredResult, monitor SearchMonitor) {
	ctx, span := s.tracer.Start(ctx, "search.Summarize")
	defer span.End()

	errs := make([]error, len(results))
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			summary, err := s.summaryFor(ctx, &results[i])
			results[i].Summary = summary
			errs[i] = err
		}
		if err := s.pool.Submit(task); err != nil {
			// Pool closed or overloaded; do the work inline.
			task()
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		s.logger.Warn("summary fell back to title", "document_id", results[i].DocumentID, "err", err)
		s.metrics.summaryFallback()
		monitor.SummaryFallback(results[i].DocumentID, err)
	}
}

// summaryFor picks the summary of one result:
//   - a description within the threshold is used as-is
//   - a longer description is summarized
//   - without a description, the matched passages are summarized
//   - with neither, the title is used
//
// On failure the title is returned together with the error.
func (s *Searcher) summaryFor(ctx context.Context, r *core.ScoredResult) (string, error) {
	title := r.Title()

	var source string
	switch {
	case r.Metadata != nil && strings.TrimSpace(r.Metadata.Description) != "":
		desc := strings.TrimSpace(r.Metadata.Description)
		if utf8.RuneCountInString(desc) <= s.summaryThreshold {
			return desc, nil
		}
		source = desc
	case len(r.Passages) > 0:
		texts := make([]string, len(r.Passages))
		for i, p := range r.Passages {
			texts[i] = p.Text
		}
		source = strings.Join(texts, "\n\n")
	default:
		return title, nil
	}

	key := core.FingerprintOf(source)
	if s.cache != nil {
		cached, found, err := s.cache.GetSummary(ctx, key)
		if err != nil {
			s.logger.Warn("error reading summary cache", "key", key.String(), "err", err)
		} else if found {
			return cached, nil
		}
	}

	summary, err := s.summarizer.Summarize(ctx, source, s.summaryMin, s.summaryMax)
	if err == nil && strings.TrimSpace(summary) == "" {
		err = ai.ErrEmptySummary
	}
	if err != nil {
		return title, core.NewOpError("summarize", r.DocumentID, core.ErrSummarizationFailure, err)
	}
	summary = strings.TrimSpace(summary)

	if s.cache != nil {
		if err := s.cache.PutSummary(ctx, key, summary); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("error writing summary cache", "key", key.String(), "err", err)
		}
	}
	return summary, nil
}
