package search

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/aisearch/ai"
	"github.com/poiesic/aisearch/core"
	"github.com/poiesic/aisearch/query"
	"github.com/poiesic/aisearch/scoring"
	"github.com/poiesic/aisearch/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/poiesic/aisearch/search"

// Searcher ranks documents for conversational queries by combining
// document-level and passage-level vector similarity.
// A Searcher is safe for concurrent use. Call Release when done.
type Searcher struct {
	provider   ai.AIProvider
	embedder   ai.Embedder
	summarizer ai.Summarizer
	index      storage.VectorIndex
	meta       storage.MetadataSource
	parser     *query.Parser
	strategy   scoring.Strategy
	cache      storage.SummaryCache
	metrics    *Metrics
	monitor    SearchMonitor
	tracer     trace.Tracer
	pool       *ants.Pool
	logger     *slog.Logger

	defaultLimit      int
	maxLimit          int
	overFetch         int
	passageCandidates int
	summaryThreshold  int
	summaryMin        int
	summaryMax        int
	summaryWorkers    int
}

// SearchOptions holds per-call search parameters.
type SearchOptions struct {
	// Limit overrides any limit found in the query text. Zero means unset.
	Limit int
	// Summaries requests a summary on every result.
	Summaries bool
}

// NewSearcher creates a new searcher.
func NewSearcher(
	provider ai.AIProvider,
	index storage.VectorIndex,
	meta storage.MetadataSource,
	opts ...Option,
) (*Searcher, error) {
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if index == nil {
		return nil, ErrVectorIndexRequired
	}
	if meta == nil {
		return nil, ErrMetadataSourceRequired
	}

	strategy, err := scoring.NewVectorOnlyWithPassageBoost(scoring.DefaultBoostFactor)
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		provider:          provider,
		embedder:          provider.Embedder(),
		summarizer:        provider.Summarizer(),
		index:             index,
		meta:              meta,
		strategy:          strategy,
		monitor:           &noopMonitor{},
		tracer:            otel.Tracer(tracerName),
		logger:            slog.Default(),
		defaultLimit:      DefaultLimit,
		maxLimit:          DefaultMaxLimit,
		overFetch:         DefaultOverFetch,
		passageCandidates: DefaultPassageCandidates,
		summaryThreshold:  DefaultSummaryThreshold,
		summaryMin:        DefaultSummaryMinWords,
		summaryMax:        DefaultSummaryMaxWords,
		summaryWorkers:    DefaultSummaryWorkers,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.defaultLimit > s.maxLimit {
		s.defaultLimit = s.maxLimit
	}
	if s.parser == nil {
		if s.parser, err = query.NewParser(); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	s.pool, err = ants.NewPool(s.summaryWorkers)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Release releases the summarization worker pool.
// The searcher should not be used after calling Release.
func (s *Searcher) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Strategy returns the scoring strategy in use.
func (s *Searcher) Strategy() scoring.Strategy {
	return s.strategy
}

// Parse interprets query text without touching the index.
func (s *Searcher) Parse(text string) core.ParsedQuery {
	return s.parser.Parse(text)
}

// resolveLimit picks the caller's limit, then the query's, then the default,
// and caps the result.
func (s *Searcher) resolveLimit(requested int, parsed core.ParsedQuery) int {
	limit := s.defaultLimit
	switch {
	case requested > 0:
		limit = requested
	case parsed.HasLimit():
		limit = parsed.Limit
	}
	return min(limit, s.maxLimit)
}

// Search runs a ranked search.
func (s *Searcher) Search(ctx context.Context, text string, opts SearchOptions) (*core.SearchResponse, error) {
	return s.SearchWithMonitor(ctx, text, opts, nil)
}

// SearchWithMonitor runs a ranked search with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, text string, opts SearchOptions, monitor SearchMonitor) (*core.SearchResponse, error) {
	// Use default monitor if none provided
	if monitor == nil {
		monitor = s.monitor
	}

	ctx, span := s.tracer.Start(ctx, "search.Search")
	defer span.End()
	start := time.Now()

	monitor.Start(text)
	resp, err := s.search(ctx, text, opts, monitor)
	s.metrics.observe("search", start, resultCount(resp), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		monitor.Failed(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("results", len(resp.Results)),
		attribute.Int("unattached", len(resp.Unattached)),
	)
	monitor.Finish(resp)
	return resp, nil
}

func resultCount(resp *core.SearchResponse) int {
	if resp == nil {
		return 0
	}
	return resp.Total
}

func (s *Searcher) search(ctx context.Context, text string, opts SearchOptions, monitor SearchMonitor) (*core.SearchResponse, error) {
	parsed := s.parser.Parse(text)
	monitor.AfterParse(parsed)

	limit := s.resolveLimit(opts.Limit, parsed)
	resp := &core.SearchResponse{
		Query:      text,
		Parsed:     parsed,
		Results:    []core.ScoredResult{},
		Unattached: []core.PassageMatch{},
	}
	if parsed.SemanticQuery == "" {
		// Nothing to embed.
		return resp, nil
	}

	vector, err := s.embed(ctx, "search", parsed.SemanticQuery)
	if err != nil {
		return nil, err
	}
	monitor.AfterEmbedding(len(vector))

	k := max(limit, limit*s.overFetch)
	m := max(s.passageCandidates, limit)

	var docHits, passageHits []core.Hit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docHits, err = s.queryNearest(gctx, "search", vector, k, core.GranularityDocument)
		return err
	})
	g.Go(func() error {
		var err error
		passageHits, err = s.queryNearest(gctx, "search", vector, m, core.GranularityPassage)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	monitor.AfterDocumentSearch(docHits)
	monitor.AfterPassageSearch(passageHits)

	titles := newMetadataCache(ctx, s.meta, s.logger)
	results := s.rank(docHits, passageHits, parsed, titles)
	if len(results) > limit {
		results = results[:limit]
	}
	monitor.AfterRanking(results)

	resp.Results = results
	resp.Unattached = unattachedPassages(results, passageHits, titles)
	resp.Total = len(results)

	if opts.Summaries && len(results) > 0 {
		s.summarize(ctx, resp.Results, monitor)
	}

	s.logger.Debug("search complete",
		"query", text,
		"limit", limit,
		"documents", len(docHits),
		"passages", len(passageHits),
		"results", len(results))
	return resp, nil
}

// rank merges document and passage hits through the strategy and sorts the result.
// A document appears at most once, with its best document-level score.
func (s *Searcher) rank(docHits, passageHits []core.Hit, parsed core.ParsedQuery, titles *metadataCache) []core.ScoredResult {
	best := make(map[string]float32)
	matches := make(map[string][]core.PassageMatch)
	for _, hit := range passageHits {
		if hit.Passage == nil {
			continue
		}
		if score, ok := best[hit.DocumentID]; !ok || hit.Score > score {
			best[hit.DocumentID] = hit.Score
		}
		matches[hit.DocumentID] = append(matches[hit.DocumentID], core.NewPassageMatch(hit.Passage, hit.Score))
	}

	bookScores := make(map[string]float32, len(docHits))
	order := make([]string, 0, len(docHits))
	for _, hit := range docHits {
		score, seen := bookScores[hit.DocumentID]
		if !seen {
			order = append(order, hit.DocumentID)
		}
		if !seen || hit.Score > score {
			bookScores[hit.DocumentID] = hit.Score
		}
	}

	results := make([]core.ScoredResult, 0, len(order))
	for _, id := range order {
		meta := titles.get(id)
		candidate := scoring.Candidate{
			DocumentID:  id,
			BookScore:   bookScores[id],
			SearchTerms: parsed.SearchTerms,
		}
		if meta != nil {
			candidate.Title = meta.Title
		}
		if score, ok := best[id]; ok {
			candidate.BestPassage = &score
		}
		scored := s.strategy.Score(candidate)

		passages := matches[id]
		scoring.SortPassages(passages)
		for i := range passages {
			passages[i].Title = candidate.Title
		}
		results = append(results, core.ScoredResult{
			DocumentID:   id,
			Metadata:     meta,
			BookScore:    candidate.BookScore,
			PassageBoost: scored.Boost,
			Passages:     passages,
			FinalScore:   scored.Final,
		})
	}
	scoring.SortResults(results)
	return results
}

// unattachedPassages returns passage matches whose document is not among results.
func unattachedPassages(results []core.ScoredResult, passageHits []core.Hit, titles *metadataCache) []core.PassageMatch {
	attached := make(map[string]bool, len(results))
	for _, r := range results {
		attached[r.DocumentID] = true
	}
	out := []core.PassageMatch{}
	for _, hit := range passageHits {
		if hit.Passage == nil || attached[hit.DocumentID] {
			continue
		}
		match := core.NewPassageMatch(hit.Passage, hit.Score)
		if meta := titles.get(hit.DocumentID); meta != nil {
			match.Title = meta.Title
		}
		out = append(out, match)
	}
	scoring.SortPassages(out)
	return out
}

// Passages runs a passage-only search. The limit resolves like Search.
func (s *Searcher) Passages(ctx context.Context, text string, limit int) (*core.PassageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "search.Passages")
	defer span.End()
	start := time.Now()

	resp, err := s.passages(ctx, text, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.observe("passages", start, 0, err)
		return nil, err
	}
	s.metrics.observe("passages", start, resp.Total, nil)
	return resp, nil
}

func (s *Searcher) passages(ctx context.Context, text string, limit int) (*core.PassageResponse, error) {
	parsed := s.parser.Parse(text)
	limit = s.resolveLimit(limit, parsed)
	resp := &core.PassageResponse{Query: text, Passages: []core.PassageMatch{}}
	if parsed.SemanticQuery == "" {
		return resp, nil
	}

	vector, err := s.embed(ctx, "passages", parsed.SemanticQuery)
	if err != nil {
		return nil, err
	}
	hits, err := s.queryNearest(ctx, "passages", vector, limit, core.GranularityPassage)
	if err != nil {
		return nil, err
	}

	titles := newMetadataCache(ctx, s.meta, s.logger)
	for _, hit := range hits {
		if hit.Passage == nil {
			continue
		}
		match := core.NewPassageMatch(hit.Passage, hit.Score)
		if meta := titles.get(hit.DocumentID); meta != nil {
			match.Title = meta.Title
		}
		resp.Passages = append(resp.Passages, match)
	}
	scoring.SortPassages(resp.Passages)
	if len(resp.Passages) > limit {
		resp.Passages = resp.Passages[:limit]
	}
	resp.Total = len(resp.Passages)
	return resp, nil
}

// Similar returns the documents closest to documentID, excluding itself.
// A limit of zero or less yields an empty list.
func (s *Searcher) Similar(ctx context.Context, documentID string, limit int) (*core.SimilarResponse, error) {
	ctx, span := s.tracer.Start(ctx, "search.Similar")
	defer span.End()
	span.SetAttributes(attribute.String("document_id", documentID), attribute.Int("limit", limit))
	start := time.Now()

	resp, err := s.similar(ctx, documentID, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.observe("similar", start, 0, err)
		return nil, err
	}
	s.metrics.observe("similar", start, resp.Total, nil)
	return resp, nil
}

func (s *Searcher) similar(ctx context.Context, documentID string, limit int) (*core.SimilarResponse, error) {
	vector, err := s.index.GetVector(ctx, documentID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NewOpError("similar", documentID, core.ErrNotFound, nil)
		}
		return nil, core.NewOpError("similar", documentID, core.ErrIndexQueryFailure, err)
	}

	resp := &core.SimilarResponse{
		SourceID: documentID,
		Similar:  []core.SimilarResult{},
	}
	titles := newMetadataCache(ctx, s.meta, s.logger)
	if meta := titles.get(documentID); meta != nil {
		resp.SourceTitle = meta.Title
		resp.SourceCreators = meta.Creators
	}
	if limit <= 0 {
		return resp, nil
	}
	limit = min(limit, s.maxLimit)

	hits, err := s.queryNearest(ctx, "similar", vector, limit+1, core.GranularityDocument)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{documentID: true}
	for _, hit := range hits {
		if seen[hit.DocumentID] {
			continue
		}
		seen[hit.DocumentID] = true
		resp.Similar = append(resp.Similar, core.SimilarResult{
			DocumentID: hit.DocumentID,
			Metadata:   titles.get(hit.DocumentID),
			Score:      hit.Score,
		})
	}
	scoring.SortSimilar(resp.Similar)
	if len(resp.Similar) > limit {
		resp.Similar = resp.Similar[:limit]
	}
	resp.Total = len(resp.Similar)
	return resp, nil
}

// readiness is implemented by providers that initialize lazily.
type readiness interface {
	Ready() bool
}

// Status reports provider readiness and index size. Failures are reported
// in the returned value.
func (s *Searcher) Status(ctx context.Context) core.Status {
	status := core.Status{
		Status:        core.StatusReady,
		ProviderReady: true,
		Backend:       s.index.Name(),
	}
	if r, ok := s.provider.(readiness); ok {
		status.ProviderReady = r.Ready()
	}
	counts, err := s.index.Counts(ctx)
	if err != nil {
		s.logger.Warn("error reading index counts", "err", err)
		status.Status = core.StatusError
		status.Error = err.Error()
		return status
	}
	status.Documents = counts.Documents
	status.Passages = counts.Passages
	return status
}

func (s *Searcher) embed(ctx context.Context, op, text string) ([]float32, error) {
	ctx, span := s.tracer.Start(ctx, "search.Embed")
	defer span.End()

	vector, err := s.embedder.EmbedText(ctx, text)
	if err == nil && len(vector) == 0 {
		err = errors.New("empty embedding")
	}
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", text, "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, core.NewOpError(op, text, core.ErrEmbeddingFailure, err)
	}
	span.SetAttributes(attribute.Int("dimension", len(vector)))
	return vector, nil
}

func (s *Searcher) queryNearest(ctx context.Context, op string, vector []float32, k int, granularity core.Granularity) ([]core.Hit, error) {
	ctx, span := s.tracer.Start(ctx, "search.QueryNearest")
	defer span.End()
	span.SetAttributes(attribute.String("granularity", granularity.String()), attribute.Int("k", k))

	hits, err := s.index.QueryNearest(ctx, vector, k, granularity)
	if err != nil {
		s.logger.Error("error querying index", "granularity", granularity.String(), "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, core.NewOpError(op, granularity.String(), core.ErrIndexQueryFailure, err)
	}
	span.SetAttributes(attribute.Int("hits", len(hits)))
	return hits, nil
}
