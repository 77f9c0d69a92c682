package search

import (
	"github.com/poiesic/aisearch/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
// All hooks are called from the goroutine that invoked the search.
type SearchMonitor interface {
	Start(query string)
	AfterParse(parsed core.ParsedQuery)
	AfterEmbedding(dimension int)
	AfterDocumentSearch(hits []core.Hit)
	AfterPassageSearch(hits []core.Hit)
	AfterRanking(results []core.ScoredResult)
	SummaryFallback(documentID string, err error)
	Failed(err error)
	Finish(response *core.SearchResponse)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                     {}
func (n *noopMonitor) AfterParse(_ core.ParsedQuery)      {}
func (n *noopMonitor) AfterEmbedding(_ int)               {}
func (n *noopMonitor) AfterDocumentSearch(_ []core.Hit)   {}
func (n *noopMonitor) AfterPassageSearch(_ []core.Hit)    {}
func (n *noopMonitor) AfterRanking(_ []core.ScoredResult) {}
func (n *noopMonitor) SummaryFallback(_ string, _ error)  {}
func (n *noopMonitor) Failed(_ error)                     {}
func (n *noopMonitor) Finish(_ *core.SearchResponse)      {}
