// Package scoring holds the vector math and score combination used by the
// ranking engine.
//
// Two strategies are available. VectorOnlyWithPassageBoost adds a capped,
// non-negative boost from a document's best matching passage to its document
// similarity. HybridWeighted blends document similarity with title term
// overlap.
package scoring
