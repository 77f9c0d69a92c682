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

// Package search provides hybrid document and passage ranking.
//
// The Searcher type implements a multi-stage search:
//   - the query is parsed and its semantic query embedded
//   - document-level and passage-level nearest-neighbor queries run concurrently
//   - a scoring.Strategy merges both signals per document
//   - results are sorted by final score, ties broken by document id
//   - passages of documents outside the final list are returned as unattached
//   - optional summaries are produced on a worker pool
//
// Similar finds the neighbors of a stored document, and Status reports
// provider readiness and index size.
//
// Embedding and index failures abort the call and are returned as
// *core.OpError values matching core.ErrEmbeddingFailure or
// core.ErrIndexQueryFailure. Metadata and summarization failures are logged
// and degrade the affected result only.
package search
