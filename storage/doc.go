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

// Package storage defines the index abstraction used by search and ingestion.
//
// An index holds two granularities of vectors: one per document and one per
// passage. Search only needs the read side (VectorIndex and MetadataSource);
// ingestion needs DocumentWriter. Backends live in subpackages:
//
//   - badger: embedded key-value store with brute-force cosine scoring
//   - qdrant: remote vector database over gRPC
//   - chromem: in-process vector store, mostly for tests and small corpora
//
// Records persisted by the badger backend use the compact mus encoding in
// serialization.go. Every record starts with a version number.
//
// # Usage
//
//	idx, err := badger.NewIndex("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer idx.Close()
//
//	hits, err := idx.QueryNearest(ctx, vec, 10, core.GranularityDocument)
//
// All implementations must be safe for concurrent use.
package storage
