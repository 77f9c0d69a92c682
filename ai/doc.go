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

// Package ai provides abstractions for the model services used by aisearch.
//
// The ranking engine treats models as opaque capabilities: text goes in, a
// fixed-length vector or a short summary comes out. This package defines
// those capabilities as interfaces so the engine depends on abstractions
// rather than on a particular model server.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - Summarizer: Condenses long descriptions into short abstracts
//   - AIProvider: Aggregates both services for lifecycle management
//
// # Lazy initialization
//
// Loading a model or dialing a server can be slow, so providers are usually
// wrapped in a LazyProvider. It builds the real provider on first use under a
// mutex; concurrent first callers share one attempt, and a failed attempt is
// retried on the next call.
//
//	lazy, err := ai.NewLazyProvider(openai.Factory(cfg), logger)
//	vec, err := lazy.Embedder().EmbedText(ctx, "tragic love stories")
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors in ai/openai return interface types. Mock constructors
// return concrete types so tests can inject behavior and read call counts.
package ai
