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

package ingestion

import (
	"errors"
	"fmt"

	"github.com/poiesic/aisearch/core"
)

var (
	// ErrDocumentWriterRequired is returned when a document writer is not provided.
	ErrDocumentWriterRequired = fmt.Errorf("%w: document writer required", core.ErrConfiguration)

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = fmt.Errorf("%w: AI provider required", core.ErrConfiguration)

	// ErrInvalidChunking is returned for non-positive chunk sizes or an overlap
	// that is not smaller than the chunk size.
	ErrInvalidChunking = fmt.Errorf("%w: invalid chunking parameters", core.ErrConfiguration)

	// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbeddingCountMismatch is returned when a batch embedding returns the wrong number of vectors.
	ErrEmbeddingCountMismatch = errors.New("embedding result count mismatch")
)
