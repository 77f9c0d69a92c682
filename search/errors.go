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

package search

import (
	"fmt"

	"github.com/poiesic/aisearch/core"
)

var (
	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = fmt.Errorf("%w: AI provider required", core.ErrConfiguration)

	// ErrVectorIndexRequired is returned when a vector index is not provided.
	ErrVectorIndexRequired = fmt.Errorf("%w: vector index required", core.ErrConfiguration)

	// ErrMetadataSourceRequired is returned when a metadata source is not provided.
	ErrMetadataSourceRequired = fmt.Errorf("%w: metadata source required", core.ErrConfiguration)
)
