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

package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//
// NOT validated (populated by the indexing pipeline):
//   - Vector (can be empty until embedded)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyID)
	}
	return nil
}

// ValidatePassage validates a Passage according to domain rules.
//
// Validation rules:
//   - DocumentID must not be empty
//   - Text must not be empty
//   - 0 <= ChunkIndex < ChunkCount
func ValidatePassage(p *Passage) error {
	if p == nil {
		return fmt.Errorf("%w: passage is nil", ErrInvalidPassage)
	}
	if p.DocumentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrEmptyID)
	}
	if p.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrEmptyContent)
	}
	if p.ChunkIndex < 0 || p.ChunkIndex >= p.ChunkCount {
		return fmt.Errorf("%w: %w: index %d, count %d", ErrInvalidPassage, ErrChunkOutOfRange, p.ChunkIndex, p.ChunkCount)
	}
	return nil
}
