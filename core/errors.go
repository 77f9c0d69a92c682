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

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced by the engine. Callers match them with errors.Is.
var (
	// ErrConfiguration indicates a missing or invalid backend or provider setup.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound indicates an unknown document id.
	ErrNotFound = errors.New("document not found")

	// ErrEmbeddingFailure indicates the provider could not vectorize text.
	ErrEmbeddingFailure = errors.New("embedding failed")

	// ErrSummarizationFailure indicates the provider could not summarize text.
	// It is recovered per result and never returned from a search.
	ErrSummarizationFailure = errors.New("summarization failed")

	// ErrIndexQueryFailure indicates the vector index was unreachable or errored.
	ErrIndexQueryFailure = errors.New("index query failed")
)

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidPassage indicates a Passage failed validation.
	ErrInvalidPassage = errors.New("invalid passage")

	// ErrEmptyID indicates a missing document identifier.
	ErrEmptyID = errors.New("document id cannot be empty")

	// ErrEmptyContent indicates passage text is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrChunkOutOfRange indicates a chunk index outside [0, chunk count).
	ErrChunkOutOfRange = errors.New("chunk index out of range")
)

const maxSubjectLen = 80

// OpError records the operation and the offending identifier or text of a failure.
type OpError struct {
	Op      string
	Subject string
	Err     error
}

// NewOpError wraps cause under kind with operation context.
// A nil cause yields an error that matches kind only.
func NewOpError(op, subject string, kind, cause error) *OpError {
	err := kind
	if cause != nil {
		err = fmt.Errorf("%w: %w", kind, cause)
	}
	return &OpError{Op: op, Subject: truncateSubject(subject), Err: err}
}

func (e *OpError) Error() string {
	if e.Subject == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s %q: %s", e.Op, e.Subject, e.Err.Error())
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func truncateSubject(s string) string {
	runes := []rune(s)
	if len(runes) <= maxSubjectLen {
		return s
	}
	return string(runes[:maxSubjectLen]) + "..."
}
