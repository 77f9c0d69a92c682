package ai

import "errors"

var (
	// ErrProviderUnavailable is returned when a provider could not be initialized.
	ErrProviderUnavailable = errors.New("AI provider unavailable")

	// ErrFactoryRequired is returned when a lazy provider has no factory.
	ErrFactoryRequired = errors.New("provider factory required")

	// ErrEmptySummary is returned when a model produced no summary text.
	ErrEmptySummary = errors.New("empty summary")
)
