package domain

import "errors"

var (
	// ErrMissingRequestedURL is returned when the TimeGate URL parameter is absent.
	ErrMissingRequestedURL = errors.New("URL not provided")

	// ErrMalformedNegotiationHeader is returned when Accept-Datetime cannot be parsed.
	ErrMalformedNegotiationHeader = errors.New("malformed Accept-Datetime header")

	// ErrNoVersionFound is returned when no memento matches the requested URL.
	ErrNoVersionFound = errors.New("no memento found matching the query")

	// ErrMissingOriginalURLMapping is a configuration error: a Decorator was
	// used without an OriginalURL hook.
	ErrMissingOriginalURLMapping = errors.New("original URL hook not implemented")

	// ErrMisconfiguredVersionStore is a configuration error raised at setup
	// when a negotiator is built without a version store.
	ErrMisconfiguredVersionStore = errors.New("version store is not configured")
)
