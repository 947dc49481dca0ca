package domain

import "errors"

var (
	// ErrCredentialsNotConfigured signals that the user behind a connection
	// has not stored vector-store credentials yet.
	ErrCredentialsNotConfigured = errors.New("vector store credentials not configured")
	// ErrConnectionNotFound signals an unknown connection id.
	ErrConnectionNotFound = errors.New("connection not found")
	// ErrUserNotFound signals an unknown user id.
	ErrUserNotFound = errors.New("user not found")
	// ErrEndUserMissing signals an auth event without end-user identity.
	ErrEndUserMissing = errors.New("end user identity missing")
	// ErrChangeMetaMissing signals a record without its change-tracking block.
	// Such a record cannot be version-tracked and must never be indexed.
	ErrChangeMetaMissing = errors.New("change tracking metadata missing")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidFilter signals a malformed filter expression.
	ErrInvalidFilter = errors.New("invalid filter expression")
)

// fatalErrors are upstream contract violations: re-running the delivery
// without operator intervention will fail the same way.
var fatalErrors = []error{
	ErrCredentialsNotConfigured,
	ErrConnectionNotFound,
	ErrUserNotFound,
	ErrEndUserMissing,
	ErrChangeMetaMissing,
	ErrInvalidFilter,
}

// IsFatal reports whether err is non-retryable.
func IsFatal(err error) bool {
	for _, fatal := range fatalErrors {
		if errors.Is(err, fatal) {
			return true
		}
	}
	return false
}
