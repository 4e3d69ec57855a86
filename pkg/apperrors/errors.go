package apperrors

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrMalformedRecord marks a history row missing required fields.
	// Batch ingestion skips and counts these, it never aborts.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrEnrichmentMiss means the metadata provider returned no result
	// confident enough to apply. The item stays unenriched.
	ErrEnrichmentMiss = errors.New("no confident metadata match")

	// ErrProviderUnavailable is a transient external-provider failure,
	// retried with backoff and then deferred to a later pass.
	ErrProviderUnavailable error = &transientError{"metadata provider unavailable"}

	// ErrEmbeddingUnavailable follows the same policy, scoped to the
	// embedding provider. Items without an embedding are excluded from
	// similarity ranking until a retry succeeds.
	ErrEmbeddingUnavailable error = &transientError{"embedding provider unavailable"}
)

// transientError marks provider outages as retryable for the retry
// package without string matching.
type transientError struct {
	msg string
}

func (e *transientError) Error() string {
	return e.msg
}

func (e *transientError) IsRetryable() bool {
	return true
}
