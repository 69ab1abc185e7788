package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchTimeout means the upstream did not answer within the
	// configured deadline.
	ErrFetchTimeout = errors.New("feed fetch timed out")
	// ErrFetchTransport covers network-level failures below HTTP.
	ErrFetchTransport = errors.New("feed fetch transport failure")
	// ErrMalformedFeed means the document could not be decoded at all.
	// A well-formed feed with zero items is not malformed.
	ErrMalformedFeed = errors.New("malformed feed document")
	// ErrStoreUnavailable means the article store could not serve the
	// request; the pipeline run aborts.
	ErrStoreUnavailable = errors.New("article store unavailable")
	// ErrMissingField marks absent required request input.
	ErrMissingField = errors.New("missing required field")
)

// UpstreamStatusError reports a non-2xx response from the feed source.
type UpstreamStatusError struct {
	Code int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Code)
}
