package crawler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrExtraction is returned when the extractor is handed no usable document.
// Non-transient: the caller must supply a valid parse result.
var ErrExtraction = errors.New("no valid parsed page provided")

// RetrievalError is a transient network failure (connection refused, reset,
// timeout). Safe to retry.
type RetrievalError struct {
	URL string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("could not retrieve %s: %v", e.URL, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// RequestError is any other transport-level failure (malformed URL, protocol
// error, too many redirects).
type RequestError struct {
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// HTTPError is a completed request that came back with a non-2xx status
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error fetching %s: %d %s", e.URL, e.StatusCode, e.Status)
}

// classifyTransportError sorts a client error into the retrieval/request
// taxonomy. Timeouts and connection failures are transient retrieval
// failures; everything else is a generic request failure.
func classifyTransportError(rawURL string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &RetrievalError{URL: rawURL, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &RetrievalError{URL: rawURL, Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &RetrievalError{URL: rawURL, Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Temporary() {
		return &RetrievalError{URL: rawURL, Err: err}
	}

	return &RequestError{URL: rawURL, Err: err}
}
