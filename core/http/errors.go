package http

import "errors"

// Error definitions
var (
	// ErrMalformedRequest is returned for any request that does not follow the
	// supported wire format: missing CRLF, wrong request-line token count,
	// unknown method or version, invalid UTF-8, or a header line without a colon.
	ErrMalformedRequest = errors.New("malformed HTTP request")

	// ErrCapacityExceeded is returned when a header store or parameter segment is full.
	ErrCapacityExceeded = errors.New("capacity exceeded")
)
