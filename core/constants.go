package core

// Header names the engine and its helpers set on responses.
const (
	HeaderContentType   = "Content-Type"
	HeaderContentLength = "Content-Length"
	HeaderServer        = "Server"
	HeaderRequestID     = "X-Request-ID"
)

// Content types produced by the codec helpers.
const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeJSON = "application/json"
)
