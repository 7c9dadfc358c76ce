package http

import (
	"fmt"
	"strings"
	"sync"
)

// Request is a parsed HTTP/1.1 request.
//
// URI, Body and every header are views into the buffer the request was parsed
// from. That buffer belongs to the connection that read it and is recycled once
// the response has been written, so a Request (and any Params derived from its
// URI) must not be retained after the handler returns. Copy with strings.Clone
// when a value has to outlive the request.
type Request struct {
	Method  Method
	URI     string
	Version Version
	Headers Headers
	Body    string
}

var requestPool = sync.Pool{
	New: func() any {
		return &Request{Headers: NewHeaders(DefaultMaxHeaders)}
	},
}

// AcquireRequest returns an empty request from the pool.
func AcquireRequest() *Request {
	return requestPool.Get().(*Request)
}

// ReleaseRequest resets req and returns it to the pool.
func ReleaseRequest(req *Request) {
	if req == nil {
		return
	}
	req.Reset()
	requestPool.Put(req)
}

// Reset clears the request for reuse (header backing array is kept).
func (r *Request) Reset() {
	r.Method = 0
	r.URI = ""
	r.Version = 0
	r.Headers.Reset()
	r.Body = ""
}

// Header returns the first header named key.
func (r *Request) Header(key string) string {
	v, _ := r.Headers.Get(key)
	return v
}

// Path returns the URI without its query string.
func (r *Request) Path() string {
	if i := strings.IndexByte(r.URI, '?'); i >= 0 {
		return r.URI[:i]
	}
	return r.URI
}

// RawQuery returns the text after the first '?', or "" when there is none.
func (r *Request) RawQuery() string {
	if i := strings.IndexByte(r.URI, '?'); i >= 0 {
		return r.URI[i+1:]
	}
	return ""
}

func (r *Request) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Method: %s\nUri: %s\nVersion: %s\nHeaders:", r.Method, r.URI, r.Version)
	for k, v := range r.Headers.All() {
		fmt.Fprintf(&b, " %s=%q", k, v)
	}
	fmt.Fprintf(&b, "\nBody: %q", r.Body)
	return b.String()
}
