package http

import (
	"io"
	"strconv"
)

// Handler produces the response for a matched route. It must always return a
// non-nil Response.
type Handler func(req *Request, params *Params) *Response

// Response is a fully built response. Headers are emitted in insertion order.
type Response struct {
	Status  Status
	Version Version
	Headers []Header
	Body    string
	hasBody bool
}

// HasBody reports whether a body was set (possibly empty).
func (r *Response) HasBody() bool {
	return r.hasBody
}

// Header returns the value set for key.
func (r *Response) Header(key string) (string, bool) {
	for _, h := range r.Headers {
		if h.Key == key {
			return h.Value, true
		}
	}
	return "", false
}

// AppendTo appends the wire form of r to b:
// status line, one "key: value" line per header, a blank line, then the body.
func (r *Response) AppendTo(b []byte) []byte {
	version := r.Version
	if version == 0 {
		version = Version11
	}

	b = append(b, version.String()...)
	b = append(b, ' ')
	b = strconv.AppendInt(b, int64(r.Status.Code()), 10)
	b = append(b, ' ')
	b = append(b, r.Status.Reason()...)
	b = append(b, crlf...)

	for _, h := range r.Headers {
		b = append(b, h.Key...)
		b = append(b, ':', ' ')
		b = append(b, h.Value...)
		b = append(b, crlf...)
	}
	b = append(b, crlf...)

	return append(b, r.Body...)
}

// Serialize returns the wire form of r in a new slice.
func (r *Response) Serialize() []byte {
	return r.AppendTo(make([]byte, 0, r.size()))
}

// WriteTo writes the wire form of r to w in a single Write call.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Serialize())
	return int64(n), err
}

func (r *Response) size() int {
	n := len("HTTP/1.1 000 \r\n\r\n") + len(r.Status.Reason()) + len(r.Body)
	for _, h := range r.Headers {
		n += len(h.Key) + len(h.Value) + 4
	}
	return n
}

// ResponseBuilder accumulates a Response.
type ResponseBuilder struct {
	resp Response
}

// NewResponse starts a response with the given status and HTTP/1.1.
func NewResponse(status Status) *ResponseBuilder {
	return &ResponseBuilder{resp: Response{Status: status, Version: Version11}}
}

func OK() *ResponseBuilder                  { return NewResponse(StatusOK) }
func Created() *ResponseBuilder             { return NewResponse(StatusCreated) }
func NoContent() *ResponseBuilder           { return NewResponse(StatusNoContent) }
func BadRequest() *ResponseBuilder          { return NewResponse(StatusBadRequest) }
func Unauthorized() *ResponseBuilder        { return NewResponse(StatusUnauthorized) }
func Forbidden() *ResponseBuilder           { return NewResponse(StatusForbidden) }
func NotFound() *ResponseBuilder            { return NewResponse(StatusNotFound) }
func InternalServerError() *ResponseBuilder { return NewResponse(StatusInternalServerError) }
func BadGateway() *ResponseBuilder          { return NewResponse(StatusBadGateway) }
func ServiceUnavailable() *ResponseBuilder  { return NewResponse(StatusServiceUnavailable) }

// Version overrides the protocol version (HTTP/1.1 by default).
func (b *ResponseBuilder) Version(v Version) *ResponseBuilder {
	b.resp.Version = v
	return b
}

// Header sets key to value. Setting an existing key replaces its value in place.
func (b *ResponseBuilder) Header(key, value string) *ResponseBuilder {
	for i := range b.resp.Headers {
		if b.resp.Headers[i].Key == key {
			b.resp.Headers[i].Value = value
			return b
		}
	}
	b.resp.Headers = append(b.resp.Headers, Header{Key: key, Value: value})
	return b
}

// Headers sets several headers at once.
func (b *ResponseBuilder) Headers(headers ...Header) *ResponseBuilder {
	for _, h := range headers {
		b.Header(h.Key, h.Value)
	}
	return b
}

// Body sets the response body.
func (b *ResponseBuilder) Body(body string) *ResponseBuilder {
	b.resp.Body = body
	b.resp.hasBody = true
	return b
}

// ContentLength sets Content-Length from the current body. It is never added
// automatically.
func (b *ResponseBuilder) ContentLength() *ResponseBuilder {
	return b.Header("Content-Length", strconv.Itoa(len(b.resp.Body)))
}

// Build returns the accumulated response. The builder must not be reused.
func (b *ResponseBuilder) Build() *Response {
	resp := b.resp
	return &resp
}
