package observability

import (
	"github.com/searchktools/wire-server/core/http"
)

// HeaderCarrier adapts a request header store to propagation.TextMapCarrier.
// Keys are matched exactly, so clients must send "traceparent" in lower case.
type HeaderCarrier struct {
	Headers *http.Headers
}

func (c HeaderCarrier) Get(key string) string {
	v, _ := c.Headers.Get(key)
	return v
}

// Set appends the header; a full store drops it.
func (c HeaderCarrier) Set(key, value string) {
	_ = c.Headers.Add(key, value)
}

func (c HeaderCarrier) Keys() []string {
	keys := make([]string, 0, c.Headers.Len())
	for k := range c.Headers.All() {
		keys = append(keys, k)
	}
	return keys
}
