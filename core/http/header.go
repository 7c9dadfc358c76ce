package http

import (
	"fmt"
	"iter"
)

// DefaultMaxHeaders is the header store capacity used when none is configured.
const DefaultMaxHeaders = 1000

// Header is a single key/value pair. For parsed requests both strings are views
// into the request buffer.
type Header struct {
	Key   string
	Value string
}

// Headers is a bounded, insertion-ordered header store. Duplicate keys are kept
// and lookups are exact-match linear scans.
type Headers struct {
	entries []Header
	max     int
}

// NewHeaders creates a header store holding at most max entries.
// A non-positive max selects DefaultMaxHeaders.
func NewHeaders(max int) Headers {
	if max <= 0 {
		max = DefaultMaxHeaders
	}
	return Headers{max: max}
}

// Add appends a header, failing with ErrCapacityExceeded once the store is full.
func (h *Headers) Add(key, value string) error {
	if h.max == 0 {
		h.max = DefaultMaxHeaders
	}
	if len(h.entries) >= h.max {
		return fmt.Errorf("%w: more than %d headers", ErrCapacityExceeded, h.max)
	}
	h.entries = append(h.entries, Header{Key: key, Value: value})
	return nil
}

// Get returns the value of the first header whose key equals key.
func (h *Headers) Get(key string) (string, bool) {
	for i := range h.entries {
		if h.entries[i].Key == key {
			return h.entries[i].Value, true
		}
	}
	return "", false
}

// Values returns every value stored under key, in insertion order.
func (h *Headers) Values(key string) []string {
	var values []string
	for i := range h.entries {
		if h.entries[i].Key == key {
			values = append(values, h.entries[i].Value)
		}
	}
	return values
}

// Len returns the number of stored headers.
func (h *Headers) Len() int {
	return len(h.entries)
}

// Cap returns the configured capacity.
func (h *Headers) Cap() int {
	if h.max == 0 {
		return DefaultMaxHeaders
	}
	return h.max
}

// All iterates over the headers in insertion order.
func (h *Headers) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, e := range h.entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Reset empties the store, keeping its capacity and backing array.
func (h *Headers) Reset() {
	clear(h.entries)
	h.entries = h.entries[:0]
}
