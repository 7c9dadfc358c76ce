package http

import (
	"fmt"
	"iter"
)

// DefaultMaxParams is the parameter segment capacity used when none is configured.
const DefaultMaxParams = 1024

// PathParam is a placeholder capture. The value is always present.
type PathParam struct {
	Key   string
	Value string
}

// QueryParam is one query-string fragment. HasValue is false for fragments
// without '=' (e.g. "debug" in "?debug&x=1").
type QueryParam struct {
	Key      string
	Value    string
	HasValue bool
}

// Cursor is the restartable iteration shared by PathSegment and QuerySegment.
// Reset rewinds to the first entry without touching stored data.
type Cursor[T any] interface {
	Reset()
	Next() (T, bool)
	Len() int
}

// Collect rewinds c and drains it into a slice.
func Collect[T any](c Cursor[T]) []T {
	c.Reset()
	out := make([]T, 0, c.Len())
	for {
		v, ok := c.Next()
		if !ok {
			break
		}
		out = append(out, v)
	}
	c.Reset()
	return out
}

// PathSegment holds placeholder captures in pattern-declaration order.
type PathSegment struct {
	entries []PathParam
	max     int
	pos     int
}

// NewPathSegment creates a segment holding at most max entries
// (DefaultMaxParams when max is not positive).
func NewPathSegment(max int) PathSegment {
	if max <= 0 {
		max = DefaultMaxParams
	}
	return PathSegment{max: max}
}

// Insert appends a capture.
func (s *PathSegment) Insert(key, value string) error {
	if s.max == 0 {
		s.max = DefaultMaxParams
	}
	if len(s.entries) >= s.max {
		return fmt.Errorf("%w: more than %d path parameters", ErrCapacityExceeded, s.max)
	}
	s.entries = append(s.entries, PathParam{Key: key, Value: value})
	return nil
}

// Iter rewinds the cursor and returns the segment for use with Next.
func (s *PathSegment) Iter() *PathSegment {
	s.pos = 0
	return s
}

func (s *PathSegment) Reset() { s.pos = 0 }

func (s *PathSegment) Next() (PathParam, bool) {
	if s.pos >= len(s.entries) {
		return PathParam{}, false
	}
	p := s.entries[s.pos]
	s.pos++
	return p, true
}

func (s *PathSegment) Len() int { return len(s.entries) }

// Get returns the first capture named key.
func (s *PathSegment) Get(key string) (string, bool) {
	for _, p := range s.entries {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// All ranges over the captures without moving the cursor.
func (s *PathSegment) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, p := range s.entries {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// QuerySegment holds query-string fragments in the order they appear.
type QuerySegment struct {
	entries []QueryParam
	max     int
	pos     int
}

// NewQuerySegment creates a segment holding at most max entries
// (DefaultMaxParams when max is not positive).
func NewQuerySegment(max int) QuerySegment {
	if max <= 0 {
		max = DefaultMaxParams
	}
	return QuerySegment{max: max}
}

// Insert appends a fragment. hasValue distinguishes "k=" from "k".
func (s *QuerySegment) Insert(key, value string, hasValue bool) error {
	if s.max == 0 {
		s.max = DefaultMaxParams
	}
	if len(s.entries) >= s.max {
		return fmt.Errorf("%w: more than %d query parameters", ErrCapacityExceeded, s.max)
	}
	s.entries = append(s.entries, QueryParam{Key: key, Value: value, HasValue: hasValue})
	return nil
}

// Iter rewinds the cursor and returns the segment for use with Next.
func (s *QuerySegment) Iter() *QuerySegment {
	s.pos = 0
	return s
}

func (s *QuerySegment) Reset() { s.pos = 0 }

func (s *QuerySegment) Next() (QueryParam, bool) {
	if s.pos >= len(s.entries) {
		return QueryParam{}, false
	}
	p := s.entries[s.pos]
	s.pos++
	return p, true
}

func (s *QuerySegment) Len() int { return len(s.entries) }

// Get returns the first fragment named key. ok reports whether the key exists;
// the value is empty when the fragment carried no '='.
func (s *QuerySegment) Get(key string) (value string, ok bool) {
	for _, p := range s.entries {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// All ranges over the fragments without moving the cursor.
func (s *QuerySegment) All() iter.Seq[QueryParam] {
	return func(yield func(QueryParam) bool) {
		for _, p := range s.entries {
			if !yield(p) {
				return
			}
		}
	}
}

// Params is the result of a successful URI match.
type Params struct {
	Path  PathSegment
	Query QuerySegment
}

// NewParams creates empty segments bounded by max entries each.
func NewParams(max int) *Params {
	return &Params{
		Path:  NewPathSegment(max),
		Query: NewQuerySegment(max),
	}
}

// IterPath rewinds and returns the path captures.
func (p *Params) IterPath() *PathSegment {
	return p.Path.Iter()
}

// IterQuery rewinds and returns the query fragments.
func (p *Params) IterQuery() *QuerySegment {
	return p.Query.Iter()
}

// Param is shorthand for p.Path.Get.
func (p *Params) Param(key string) string {
	v, _ := p.Path.Get(key)
	return v
}

// QueryValue is shorthand for p.Query.Get.
func (p *Params) QueryValue(key string) string {
	v, _ := p.Query.Get(key)
	return v
}
