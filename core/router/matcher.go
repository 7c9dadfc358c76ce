package router

import (
	"errors"
	"fmt"
	"strings"

	"github.com/searchktools/wire-server/core/http"
	"github.com/searchktools/wire-server/core/optimize"
)

var (
	ErrInvalidPattern = errors.New("invalid route pattern")
)

// Matcher compares concrete request URIs against route patterns.
//
// A pattern is literal text with zero or more {name} placeholders. Placeholders
// need not line up with '/' segments: a capture runs from the current position
// up to the first occurrence of the literal byte that follows '}' in the
// pattern, or to the end of the path when the placeholder is last.
type Matcher struct {
	// MaxParams bounds each parameter segment; 0 selects http.DefaultMaxParams.
	MaxParams int
}

// Match matches uri against pattern with default limits. ok is false when the
// URI does not match or a segment overflowed.
func Match(uri, pattern string) (params *http.Params, ok bool) {
	params, ok, err := Matcher{}.Match(uri, pattern)
	if err != nil {
		return nil, false
	}
	return params, ok
}

// Match returns the path captures and query fragments of uri when it matches
// pattern. Partial captures are discarded on mismatch. err is non-nil only when
// a segment exceeds its capacity.
func (m Matcher) Match(uri, pattern string) (*http.Params, bool, error) {
	path, query, hasQuery := strings.Cut(uri, "?")
	params := http.NewParams(m.MaxParams)

	ok, err := matchPath(path, pattern, &params.Path)
	if err != nil || !ok {
		return nil, false, err
	}

	if hasQuery {
		if err := parseQuery(query, &params.Query); err != nil {
			return nil, false, err
		}
	}
	return params, true, nil
}

// matchPath walks pattern and path with two cursors. Literal spans are only
// compared at checkpoints: when a placeholder opens, and once the pattern is
// exhausted.
func matchPath(path, pattern string, seg *http.PathSegment) (bool, error) {
	var (
		pi, ci         int // pattern and path cursors
		pStart, cStart int // start of the current literal span in each
	)

	for pi < len(pattern) {
		if pattern[pi] != '{' {
			pi++
			ci++
			continue
		}

		closing := strings.IndexByte(pattern[pi+1:], '}')
		if closing == -1 {
			// Unterminated brace: the rest is literal.
			pi++
			ci++
			continue
		}

		if ci > len(path) || !optimize.EqualSpan(pattern[pStart:pi], path[cStart:ci]) {
			return false, nil
		}

		name := pattern[pi+1 : pi+1+closing]
		pi += closing + 2

		end := len(path)
		if pi < len(pattern) {
			if i := strings.IndexByte(path[ci:], pattern[pi]); i != -1 {
				end = ci + i
			}
		}
		if err := seg.Insert(name, path[ci:end]); err != nil {
			return false, err
		}

		ci = end
		pStart, cStart = pi, ci
	}

	if cStart > len(path) {
		return false, nil
	}
	return optimize.EqualSpan(pattern[pStart:], path[cStart:]), nil
}

// parseQuery splits on '&', then each fragment at its first '='.
// Empty fragments are kept as an empty key without a value.
func parseQuery(query string, seg *http.QuerySegment) error {
	for {
		pair, rest, more := strings.Cut(query, "&")
		key, value, hasValue := strings.Cut(pair, "=")
		if err := seg.Insert(key, value, hasValue); err != nil {
			return err
		}
		if !more {
			return nil
		}
		query = rest
	}
}

// ValidatePattern checks a pattern at registration time: it must start with
// '/', and braces must be balanced, non-nested and name non-empty placeholders.
func ValidatePattern(pattern string) error {
	if pattern == "" || pattern[0] != '/' {
		return fmt.Errorf("%w: %q must begin with '/'", ErrInvalidPattern, pattern)
	}

	open := -1
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			if open != -1 {
				return fmt.Errorf("%w: %q has nested '{' at %d", ErrInvalidPattern, pattern, i)
			}
			open = i
		case '}':
			if open == -1 {
				return fmt.Errorf("%w: %q has unmatched '}' at %d", ErrInvalidPattern, pattern, i)
			}
			if i == open+1 {
				return fmt.Errorf("%w: %q has an unnamed placeholder at %d", ErrInvalidPattern, pattern, open)
			}
			open = -1
		}
	}
	if open != -1 {
		return fmt.Errorf("%w: %q has unterminated '{' at %d", ErrInvalidPattern, pattern, open)
	}
	return nil
}

// Placeholders returns the placeholder names of a valid pattern in order.
func Placeholders(pattern string) []string {
	var names []string
	for {
		open := strings.IndexByte(pattern, '{')
		if open == -1 {
			return names
		}
		closing := strings.IndexByte(pattern[open:], '}')
		if closing == -1 {
			return names
		}
		names = append(names, pattern[open+1:open+closing])
		pattern = pattern[open+closing+1:]
	}
}
