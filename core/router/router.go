package router

import (
	"sync"

	"github.com/searchktools/wire-server/core/http"
)

// Route is an immutable (pattern, method, handler) tuple.
type Route struct {
	Pattern string
	Method  http.Method
	Handler http.Handler
}

// Router collects routes during configuration. Freeze hands out an immutable
// Table; any registration after that panics.
type Router struct {
	mu      sync.Mutex
	routes  []Route
	frozen  *Table
	matcher Matcher
}

// New creates a router whose matcher bounds segments to maxParams entries
// (0 selects http.DefaultMaxParams).
func New(maxParams int) *Router {
	return &Router{
		routes:  make([]Route, 0, 16),
		matcher: Matcher{MaxParams: maxParams},
	}
}

// Add registers a route. Routes are tried in registration order.
func (r *Router) Add(method http.Method, pattern string, handler http.Handler) {
	if err := ValidatePattern(pattern); err != nil {
		panic(err.Error())
	}
	if handler == nil {
		panic("router: nil handler for " + pattern)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen != nil {
		panic("router: route " + method.String() + " " + pattern + " added after Freeze")
	}
	r.routes = append(r.routes, Route{Pattern: pattern, Method: method, Handler: handler})
}

// Freeze returns the immutable route table. It is idempotent.
func (r *Router) Freeze() *Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen == nil {
		routes := make([]Route, len(r.routes))
		copy(routes, r.routes)
		r.frozen = &Table{routes: routes, matcher: r.matcher}
	}
	return r.frozen
}

// Len returns the number of registered routes.
func (r *Router) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.routes)
}

// Table is a frozen route list. It is read-only and safe for concurrent use.
type Table struct {
	routes  []Route
	matcher Matcher
}

// Find returns the first route whose pattern matches uri and whose method
// equals method, together with its params. A nil route means no match.
// err is non-nil only when a parameter segment overflowed.
func (t *Table) Find(method http.Method, uri string) (*Route, *http.Params, error) {
	for i := range t.routes {
		route := &t.routes[i]
		params, ok, err := t.matcher.Match(uri, route.Pattern)
		if err != nil {
			return nil, nil, err
		}
		if ok && route.Method == method {
			return route, params, nil
		}
	}
	return nil, nil, nil
}

// Routes returns a copy of the table's routes in registration order.
func (t *Table) Routes() []Route {
	routes := make([]Route, len(t.routes))
	copy(routes, t.routes)
	return routes
}
