package middleware

import (
	"net"

	"github.com/searchktools/wire-server/core/http"
)

// Outcome is what a middleware decides for a request: continue down the chain
// (optionally with a replacement request) or short-circuit with a response.
type Outcome struct {
	request  *http.Request
	response *http.Response
}

// Continue passes req to the next stage. A nil req keeps the current request.
func Continue(req *http.Request) Outcome {
	return Outcome{request: req}
}

// ShortCircuit stops the chain; resp is sent verbatim and routing is skipped.
func ShortCircuit(resp *http.Response) Outcome {
	if resp == nil {
		resp = http.InternalServerError().Build()
	}
	return Outcome{response: resp}
}

// ShortCircuited reports whether the outcome ends the chain.
func (o Outcome) ShortCircuited() bool { return o.response != nil }

// Response returns the short-circuit response, or nil.
func (o Outcome) Response() *http.Response { return o.response }

// Request returns the replacement request, or nil.
func (o Outcome) Request() *http.Request { return o.request }

// HandlerFunc is a middleware stage. peer is the remote address of the
// connection the request arrived on; it may be nil.
type HandlerFunc func(req *http.Request, peer net.Addr) Outcome

// Pipeline is an ordered middleware chain. It is built during configuration
// and read-only once compiled.
type Pipeline struct {
	handlers []HandlerFunc
	compiled bool
}

// NewPipeline creates a new middleware pipeline
func NewPipeline() *Pipeline {
	return &Pipeline{
		handlers: make([]HandlerFunc, 0, 16),
	}
}

// Use appends a middleware. It panics once the pipeline is compiled.
func (p *Pipeline) Use(handler HandlerFunc) *Pipeline {
	if p.compiled {
		panic("middleware: Use after Compile")
	}
	if handler == nil {
		panic("middleware: nil handler")
	}
	p.handlers = append(p.handlers, handler)
	return p
}

// Len returns the number of middlewares.
func (p *Pipeline) Len() int { return len(p.handlers) }

// Compile trims the handler slice to its exact size and freezes the pipeline.
func (p *Pipeline) Compile() *Pipeline {
	if p.compiled {
		return p
	}
	compiled := make([]HandlerFunc, len(p.handlers))
	copy(compiled, p.handlers)
	p.handlers = compiled
	p.compiled = true
	return p
}

// Execute runs each middleware in order, then final with the (possibly
// replaced) request. The first short-circuit wins and nothing after it runs.
func (p *Pipeline) Execute(req *http.Request, peer net.Addr, final func(*http.Request) *http.Response) *http.Response {
	for _, h := range p.handlers {
		out := h(req, peer)
		if out.response != nil {
			return out.response
		}
		if out.request != nil {
			req = out.request
		}
	}
	return final(req)
}
