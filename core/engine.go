package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/searchktools/wire-server/core/http"
	"github.com/searchktools/wire-server/core/middleware"
	"github.com/searchktools/wire-server/core/observability"
	"github.com/searchktools/wire-server/core/pools"
	"github.com/searchktools/wire-server/core/router"
	"github.com/searchktools/wire-server/core/transport"
)

// Limits bounds what a single request may occupy.
type Limits struct {
	ReadBufferSize int // bytes read per connection
	MaxHeaders     int
	MaxParams      int // per parameter segment (path and query separately)
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		ReadBufferSize: pools.DefaultBufferSize,
		MaxHeaders:     http.DefaultMaxHeaders,
		MaxParams:      http.DefaultMaxParams,
	}
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMonitor replaces the telemetry monitor. nil disables telemetry.
func WithMonitor(m *observability.Monitor) Option {
	return func(e *Engine) { e.monitor = m }
}

// WithScheduler selects how connection tasks are run. The default starts one
// goroutine per connection.
func WithScheduler(s pools.Scheduler) Option {
	return func(e *Engine) { e.scheduler = s }
}

func WithLimits(l Limits) Option {
	return func(e *Engine) { e.limits = l }
}

// WithTimeouts sets per-connection read and write deadlines; 0 disables one.
func WithTimeouts(read, write time.Duration) Option {
	return func(e *Engine) {
		e.readTimeout = read
		e.writeTimeout = write
	}
}

// WithListener sets socket options Run uses. Addr is ignored.
func WithListener(cfg transport.Config) Option {
	return func(e *Engine) { e.listen = cfg }
}

// registry is the read-only route table and middleware chain shared by
// every connection.
type registry struct {
	routes   *router.Table
	pipeline *middleware.Pipeline
}

// Engine is a one-request-per-connection HTTP/1.1 server. Routes and
// middleware are registered first; the first Serve (or an explicit Freeze)
// makes them read-only for the rest of the engine's life.
type Engine struct {
	router   *router.Router
	pipeline *middleware.Pipeline
	state    atomic.Pointer[registry]
	freeze   sync.Once

	limits       Limits
	parser       http.Parser
	buffers      *pools.BytePool
	readTimeout  time.Duration
	writeTimeout time.Duration
	scheduler    pools.Scheduler
	listen       transport.Config

	logger  *slog.Logger
	monitor *observability.Monitor

	mu        sync.Mutex
	listeners map[net.Listener]struct{}
	conns     sync.WaitGroup
	active    atomic.Int64
	closing   atomic.Bool
}

// NewEngine creates a new engine instance
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		pipeline:     middleware.NewPipeline(),
		limits:       DefaultLimits(),
		readTimeout:  10 * time.Second,
		writeTimeout: 10 * time.Second,
		scheduler:    pools.GoScheduler{},
		logger:       slog.Default(),
		monitor:      observability.Global(),
		listeners:    make(map[net.Listener]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.limits.ReadBufferSize <= 0 {
		e.limits.ReadBufferSize = pools.DefaultBufferSize
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	if e.scheduler == nil {
		e.scheduler = pools.GoScheduler{}
	}
	e.router = router.New(e.limits.MaxParams)
	e.parser = http.Parser{MaxHeaders: e.limits.MaxHeaders}
	e.buffers = pools.NewBytePool(e.limits.ReadBufferSize)
	return e
}

// Use appends a middleware. It panics after Freeze.
func (e *Engine) Use(mw middleware.HandlerFunc) *Engine {
	e.pipeline.Use(mw)
	return e
}

// Handle registers a route. Routes are tried in registration order. It
// panics on an invalid pattern or after Freeze.
func (e *Engine) Handle(method http.Method, pattern string, handler http.Handler) {
	e.router.Add(method, pattern, handler)
}

// GET registers a GET route
func (e *Engine) GET(pattern string, handler http.Handler) { e.Handle(http.MethodGet, pattern, handler) }

// POST registers a POST route
func (e *Engine) POST(pattern string, handler http.Handler) { e.Handle(http.MethodPost, pattern, handler) }

// PUT registers a PUT route
func (e *Engine) PUT(pattern string, handler http.Handler) { e.Handle(http.MethodPut, pattern, handler) }

// PATCH registers a PATCH route
func (e *Engine) PATCH(pattern string, handler http.Handler) { e.Handle(http.MethodPatch, pattern, handler) }

// DELETE registers a DELETE route
func (e *Engine) DELETE(pattern string, handler http.Handler) {
	e.Handle(http.MethodDelete, pattern, handler)
}

// HEAD registers a HEAD route
func (e *Engine) HEAD(pattern string, handler http.Handler) { e.Handle(http.MethodHead, pattern, handler) }

// OPTIONS registers an OPTIONS route
func (e *Engine) OPTIONS(pattern string, handler http.Handler) {
	e.Handle(http.MethodOptions, pattern, handler)
}

// Freeze makes the registry read-only. Later calls are no-ops.
func (e *Engine) Freeze() {
	e.freeze.Do(func() {
		e.state.Store(&registry{
			routes:   e.router.Freeze(),
			pipeline: e.pipeline.Compile(),
		})
	})
}

func (e *Engine) snapshot() *registry {
	if st := e.state.Load(); st != nil {
		return st
	}
	e.Freeze()
	return e.state.Load()
}

// Dispatch runs the middleware chain, then the first route whose pattern
// matches and whose method equals the request's, falling back to 404. It
// freezes the engine if that has not happened yet.
func (e *Engine) Dispatch(req *http.Request, peer net.Addr) *http.Response {
	resp, _ := e.dispatch(e.snapshot(), req, peer)
	return resp
}

func (e *Engine) dispatch(st *registry, req *http.Request, peer net.Addr) (resp *http.Response, route string) {
	resp = st.pipeline.Execute(req, peer, func(req *http.Request) *http.Response {
		r, params, err := st.routes.Find(req.Method, req.URI)
		if err != nil {
			e.logger.Warn("rejecting request", slog.String("peer", peerString(peer)), slog.Any("error", err))
			return http.BadRequest().Build()
		}
		if r == nil {
			return http.NotFound().Build()
		}
		route = r.Pattern
		if resp := r.Handler(req, params); resp != nil {
			return resp
		}
		e.logger.Error("handler returned no response", slog.String("route", r.Pattern))
		return http.InternalServerError().Build()
	})
	return resp, route
}

// ServeConn handles exactly one request on conn and closes it. The read
// buffer belongs to this call until the response has been written.
func (e *Engine) ServeConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	e.active.Add(1)
	e.monitor.ConnectionOpened(ctx)
	defer func() {
		e.active.Add(-1)
		e.monitor.ConnectionClosed(ctx)
	}()

	peer := conn.RemoteAddr()
	e.logger.Debug("connection accepted", slog.String("peer", peerString(peer)))

	buf := e.buffers.Get(e.limits.ReadBufferSize)
	defer e.buffers.Put(buf)
	data := (*buf)[:e.limits.ReadBufferSize]

	if e.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(e.readTimeout))
	}
	n, err := conn.Read(data)
	if n == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			e.logger.Debug("read failed", slog.String("peer", peerString(peer)), slog.Any("error", err))
		}
		return
	}

	start := time.Now()
	req, err := e.parse(data, n)
	if err != nil {
		e.reject(ctx, conn, peer, err)
		return
	}
	defer http.ReleaseRequest(req)

	ctx, span := e.monitor.StartRequest(ctx, req)
	resp, route := e.safeDispatch(ctx, req, peer)

	if e.writeTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(e.writeTimeout))
	}
	if _, err := resp.WriteTo(conn); err != nil {
		e.logger.Warn("write failed", slog.String("peer", peerString(peer)), slog.Any("error", err))
	}
	e.monitor.EndRequest(ctx, span, req.Method.String(), route, resp.Status.Code(), time.Since(start))
}

// parse rejects reads that filled the whole buffer, since the request may
// have been cut short.
func (e *Engine) parse(data []byte, n int) (*http.Request, error) {
	if n >= len(data) {
		return nil, fmt.Errorf("%w: request exceeds %d byte read buffer", http.ErrCapacityExceeded, len(data))
	}
	return e.parser.Parse(data[:n])
}

func (e *Engine) reject(ctx context.Context, conn net.Conn, peer net.Addr, err error) {
	reason := "malformed"
	if errors.Is(err, http.ErrCapacityExceeded) {
		reason = "capacity"
	}
	e.monitor.ParseError(ctx, reason)
	e.logger.Warn("rejecting request", slog.String("peer", peerString(peer)), slog.Any("error", err))

	if e.writeTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(e.writeTimeout))
	}
	_, _ = http.BadRequest().Build().WriteTo(conn)
}

// safeDispatch turns a handler or middleware panic into a 500 that only
// affects this connection.
func (e *Engine) safeDispatch(ctx context.Context, req *http.Request, peer net.Addr) (resp *http.Response, route string) {
	defer func() {
		if r := recover(); r != nil {
			e.monitor.Panic(ctx)
			e.logger.Error("panic recovered",
				slog.String("peer", peerString(peer)),
				slog.String("uri", req.URI),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			resp = http.InternalServerError().Build()
		}
	}()
	return e.dispatch(e.snapshot(), req, peer)
}

// ErrServerClosed is returned by Serve and Run after Shutdown.
var ErrServerClosed = errors.New("wire-server: server closed")

// Serve accepts connections on ln until ctx is cancelled or Shutdown is
// called, handing each one to the scheduler. It always returns a non-nil
// error; after a normal stop that error is ErrServerClosed.
func (e *Engine) Serve(ctx context.Context, ln net.Listener) error {
	e.Freeze()
	if !e.track(ln) {
		ln.Close()
		return ErrServerClosed
	}
	defer e.untrack(ln)

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	e.logger.Info("server listening", slog.String("addr", ln.Addr().String()))

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if e.closing.Load() || ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return ErrServerClosed
			}
			delay = max(2*delay, 5*time.Millisecond)
			delay = min(delay, time.Second)
			e.logger.Error("accept failed", slog.Any("error", err), slog.Duration("retry_in", delay))
			time.Sleep(delay)
			continue
		}
		delay = 0

		e.conns.Add(1)
		e.scheduler.Go(func() {
			defer e.conns.Done()
			e.ServeConn(ctx, conn)
		})
	}
}

// Run listens on addr with the engine's transport settings and serves.
func (e *Engine) Run(ctx context.Context, addr string) error {
	cfg := e.listen
	cfg.Addr = addr
	ln, err := transport.Listen(ctx, cfg)
	if err != nil {
		return err
	}
	return e.Serve(ctx, ln)
}

// Shutdown closes every listener and waits for in-flight connections to
// finish or for ctx to expire.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.closing.Store(true)

	e.mu.Lock()
	for ln := range e.listeners {
		ln.Close()
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown with %d connections in flight: %w", e.active.Load(), ctx.Err())
	}
}

// ActiveConnections returns the number of connections being served.
func (e *Engine) ActiveConnections() int64 {
	return e.active.Load()
}

// Routes returns the registered routes in the order they are tried. It
// freezes the engine.
func (e *Engine) Routes() []router.Route {
	return e.snapshot().routes.Routes()
}

func (e *Engine) track(ln net.Listener) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closing.Load() {
		return false
	}
	e.listeners[ln] = struct{}{}
	return true
}

func (e *Engine) untrack(ln net.Listener) {
	e.mu.Lock()
	delete(e.listeners, ln)
	e.mu.Unlock()
}

func peerString(peer net.Addr) string {
	if peer == nil {
		return "-"
	}
	return peer.String()
}
