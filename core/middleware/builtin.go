package middleware

import (
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/searchktools/wire-server/core/http"
)

// RequestIDHeader is the request header RequestID fills in.
const RequestIDHeader = "X-Request-ID"

// Logger logs one line per request at INFO.
func Logger(logger *slog.Logger) HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(req *http.Request, peer net.Addr) Outcome {
		logger.Info("request",
			slog.String("method", req.Method.String()),
			slog.String("uri", req.URI),
			slog.String("peer", peerString(peer)),
			slog.Int("body_bytes", len(req.Body)),
		)
		return Continue(nil)
	}
}

// RequestID tags each request with a random UUID unless the client already
// sent one. A full header store leaves the request untouched.
func RequestID() HandlerFunc {
	return func(req *http.Request, peer net.Addr) Outcome {
		if _, ok := req.Headers.Get(RequestIDHeader); ok {
			return Continue(nil)
		}
		_ = req.Headers.Add(RequestIDHeader, uuid.NewString())
		return Continue(nil)
	}
}

// CORSOptions configures preflight answers.
type CORSOptions struct {
	AllowOrigin  string `mapstructure:"allow_origin"`
	AllowMethods string `mapstructure:"allow_methods"`
	AllowHeaders string `mapstructure:"allow_headers"`
	MaxAge       int    `mapstructure:"max_age"`
}

// CORS answers OPTIONS preflight requests with 204 and the allow headers.
// Other methods pass through.
func CORS(opts CORSOptions) HandlerFunc {
	if opts.AllowOrigin == "" {
		opts.AllowOrigin = "*"
	}
	if opts.AllowMethods == "" {
		opts.AllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	}
	if opts.AllowHeaders == "" {
		opts.AllowHeaders = "Content-Type, Authorization"
	}

	b := http.NoContent().
		Header("Access-Control-Allow-Origin", opts.AllowOrigin).
		Header("Access-Control-Allow-Methods", opts.AllowMethods).
		Header("Access-Control-Allow-Headers", opts.AllowHeaders)
	if opts.MaxAge > 0 {
		b = b.Header("Access-Control-Max-Age", strconv.Itoa(opts.MaxAge))
	}
	preflight := b.Build()

	return func(req *http.Request, peer net.Addr) Outcome {
		if req.Method == http.MethodOptions {
			return ShortCircuit(preflight)
		}
		return Continue(nil)
	}
}

// RateLimiter allows requestsPerSecond requests per one-second window across
// all connections and answers 503 once the window is exhausted.
func RateLimiter(requestsPerSecond int) HandlerFunc {
	var (
		mu         sync.Mutex
		tokens     = requestsPerSecond
		lastRefill = time.Now()
	)

	return func(req *http.Request, peer net.Addr) Outcome {
		mu.Lock()
		now := time.Now()
		if now.Sub(lastRefill) >= time.Second {
			tokens = requestsPerSecond
			lastRefill = now
		}
		if tokens > 0 {
			tokens--
			mu.Unlock()
			return Continue(nil)
		}
		mu.Unlock()

		return ShortCircuit(http.ServiceUnavailable().
			Header("Retry-After", "1").
			Body("rate limit exceeded").
			Build())
	}
}

// PeerFilter answers 403 to peers inside any denied prefix. Peers whose
// address cannot be parsed (e.g. in-memory pipes) are let through.
func PeerFilter(deny []netip.Prefix) HandlerFunc {
	return func(req *http.Request, peer net.Addr) Outcome {
		addr, ok := peerAddr(peer)
		if !ok {
			return Continue(nil)
		}
		for _, prefix := range deny {
			if prefix.Contains(addr) {
				return ShortCircuit(http.Forbidden().Body("forbidden").Build())
			}
		}
		return Continue(nil)
	}
}

// RequireHeader answers 401 when key is absent. Lookup is case-sensitive.
func RequireHeader(key string) HandlerFunc {
	return func(req *http.Request, peer net.Addr) Outcome {
		if _, ok := req.Headers.Get(key); !ok {
			return ShortCircuit(http.Unauthorized().Body("missing " + key).Build())
		}
		return Continue(nil)
	}
}

func peerAddr(peer net.Addr) (netip.Addr, bool) {
	switch a := peer.(type) {
	case nil:
		return netip.Addr{}, false
	case *net.TCPAddr:
		addr := a.AddrPort().Addr().Unmap()
		return addr, addr.IsValid()
	}
	ap, err := netip.ParseAddrPort(peer.String())
	if err != nil {
		return netip.Addr{}, false
	}
	return ap.Addr().Unmap(), true
}

func peerString(peer net.Addr) string {
	if peer == nil {
		return "-"
	}
	return peer.String()
}
