package middleware

import (
	"fmt"
	"log/slog"
	"net/netip"

	"github.com/mitchellh/mapstructure"
)

// Names accepted by Build.
const (
	NameLogger        = "logger"
	NameRequestID     = "request_id"
	NameCORS          = "cors"
	NameRateLimiter   = "rate_limiter"
	NamePeerFilter    = "peer_filter"
	NameRequireHeader = "require_header"
)

// Build creates a middleware from its configured name and options map.
//
// Options are decoded per middleware:
//   - cors: allow_origin, allow_methods, allow_headers, max_age
//   - rate_limiter: requests_per_second (required, > 0)
//   - peer_filter: deny (list of CIDR prefixes)
//   - require_header: header (required)
//
// logger and request_id take no options.
func Build(name string, options map[string]any, logger *slog.Logger) (HandlerFunc, error) {
	switch name {
	case NameLogger:
		return Logger(logger), nil
	case NameRequestID:
		return RequestID(), nil
	case NameCORS:
		var opts CORSOptions
		if err := mapstructure.Decode(options, &opts); err != nil {
			return nil, fmt.Errorf("failed to decode cors options: %w", err)
		}
		return CORS(opts), nil
	case NameRateLimiter:
		return buildRateLimiter(options)
	case NamePeerFilter:
		return buildPeerFilter(options)
	case NameRequireHeader:
		return buildRequireHeader(options)
	default:
		return nil, fmt.Errorf("unknown middleware: %q", name)
	}
}

func buildRateLimiter(options map[string]any) (HandlerFunc, error) {
	type rateLimiterOptions struct {
		RequestsPerSecond int `mapstructure:"requests_per_second"`
	}

	var opts rateLimiterOptions
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &opts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return nil, fmt.Errorf("failed to decode rate_limiter options: %w", err)
	}
	if opts.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("rate_limiter: requests_per_second must be positive")
	}
	return RateLimiter(opts.RequestsPerSecond), nil
}

func buildPeerFilter(options map[string]any) (HandlerFunc, error) {
	type peerFilterOptions struct {
		Deny []string `mapstructure:"deny"`
	}

	var opts peerFilterOptions
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode peer_filter options: %w", err)
	}

	deny := make([]netip.Prefix, 0, len(opts.Deny))
	for _, s := range opts.Deny {
		prefix, err := netip.ParsePrefix(s)
		if err != nil {
			addr, addrErr := netip.ParseAddr(s)
			if addrErr != nil {
				return nil, fmt.Errorf("peer_filter: invalid deny entry %q: %w", s, err)
			}
			prefix = netip.PrefixFrom(addr, addr.BitLen())
		}
		deny = append(deny, prefix.Masked())
	}
	return PeerFilter(deny), nil
}

func buildRequireHeader(options map[string]any) (HandlerFunc, error) {
	type requireHeaderOptions struct {
		Header string `mapstructure:"header"`
	}

	var opts requireHeaderOptions
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode require_header options: %w", err)
	}
	if opts.Header == "" {
		return nil, fmt.Errorf("require_header: header is required")
	}
	return RequireHeader(opts.Header), nil
}
