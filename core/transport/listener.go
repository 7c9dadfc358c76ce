// Package transport opens the TCP listeners the engine serves on.
package transport

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/netutil"
)

// Config describes a listening socket.
type Config struct {
	Network string // "tcp" when empty
	Addr    string

	// ReusePort sets SO_REUSEPORT so several processes can share the port.
	ReusePort bool

	// MaxConnections caps concurrently accepted connections; 0 is unlimited.
	MaxConnections int
}

// Listen opens a listener with SO_REUSEADDR set (and SO_REUSEPORT when
// requested), wrapped in a connection limiter when MaxConnections > 0.
func Listen(ctx context.Context, cfg Config) (net.Listener, error) {
	network := cfg.Network
	if network == "" {
		network = "tcp"
	}

	lc := net.ListenConfig{Control: control(cfg)}
	ln, err := lc.Listen(ctx, network, cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}

	if cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConnections)
	}
	return ln, nil
}
