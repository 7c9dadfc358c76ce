package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenAcceptsConnections(t *testing.T) {
	ln, err := Listen(context.Background(), Config{Addr: "127.0.0.1:0"})
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	select {
	case c := <-accepted:
		c.Close()
	case <-time.After(5 * time.Second):
		t.Fatal("connection was not accepted")
	}
}

func TestListenReusePort(t *testing.T) {
	first, err := Listen(context.Background(), Config{Addr: "127.0.0.1:0", ReusePort: true})
	require.NoError(t, err)
	defer first.Close()

	second, err := Listen(context.Background(), Config{Addr: first.Addr().String(), ReusePort: true})
	if err != nil {
		t.Skipf("SO_REUSEPORT not supported here: %v", err)
	}
	second.Close()
}

func TestListenLimit(t *testing.T) {
	ln, err := Listen(context.Background(), Config{Addr: "127.0.0.1:0", MaxConnections: 1})
	require.NoError(t, err)
	defer ln.Close()

	dial := func() net.Conn {
		c, err := net.Dial("tcp", ln.Addr().String())
		require.NoError(t, err)
		t.Cleanup(func() { c.Close() })
		return c
	}
	dial()
	dial()

	first, err := ln.Accept()
	require.NoError(t, err)

	// The limiter holds the second Accept until the first connection closes.
	second := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			second <- c
		}
	}()

	select {
	case c := <-second:
		c.Close()
		t.Fatal("accepted past the connection limit")
	case <-time.After(100 * time.Millisecond):
	}

	first.Close()
	select {
	case c := <-second:
		c.Close()
	case <-time.After(5 * time.Second):
		t.Fatal("second connection never accepted")
	}
}

func TestListenBadAddress(t *testing.T) {
	_, err := Listen(context.Background(), Config{Addr: "not-an-address"})
	assert.Error(t, err)
}
