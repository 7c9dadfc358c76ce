package http

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPostRequest = "POST /user HTTP/1.1\r\n" +
	"Host: localhost:8080\r\n" +
	"User-Agent: curl/7.81.0\r\n" +
	"Accept: */*\r\n" +
	"Content-Type: application/json\r\n" +
	"Content-Length: 26\r\n" +
	"\r\n" +
	`{"message": "hello world"}`

func TestParseRequest_GetWithQuery(t *testing.T) {
	req, err := ParseRequest([]byte("GET /a/b?x=1&y HTTP/1.1\r\nHost: h\r\n\r\n"))
	require.NoError(t, err)
	defer ReleaseRequest(req)

	assert.Equal(t, MethodGet, req.Method)
	assert.Equal(t, "/a/b?x=1&y", req.URI)
	assert.Equal(t, Version11, req.Version)
	assert.Equal(t, 1, req.Headers.Len())
	assert.Equal(t, "h", req.Header("Host"))
	assert.Equal(t, "", req.Body)
	assert.Equal(t, "/a/b", req.Path())
	assert.Equal(t, "x=1&y", req.RawQuery())
}

func TestParseRequest_PostWithBody(t *testing.T) {
	req, err := ParseRequest([]byte(testPostRequest))
	require.NoError(t, err)
	defer ReleaseRequest(req)

	assert.Equal(t, MethodPost, req.Method)
	assert.Equal(t, "/user", req.URI)
	assert.Equal(t, 5, req.Headers.Len())

	var keys []string
	for k := range req.Headers.All() {
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"Host", "User-Agent", "Accept", "Content-Type", "Content-Length"}, keys)
	assert.Equal(t, "26", req.Header("Content-Length"))
	assert.Equal(t, `{"message": "hello world"}`, req.Body)
}

func TestParseRequest_NoHeaders(t *testing.T) {
	req, err := ParseRequest([]byte("POST /user HTTP/1.1\r\n\r\n{\"message\": \"hello world\"}"))
	require.NoError(t, err)
	defer ReleaseRequest(req)

	assert.Equal(t, 0, req.Headers.Len())
	assert.Equal(t, `{"message": "hello world"}`, req.Body)
}

func TestParseRequest_HeaderSpacing(t *testing.T) {
	raw := "GET / HTTP/1.1\r\n" +
		"Accept:*/*\r\n" +
		"Content-Type:application/json\r\n" +
		"X-Two:  two spaces\r\n" +
		"X-Empty:\r\n" +
		"X-Colon: a:b\r\n" +
		"\r\n"
	req, err := ParseRequest([]byte(raw))
	require.NoError(t, err)
	defer ReleaseRequest(req)

	assert.Equal(t, "*/*", req.Header("Accept"))
	assert.Equal(t, "application/json", req.Header("Content-Type"))
	assert.Equal(t, " two spaces", req.Header("X-Two"))
	assert.Equal(t, "a:b", req.Header("X-Colon"))

	v, ok := req.Headers.Get("X-Empty")
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestParseRequest_DuplicateHeadersKept(t *testing.T) {
	req, err := ParseRequest([]byte("GET / HTTP/1.1\r\nX-A: 1\r\nX-A: 2\r\n\r\n"))
	require.NoError(t, err)
	defer ReleaseRequest(req)

	assert.Equal(t, "1", req.Header("X-A"))
	assert.Equal(t, []string{"1", "2"}, req.Headers.Values("X-A"))
	_, ok := req.Headers.Get("x-a")
	assert.False(t, ok, "lookup is case-sensitive")
}

func TestParseRequest_AllMethods(t *testing.T) {
	for _, m := range []Method{MethodGet, MethodHead, MethodOptions, MethodPost, MethodPut, MethodPatch, MethodDelete} {
		req, err := ParseRequest([]byte(m.String() + " / HTTP/1.1\r\n\r\n"))
		require.NoError(t, err, m.String())
		assert.Equal(t, m, req.Method)
		ReleaseRequest(req)
	}
}

func TestParseRequest_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no crlf", "GET / HTTP/1.1"},
		{"one token", "GET\r\n\r\n"},
		{"two tokens", "GET /\r\n\r\n"},
		{"four tokens", "GET / HTTP/1.1 extra\r\n\r\n"},
		{"double space", "GET  / HTTP/1.1\r\n\r\n"},
		{"empty uri", "GET  HTTP/1.1\r\n\r\n"},
		{"unknown method", "BREW / HTTP/1.1\r\n\r\n"},
		{"lowercase method", "get / HTTP/1.1\r\n\r\n"},
		{"unknown version", "GET / HTTP/1.0\r\n\r\n"},
		{"header without colon", "GET / HTTP/1.1\r\nHost\r\n\r\n"},
		{"no blank line", "GET / HTTP/1.1\r\nHost: h\r\n"},
		{"invalid utf8 uri", "GET /\xff HTTP/1.1\r\n\r\n"},
		{"invalid utf8 body", "POST / HTTP/1.1\r\n\r\n\xc3\x28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest([]byte(tt.raw))
			assert.Nil(t, req)
			assert.ErrorIs(t, err, ErrMalformedRequest)
		})
	}
}

func TestParseRequest_HeaderCapacity(t *testing.T) {
	var b strings.Builder
	b.WriteString("GET / HTTP/1.1\r\n")
	for i := 0; i < 4; i++ {
		b.WriteString("X-H: v\r\n")
	}
	b.WriteString("\r\n")

	_, err := Parser{MaxHeaders: 3}.Parse([]byte(b.String()))
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	req, err := Parser{MaxHeaders: 4}.Parse([]byte(b.String()))
	require.NoError(t, err)
	assert.Equal(t, 4, req.Headers.Len())
	ReleaseRequest(req)
}

func TestParseRequest_ViewsAliasBuffer(t *testing.T) {
	buf := []byte("GET /abc HTTP/1.1\r\n\r\n")
	req, err := ParseRequest(buf)
	require.NoError(t, err)
	defer ReleaseRequest(req)

	buf[5] = 'x'
	assert.Equal(t, "/xbc", req.URI, "URI is a view into the read buffer")
}

func TestRequestString(t *testing.T) {
	req, err := ParseRequest([]byte("GET /a HTTP/1.1\r\nHost: h\r\n\r\nbody"))
	require.NoError(t, err)
	defer ReleaseRequest(req)

	s := req.String()
	assert.Contains(t, s, "Method: GET")
	assert.Contains(t, s, "Uri: /a")
	assert.Contains(t, s, `Host="h"`)
	assert.Contains(t, s, `Body: "body"`)
}

func BenchmarkParseRequest(b *testing.B) {
	data := []byte(testPostRequest)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		req, err := ParseRequest(data)
		if err != nil {
			b.Fatal(err)
		}
		ReleaseRequest(req)
	}
}
