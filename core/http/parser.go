package http

import (
	"bytes"
	"fmt"
	"unicode/utf8"
	"unsafe"
)

var (
	crlf     = []byte("\r\n")
	crlfCRLF = []byte("\r\n\r\n")
)

// unsafeString converts byte slice to string without allocation
// WARNING: The returned string shares memory with the byte slice
func unsafeString(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

// Parser turns raw request bytes into a Request.
type Parser struct {
	// MaxHeaders bounds the header store; 0 selects DefaultMaxHeaders.
	MaxHeaders int
}

// ParseRequest parses data with the default limits.
func ParseRequest(data []byte) (*Request, error) {
	return Parser{}.Parse(data)
}

// Parse is a zero-allocation HTTP parser: every string in the returned request
// points into data, which must stay unmodified while the request is in use.
func (p Parser) Parse(data []byte) (*Request, error) {
	req := AcquireRequest()
	req.Headers.max = p.MaxHeaders
	if req.Headers.max <= 0 {
		req.Headers.max = DefaultMaxHeaders
	}

	if err := p.parse(req, data); err != nil {
		ReleaseRequest(req)
		return nil, err
	}
	return req, nil
}

func (p Parser) parse(req *Request, data []byte) error {
	if !utf8.Valid(data) {
		return fmt.Errorf("%w: invalid UTF-8", ErrMalformedRequest)
	}

	lineEnd := bytes.Index(data, crlf)
	if lineEnd == -1 {
		return fmt.Errorf("%w: no CRLF after request line", ErrMalformedRequest)
	}
	if err := parseRequestLine(req, data[:lineEnd]); err != nil {
		return err
	}

	// The terminating CRLFCRLF may begin at the request line's own CRLF when
	// there are no headers at all.
	headerEnd := bytes.Index(data, crlfCRLF)
	if headerEnd == -1 {
		return fmt.Errorf("%w: no blank line after headers", ErrMalformedRequest)
	}
	if headerEnd > lineEnd {
		if err := parseHeaders(req, data[lineEnd+len(crlf):headerEnd]); err != nil {
			return err
		}
	}

	req.Body = unsafeString(data[headerEnd+len(crlfCRLF):])
	return nil
}

// parseRequestLine splits METHOD SP URI SP VERSION.
func parseRequestLine(req *Request, line []byte) error {
	sp1 := bytes.IndexByte(line, ' ')
	if sp1 == -1 {
		return fmt.Errorf("%w: request line has 1 token", ErrMalformedRequest)
	}
	sp2 := bytes.IndexByte(line[sp1+1:], ' ')
	if sp2 == -1 {
		return fmt.Errorf("%w: request line has 2 tokens", ErrMalformedRequest)
	}
	sp2 += sp1 + 1
	if bytes.IndexByte(line[sp2+1:], ' ') != -1 {
		return fmt.Errorf("%w: request line has more than 3 tokens", ErrMalformedRequest)
	}

	method, err := ParseMethod(line[:sp1])
	if err != nil {
		return err
	}
	version, err := ParseVersion(line[sp2+1:])
	if err != nil {
		return err
	}
	uri := line[sp1+1 : sp2]
	if len(uri) == 0 {
		return fmt.Errorf("%w: empty request URI", ErrMalformedRequest)
	}

	req.Method = method
	req.URI = unsafeString(uri)
	req.Version = version
	return nil
}

// parseHeaders reads KEY ":" [SP] VALUE lines separated by CRLF.
func parseHeaders(req *Request, block []byte) error {
	for {
		lineEnd := bytes.Index(block, crlf)
		line := block
		if lineEnd != -1 {
			line = block[:lineEnd]
		}

		colon := bytes.IndexByte(line, ':')
		if colon == -1 {
			return fmt.Errorf("%w: header line without colon: %q", ErrMalformedRequest, line)
		}
		valueStart := colon + 1
		if valueStart < len(line) && line[valueStart] == ' ' {
			valueStart++
		}
		if err := req.Headers.Add(unsafeString(line[:colon]), unsafeString(line[valueStart:])); err != nil {
			return err
		}

		if lineEnd == -1 {
			return nil
		}
		block = block[lineEnd+len(crlf):]
	}
}
