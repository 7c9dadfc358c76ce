package http

import "fmt"

// Method is an HTTP request method. Only the methods below are recognized.
type Method uint8

const (
	MethodGet Method = iota + 1
	MethodHead
	MethodOptions
	MethodPost
	MethodPut
	MethodPatch
	MethodDelete
)

var methodNames = [...]string{
	MethodGet:     "GET",
	MethodHead:    "HEAD",
	MethodOptions: "OPTIONS",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodPatch:   "PATCH",
	MethodDelete:  "DELETE",
}

// ParseMethod converts a request-line token into a Method.
func ParseMethod(b []byte) (Method, error) {
	switch string(b) {
	case "GET":
		return MethodGet, nil
	case "HEAD":
		return MethodHead, nil
	case "OPTIONS":
		return MethodOptions, nil
	case "POST":
		return MethodPost, nil
	case "PUT":
		return MethodPut, nil
	case "PATCH":
		return MethodPatch, nil
	case "DELETE":
		return MethodDelete, nil
	}
	return 0, fmt.Errorf("%w: unknown method %q", ErrMalformedRequest, b)
}

func (m Method) String() string {
	if m == 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", uint8(m))
	}
	return methodNames[m]
}

// Version is an HTTP protocol version.
type Version uint8

const (
	Version11 Version = iota + 1
)

// ParseVersion converts the last request-line token into a Version.
func ParseVersion(b []byte) (Version, error) {
	if string(b) == "HTTP/1.1" {
		return Version11, nil
	}
	return 0, fmt.Errorf("%w: unsupported version %q", ErrMalformedRequest, b)
}

func (v Version) String() string {
	switch v {
	case Version11:
		return "HTTP/1.1"
	default:
		return fmt.Sprintf("Version(%d)", uint8(v))
	}
}
