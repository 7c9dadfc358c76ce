package http

import "strconv"

// Status is one of the response statuses the engine can emit.
type Status uint16

const (
	StatusOK                  Status = 200 // RFC 7231, 6.3.1
	StatusCreated             Status = 201 // RFC 7231, 6.3.2
	StatusNoContent           Status = 204 // RFC 7231, 6.3.5
	StatusBadRequest          Status = 400 // RFC 7231, 6.5.1
	StatusUnauthorized        Status = 401 // RFC 7235, 3.1
	StatusForbidden           Status = 403 // RFC 7231, 6.5.3
	StatusNotFound            Status = 404 // RFC 7231, 6.5.4
	StatusInternalServerError Status = 500 // RFC 7231, 6.6.1
	StatusBadGateway          Status = 502 // RFC 7231, 6.6.3
	StatusServiceUnavailable  Status = 503 // RFC 7231, 6.6.4
)

// Code returns the numeric status code.
func (s Status) Code() int {
	return int(s)
}

// Reason returns the reason phrase sent on the status line.
func (s Status) Reason() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusCreated:
		return "Created"
	case StatusNoContent:
		return "No Content"
	case StatusBadRequest:
		return "Bad Request"
	case StatusUnauthorized:
		return "Unauthorized"
	case StatusForbidden:
		return "Forbidden"
	case StatusNotFound:
		return "Not Found"
	case StatusInternalServerError:
		return "Internal Server Error"
	case StatusBadGateway:
		return "Bad Gateway"
	case StatusServiceUnavailable:
		return "Service Unavailable"
	default:
		return "Unknown"
	}
}

func (s Status) String() string {
	return strconv.Itoa(int(s)) + " " + s.Reason()
}
