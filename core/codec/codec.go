// Package codec encodes handler values into text bodies and decodes request
// bodies back into values.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/searchktools/wire-server/core/http"
)

var (
	ErrUnsupportedCodec = errors.New("unsupported codec")
	ErrNotProtoMessage  = errors.New("value is not a proto.Message")
)

// Codec converts between values and text bodies. Bodies are always text, so
// binary encodings are not offered.
type Codec interface {
	Encode(v any) (string, error)
	Decode(body string, v any) error
	ContentType() string
	Name() string
}

// JSONCodec uses encoding/json.
type JSONCodec struct{}

func (JSONCodec) Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (JSONCodec) Decode(body string, v any) error {
	return json.Unmarshal([]byte(body), v)
}

func (JSONCodec) ContentType() string { return "application/json" }
func (JSONCodec) Name() string        { return "json" }

// ProtoJSONCodec encodes proto messages with the canonical protobuf JSON
// mapping.
type ProtoJSONCodec struct {
	Marshal   protojson.MarshalOptions
	Unmarshal protojson.UnmarshalOptions
}

func (c ProtoJSONCodec) Encode(v any) (string, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return "", fmt.Errorf("%w: %T", ErrNotProtoMessage, v)
	}
	b, err := c.Marshal.Marshal(msg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c ProtoJSONCodec) Decode(body string, v any) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotProtoMessage, v)
	}
	return c.Unmarshal.Unmarshal([]byte(body), msg)
}

func (ProtoJSONCodec) ContentType() string { return "application/json" }
func (ProtoJSONCodec) Name() string        { return "protojson" }

// Lookup returns a codec by name.
func Lookup(name string) (Codec, error) {
	switch name {
	case "json":
		return JSONCodec{}, nil
	case "protojson":
		return ProtoJSONCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCodec, name)
	}
}

// For picks ProtoJSONCodec for proto messages and JSONCodec for anything else.
func For(v any) Codec {
	if _, ok := v.(proto.Message); ok {
		return ProtoJSONCodec{}
	}
	return JSONCodec{}
}

// Respond encodes v into a response with an explicit Content-Type and
// Content-Length. Encoding failures yield a 500.
func Respond(status http.Status, v any) *http.Response {
	c := For(v)
	body, err := c.Encode(v)
	if err != nil {
		return http.InternalServerError().Body("encoding failed").Build()
	}
	return http.NewResponse(status).
		Header("Content-Type", c.ContentType()).
		Body(body).
		ContentLength().
		Build()
}

// Bind decodes the request body into v. Requests carrying a Content-Type
// other than JSON are refused.
func Bind(req *http.Request, v any) error {
	if ct, ok := req.Headers.Get("Content-Type"); ok && !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("%w: content type %q", ErrUnsupportedCodec, ct)
	}
	return For(v).Decode(req.Body, v)
}
