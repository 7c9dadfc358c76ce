/*
Package wireserver is a minimal HTTP/1.1 server engine built from small, bounded parts.

Each accepted connection serves exactly one request: the engine reads once into a
pooled buffer, parses the request line and headers in place, runs the middleware
pipeline, tries the registered routes in order and writes the response before
closing the connection.

Features

  - Single-read request parsing with bounded header and parameter capacity
  - Pattern routes with {name} placeholders and query-string capture
  - Middleware pipeline with continue / short-circuit outcomes
  - Frozen route registry shared by every connection
  - Builder-style responses with explicit Content-Length
  - JSON and protobuf-JSON body codecs
  - OpenTelemetry traces, metrics and log bridging over OTLP/gRPC
  - Viper-based configuration with validation and a sample writer

Quick Start

package main

import (
    "context"

    "github.com/searchktools/wire-server/app"
    "github.com/searchktools/wire-server/config"
    "github.com/searchktools/wire-server/core/http"
)

func main() {
    cfg, _ := config.New()
    application, _ := app.New(context.Background(), cfg)

    application.Engine().GET("/hello/{name}", func(req *http.Request, params *http.Params) *http.Response {
        return http.OK().Body("Hello, " + params.Param("name")).ContentLength().Build()
    })

    application.Run(context.Background())
}

Modules

  - app: Application lifecycle (telemetry, logging, engine, signals)
  - config: Configuration loading, defaults and validation
  - logging: slog construction and the OpenTelemetry log bridge
  - core: Connection engine (accept, read, dispatch, write)
  - core/http: Request parsing, headers, params and responses
  - core/router: Pattern matching and the frozen route table
  - core/middleware: Middleware pipeline and built-in middlewares
  - core/codec: Body encoding for handlers
  - core/pools: Buffer and worker pools
  - core/transport: Listener setup
  - core/optimize: SIMD-assisted byte comparison
  - core/observability: Metrics, tracing and exporter setup

Non-goals

Chunked transfer encoding, keep-alive, TLS and HTTP/2 are not supported.
Header names are matched case-sensitively.
*/
package wireserver
