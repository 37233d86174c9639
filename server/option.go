// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a/auth"
)

// Option represents an option for configuring the [Server].
type Option func(*Server)

// WithAddr sets the address [Server.Run] listens on.
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithLogger sets the [*slog.Logger] for the [Server].
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTracer sets the [trace.Tracer] for the [Server].
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}

// WithKeepAlive sets the interval of keep-alive comments on event streams.
func WithKeepAlive(d time.Duration) Option {
	return func(s *Server) {
		s.keepAlive = d
	}
}

// WithStreamMethod selects the HTTP method of the stream endpoint,
// [http.MethodPost] or [http.MethodGet].
func WithStreamMethod(method string) Option {
	return func(s *Server) {
		s.streamMethod = method
	}
}

// WithMetricsHandler serves h on the metrics path.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithShutdownTimeout bounds the graceful shutdown of [Server.Run].
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// WithVerifier makes the RPC and stream endpoints require credentials
// accepted by v.
func WithVerifier(v auth.Verifier) Option {
	return func(s *Server) {
		s.verifier = v
	}
}
