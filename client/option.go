// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/go-a2a/a2a/auth"
	"github.com/go-a2a/a2a/transport"
)

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets the [*http.Client] for the [Client].
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithAuthenticator sets the credentials attached to every request.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(c *Client) {
		c.auth = a
	}
}

// WithConfig sets the transport configuration.
func WithConfig(cfg transport.Config) Option {
	return func(c *Client) {
		c.config = cfg
	}
}

// WithRateLimit limits the client to r requests per second with the given burst.
// The limit is shared by the RPC and stream endpoints.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(r, burst)
	}
}

// WithInterceptors wraps every HTTP round trip in the given interceptors,
// outermost first.
func WithInterceptors(interceptors ...Interceptor) Option {
	return func(c *Client) {
		c.interceptors = append(c.interceptors, interceptors...)
	}
}

// WithLogger sets the [*slog.Logger] for the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTracer sets the [trace.Tracer] for the [Client].
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}
