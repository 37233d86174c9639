// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"log/slog"
	"net/http"
	"time"
)

// Interceptor wraps an HTTP round trip. It may modify req before calling
// next, or inspect the response after.
type Interceptor func(req *http.Request, next Invoker) (*http.Response, error)

// Invoker represents the next handler in the interceptor chain.
type Invoker func(req *http.Request) (*http.Response, error)

type interceptedTransport struct {
	next Invoker
}

func (t interceptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.next(req)
}

// chain wraps base in interceptors, the first outermost.
func chain(base http.RoundTripper, interceptors []Interceptor) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	invoker := Invoker(base.RoundTrip)
	for i := len(interceptors) - 1; i >= 0; i-- {
		interceptor, next := interceptors[i], invoker
		invoker = func(req *http.Request) (*http.Response, error) {
			return interceptor(req, next)
		}
	}
	return interceptedTransport{next: invoker}
}

// LoggingInterceptor logs every round trip at debug level.
func LoggingInterceptor(logger *slog.Logger) Interceptor {
	return func(req *http.Request, next Invoker) (*http.Response, error) {
		start := time.Now()
		resp, err := next(req)
		attrs := []any{
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.Duration("elapsed", time.Since(start)),
		}
		if err != nil {
			logger.DebugContext(req.Context(), "a2a request failed", append(attrs, slog.Any("error", err))...)
			return resp, err
		}
		logger.DebugContext(req.Context(), "a2a request", append(attrs, slog.Int("status", resp.StatusCode))...)
		return resp, nil
	}
}

// HeaderInterceptor sets static headers on every request.
func HeaderInterceptor(headers map[string]string) Interceptor {
	return func(req *http.Request, next Invoker) (*http.Response, error) {
		req = req.Clone(req.Context())
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return next(req)
	}
}
