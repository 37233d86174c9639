// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
	"golang.org/x/time/rate"

	"github.com/go-a2a/a2a"
	"github.com/go-a2a/a2a/auth"
)

// maxResponseSize bounds the bytes read from a non-streaming response.
const maxResponseSize = 16 << 20

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "go-a2a/" + a2a.Version

// Caller sends one request body and returns the response body.
//
// Call performs a single attempt; retrying is the caller's concern.
type Caller interface {
	Call(ctx context.Context, body []byte) ([]byte, error)
}

// Streamer opens a server-sent event stream for one request body.
type Streamer interface {
	Stream(ctx context.Context, body []byte) (io.ReadCloser, error)
}

// HTTPCaller is a [Caller] and [Streamer] that POSTs to a fixed endpoint.
type HTTPCaller struct {
	endpoint  string
	client    *http.Client
	config    Config
	auth      auth.Authenticator
	limiter   *rate.Limiter
	userAgent string
	header    http.Header
}

var (
	_ Caller   = (*HTTPCaller)(nil)
	_ Streamer = (*HTTPCaller)(nil)
)

// HTTPOption configures an [HTTPCaller].
type HTTPOption func(*HTTPCaller)

// WithHTTPClient sets the [*http.Client] used to send requests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPCaller) {
		h.client = c
	}
}

// WithAuthenticator sets the credentials strategy run before every attempt.
func WithAuthenticator(a auth.Authenticator) HTTPOption {
	return func(h *HTTPCaller) {
		h.auth = a
	}
}

// WithRateLimiter makes every attempt wait for a token from l.
func WithRateLimiter(l *rate.Limiter) HTTPOption {
	return func(h *HTTPCaller) {
		h.limiter = l
	}
}

// WithUserAgent overrides [DefaultUserAgent].
func WithUserAgent(ua string) HTTPOption {
	return func(h *HTTPCaller) {
		h.userAgent = ua
	}
}

// WithHeader adds a static header to every request.
func WithHeader(key, value string) HTTPOption {
	return func(h *HTTPCaller) {
		h.header.Add(key, value)
	}
}

// NewHTTPCaller returns an [HTTPCaller] for endpoint, which must be an absolute http or https URL.
func NewHTTPCaller(endpoint string, cfg Config, opts ...HTTPOption) (*HTTPCaller, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, a2a.Wrap(a2a.KindConfiguration, err, "invalid endpoint")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, a2a.Errorf(a2a.KindConfiguration, "endpoint must be an absolute http(s) URL: %q", endpoint)
	}

	h := &HTTPCaller{
		endpoint:  u.String(),
		client:    http.DefaultClient,
		config:    cfg,
		userAgent: DefaultUserAgent,
		header:    make(http.Header),
	}
	for _, o := range opts {
		o(h)
	}
	return h, nil
}

// Endpoint returns the URL requests are sent to.
func (h *HTTPCaller) Endpoint() string { return h.endpoint }

// Call implements [Caller]. The attempt is bounded by the configured timeout.
func (h *HTTPCaller) Call(ctx context.Context, body []byte) ([]byte, error) {
	if t := h.config.Timeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	resp, err := h.do(ctx, body, a2a.ContentTypeJSON)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp, data)
	}
	return data, nil
}

// Stream implements [Streamer]. The stream lives until ctx ends or the body
// is closed; the configured timeout does not apply.
func (h *HTTPCaller) Stream(ctx context.Context, body []byte) (io.ReadCloser, error) {
	resp, err := h.do(ctx, body, a2a.ContentTypeEventStream)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := readBody(resp)
		return nil, statusError(resp, data)
	}

	mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mt == a2a.ContentTypeJSON {
		// the request was rejected before streaming started
		defer resp.Body.Close()
		data, err := readBody(resp)
		if err != nil {
			return nil, classifyTransportError(ctx, err)
		}
		if e, ok := rpcErrorOf(data); ok {
			return nil, e
		}
		return nil, a2a.NewError(a2a.KindProtocolViolation, "expected an event stream")
	}
	if mt != a2a.ContentTypeEventStream {
		resp.Body.Close()
		return nil, a2a.Errorf(a2a.KindProtocolViolation, "unexpected stream content type %q", mt)
	}
	return bodyReader(resp)
}

func (h *HTTPCaller) do(ctx context.Context, body []byte, accept string) (*http.Response, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, classifyTransportError(ctx, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, a2a.Wrap(a2a.KindTransport, err, "create request")
	}
	for k, vs := range h.header {
		req.Header[k] = append([]string(nil), vs...)
	}
	req.Header.Set("Content-Type", a2a.ContentTypeJSON)
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", h.userAgent)
	if h.config.Compression() {
		req.Header.Set("Accept-Encoding", "gzip")
	} else {
		req.Header.Set("Accept-Encoding", "identity")
	}

	if h.auth != nil {
		if err := h.auth.Authenticate(ctx, req.Header); err != nil {
			return nil, err
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	return resp, nil
}

type gzipBody struct {
	*gzip.Reader
	body io.Closer
}

func (g gzipBody) Close() error {
	g.Reader.Close()
	return g.body.Close()
}

// bodyReader returns the decoded response body. Because Accept-Encoding is
// set explicitly, net/http does not decompress on its own.
func bodyReader(resp *http.Response) (io.ReadCloser, error) {
	if !strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		return resp.Body, nil
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, a2a.Wrap(a2a.KindSerialization, err, "open gzip body")
	}
	return gzipBody{Reader: zr, body: resp.Body}, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	rc, err := bodyReader(resp)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxResponseSize))
}

// classifyTransportError maps failures of the HTTP round trip to error kinds.
func classifyTransportError(ctx context.Context, err error) error {
	var e *a2a.Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return a2a.Wrap(a2a.KindTimeout, err, "request timeout")
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return a2a.Wrap(a2a.KindTimeout, err, "request timeout")
	}
	if IsConnectionClosedError(err) {
		return a2a.Wrap(a2a.KindNetwork, err, "connection closed")
	}
	return a2a.Wrap(a2a.KindNetwork, err, "send request")
}

// statusError maps a non-2xx response to an error kind. When the body is a
// JSON-RPC error envelope, its code takes precedence over the status.
func statusError(resp *http.Response, body []byte) error {
	if e, ok := rpcErrorOf(body); ok {
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			e.Kind = a2a.KindRateLimited
			e.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		case http.StatusUnauthorized, http.StatusForbidden:
			e.Kind = a2a.KindAuthentication
		}
		return e
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > 256 {
		msg = msg[:256]
	}
	if msg == "" {
		msg = resp.Status
	}

	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return a2a.NewError(a2a.KindAuthentication, msg)
	case code == http.StatusNotFound:
		return a2a.NewError(a2a.KindAgentNotFound, msg)
	case code == http.StatusTooManyRequests:
		return a2a.RateLimited(parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()), msg)
	case code == http.StatusBadRequest:
		return a2a.NewError(a2a.KindValidation, msg)
	case code == http.StatusUnprocessableEntity:
		return a2a.NewError(a2a.KindProtocolViolation, msg)
	case code >= 500:
		return &a2a.Error{Kind: a2a.KindServer, Message: msg, Code: code}
	default:
		return a2a.Errorf(a2a.KindTransport, "unexpected status %d: %s", code, msg)
	}
}

// rpcErrorOf decodes body as a JSON-RPC error response.
func rpcErrorOf(body []byte) (*a2a.Error, bool) {
	var resp a2a.Response
	if err := json.Unmarshal(body, &resp); err != nil || resp.JSONRPC != a2a.JSONRPCVersion || resp.Error == nil {
		return nil, false
	}
	return resp.Error.AsError(), true
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
