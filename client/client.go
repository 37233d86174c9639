// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package client talks to a remote A2A agent over the JSON-RPC binding.
//
// A [Client] composes a [transport.JSONRPCTransport] for the RPC endpoint
// with a streamer for the event-stream endpoint:
//
//	c, err := client.New("http://localhost:8080")
//	if err != nil {
//		return err
//	}
//	reply, err := c.SendText(ctx, "hello")
package client

import (
	"context"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/go-a2a/a2a"
	"github.com/go-a2a/a2a/auth"
	"github.com/go-a2a/a2a/internal/telemetry"
	"github.com/go-a2a/a2a/transport"
)

// Client is a facade over the A2A operations of one remote agent.
// It is safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	auth         auth.Authenticator
	config       transport.Config
	limiter      *rate.Limiter
	interceptors []Interceptor
	logger       *slog.Logger
	tracer       trace.Tracer

	transport *transport.JSONRPCTransport
}

var _ transport.StreamingTransport = (*Client)(nil)

// New returns a [Client] for the agent served at baseURL, which must be an
// absolute http or https URL. Requests go to baseURL + [a2a.RPCPath] and
// streams to baseURL + [a2a.StreamPath].
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, a2a.Wrap(a2a.KindConfiguration, err, "invalid base URL")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, a2a.Errorf(a2a.KindConfiguration, "base URL must be an absolute http(s) URL: %q", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: http.DefaultClient,
		config:     transport.DefaultConfig(),
		logger:     slog.Default(),
		tracer:     otel.Tracer(telemetry.ScopeName),
	}
	for _, o := range opts {
		o(c)
	}
	if len(c.interceptors) > 0 {
		hc := *c.httpClient
		hc.Transport = chain(hc.Transport, c.interceptors)
		c.httpClient = &hc
	}

	hopts := []transport.HTTPOption{transport.WithHTTPClient(c.httpClient)}
	if c.auth != nil {
		hopts = append(hopts, transport.WithAuthenticator(c.auth))
	}
	if c.limiter != nil {
		hopts = append(hopts, transport.WithRateLimiter(c.limiter))
	}
	rpc, err := transport.NewHTTPCaller(c.baseURL+a2a.RPCPath, c.config, hopts...)
	if err != nil {
		return nil, err
	}
	stream, err := transport.NewHTTPCaller(c.baseURL+a2a.StreamPath, c.config, hopts...)
	if err != nil {
		return nil, err
	}

	c.transport = transport.NewJSONRPCTransport(rpc, c.config,
		transport.WithStreamer(stream),
		transport.WithLogger(c.logger),
		transport.WithTracer(c.tracer),
	)
	return c, nil
}

// BaseURL returns the agent's base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Type implements [transport.Transport].
func (c *Client) Type() string { return c.transport.Type() }

// Config implements [transport.Transport].
func (c *Client) Config() transport.Config { return c.config }

// SendText sends text as a user message.
func (c *Client) SendText(ctx context.Context, text string) (a2a.SendResponse, error) {
	return c.SendMessage(ctx, a2a.NewUserTextMessage(text))
}

// SendMessage calls message/send. The server decides whether the reply is a
// [*a2a.Message] or the [*a2a.Task] tracking the work.
func (c *Client) SendMessage(ctx context.Context, msg *a2a.Message) (a2a.SendResponse, error) {
	return c.transport.SendMessage(ctx, msg)
}

// SendImmediate calls message/send asking the agent to answer in the same
// call. It fails with [a2a.KindInvalidAgentResponse] if the server replies
// with a task instead.
func (c *Client) SendImmediate(ctx context.Context, msg *a2a.Message) (*a2a.Message, error) {
	immediate := true
	res, err := c.transport.Send(ctx, &a2a.MessageSendParams{Message: msg, Immediate: &immediate})
	if err != nil {
		return nil, err
	}
	reply, ok := res.(*a2a.Message)
	if !ok {
		return nil, a2a.Errorf(a2a.KindInvalidAgentResponse, "expected a message, got %s", res.Kind())
	}
	return reply, nil
}

// StreamMessage calls message/stream and yields the task's events until the
// task ends.
func (c *Client) StreamMessage(ctx context.Context, msg *a2a.Message) iter.Seq2[a2a.StreamEvent, error] {
	return c.transport.StreamMessage(ctx, msg)
}

// Resubscribe re-attaches to the events of a running task. Events published
// before the call are not replayed.
func (c *Client) Resubscribe(ctx context.Context, taskID string) iter.Seq2[a2a.StreamEvent, error] {
	return c.transport.Resubscribe(ctx, taskID)
}

// GetTask calls task/get.
func (c *Client) GetTask(ctx context.Context, taskID string) (*a2a.Task, error) {
	return c.transport.GetTask(ctx, taskID)
}

// TaskStatus calls task/status.
func (c *Client) TaskStatus(ctx context.Context, taskID string) (*a2a.Task, error) {
	return c.transport.TaskStatus(ctx, taskID)
}

// CancelTask calls task/cancel and returns the canceled task.
func (c *Client) CancelTask(ctx context.Context, taskID string) (*a2a.Task, error) {
	return c.transport.CancelTask(ctx, taskID)
}

// AgentCard calls agent/card. An empty id selects the serving agent.
func (c *Client) AgentCard(ctx context.Context, id a2a.AgentID) (*a2a.AgentCard, error) {
	return c.transport.GetAgentCard(ctx, id)
}

// GetAgentCard implements [transport.Transport].
func (c *Client) GetAgentCard(ctx context.Context, id a2a.AgentID) (*a2a.AgentCard, error) {
	return c.AgentCard(ctx, id)
}

// IsAvailable reports whether the agent answers. It never returns an error.
func (c *Client) IsAvailable(ctx context.Context) bool {
	return c.transport.IsAvailable(ctx)
}
