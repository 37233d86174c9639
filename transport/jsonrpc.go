// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a"
	"github.com/go-a2a/a2a/internal/pool"
	"github.com/go-a2a/a2a/internal/telemetry"
)

// JSONRPCTransport speaks the A2A JSON-RPC binding over a [Caller], and over a
// [Streamer] for the streaming methods.
type JSONRPCTransport struct {
	caller   Caller
	streamer Streamer
	config   Config
	policy   RetryPolicy
	logger   *slog.Logger
	tracer   trace.Tracer
}

var (
	_ Transport          = (*JSONRPCTransport)(nil)
	_ StreamingTransport = (*JSONRPCTransport)(nil)
)

// JSONRPCOption configures a [JSONRPCTransport].
type JSONRPCOption func(*JSONRPCTransport)

// WithStreamer sets the endpoint used by the streaming methods.
func WithStreamer(s Streamer) JSONRPCOption {
	return func(t *JSONRPCTransport) {
		t.streamer = s
	}
}

// WithRetryPolicy overrides [DefaultRetryPolicy]. Its MaxRetries is replaced
// by the transport config's.
func WithRetryPolicy(p RetryPolicy) JSONRPCOption {
	return func(t *JSONRPCTransport) {
		t.policy = p
	}
}

// WithLogger sets the [*slog.Logger] for the transport.
func WithLogger(logger *slog.Logger) JSONRPCOption {
	return func(t *JSONRPCTransport) {
		t.logger = logger
	}
}

// WithTracer sets the [trace.Tracer] for the transport.
func WithTracer(tracer trace.Tracer) JSONRPCOption {
	return func(t *JSONRPCTransport) {
		t.tracer = tracer
	}
}

// NewJSONRPCTransport returns a transport sending requests through caller.
func NewJSONRPCTransport(caller Caller, cfg Config, opts ...JSONRPCOption) *JSONRPCTransport {
	t := &JSONRPCTransport{
		caller: caller,
		config: cfg,
		policy: DefaultRetryPolicy(),
		logger: slog.Default(),
		tracer: otel.Tracer(telemetry.ScopeName),
	}
	for _, o := range opts {
		o(t)
	}
	t.policy.MaxRetries = cfg.MaxRetries()
	if t.policy.OnRetry == nil {
		t.policy.OnRetry = func(attempt int, err error, delay time.Duration) {
			t.logger.Debug("retrying a2a call", slog.Int("attempt", attempt), slog.Duration("delay", delay), slog.Any("error", err))
		}
	}
	return t
}

// Type implements [Transport].
func (t *JSONRPCTransport) Type() string { return TypeJSONRPC }

// Config implements [Transport].
func (t *JSONRPCTransport) Config() Config { return t.config }

// SendMessage implements [Transport].
func (t *JSONRPCTransport) SendMessage(ctx context.Context, msg *a2a.Message) (a2a.SendResponse, error) {
	return t.Send(ctx, &a2a.MessageSendParams{Message: msg})
}

// Send calls message/send with full params.
func (t *JSONRPCTransport) Send(ctx context.Context, params *a2a.MessageSendParams) (a2a.SendResponse, error) {
	if params == nil || params.Message == nil {
		return nil, a2a.NewError(a2a.KindInvalidMessage, "message is required")
	}
	if err := params.Message.Validate(); err != nil {
		return nil, err
	}

	var out a2a.SendResponse
	err := t.invoke(ctx, a2a.MethodMessageSend, params, func(v jsontext.Value) error {
		var err error
		out, err = a2a.UnmarshalSendResponse(v)
		return err
	})
	return out, err
}

// GetTask calls task/get.
func (t *JSONRPCTransport) GetTask(ctx context.Context, taskID string) (*a2a.Task, error) {
	return callTask(ctx, t, a2a.MethodTaskGet, taskID)
}

// TaskStatus calls task/status.
func (t *JSONRPCTransport) TaskStatus(ctx context.Context, taskID string) (*a2a.Task, error) {
	return callTask(ctx, t, a2a.MethodTaskStatus, taskID)
}

// CancelTask calls task/cancel.
func (t *JSONRPCTransport) CancelTask(ctx context.Context, taskID string) (*a2a.Task, error) {
	return callTask(ctx, t, a2a.MethodTaskCancel, taskID)
}

func callTask(ctx context.Context, t *JSONRPCTransport, method, taskID string) (*a2a.Task, error) {
	params := &a2a.TaskIDParams{TaskID: taskID}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return call[*a2a.Task](ctx, t, method, params)
}

// GetAgentCard implements [Transport]. An empty id asks for the serving agent.
func (t *JSONRPCTransport) GetAgentCard(ctx context.Context, id a2a.AgentID) (*a2a.AgentCard, error) {
	var params *a2a.AgentCardParams
	if id != "" {
		params = &a2a.AgentCardParams{AgentID: id}
	}
	return call[*a2a.AgentCard](ctx, t, a2a.MethodAgentCard, params)
}

// IsAvailable implements [Transport] with a single agent/card probe.
func (t *JSONRPCTransport) IsAvailable(ctx context.Context) bool {
	probe := *t
	probe.policy.MaxRetries = 0
	_, err := probe.GetAgentCard(ctx, "")
	return err == nil
}

// SetPushConfig calls task/pushNotificationConfig/set.
func (t *JSONRPCTransport) SetPushConfig(ctx context.Context, cfg *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	return call[*a2a.TaskPushNotificationConfig](ctx, t, a2a.MethodPushConfigSet, cfg)
}

// GetPushConfig calls task/pushNotificationConfig/get.
func (t *JSONRPCTransport) GetPushConfig(ctx context.Context, taskID, configID string) (*a2a.TaskPushNotificationConfig, error) {
	return call[*a2a.TaskPushNotificationConfig](ctx, t, a2a.MethodPushConfigGet, &a2a.PushConfigIDParams{TaskID: taskID, ConfigID: configID})
}

// ListPushConfigs calls task/pushNotificationConfig/list.
func (t *JSONRPCTransport) ListPushConfigs(ctx context.Context, taskID string) ([]*a2a.TaskPushNotificationConfig, error) {
	return call[[]*a2a.TaskPushNotificationConfig](ctx, t, a2a.MethodPushConfigList, &a2a.PushConfigIDParams{TaskID: taskID})
}

// DeletePushConfig calls task/pushNotificationConfig/delete.
func (t *JSONRPCTransport) DeletePushConfig(ctx context.Context, taskID, configID string) error {
	_, err := call[jsontext.Value](ctx, t, a2a.MethodPushConfigDelete, &a2a.PushConfigIDParams{TaskID: taskID, ConfigID: configID})
	return err
}

// StreamMessage implements [StreamingTransport].
func (t *JSONRPCTransport) StreamMessage(ctx context.Context, msg *a2a.Message) iter.Seq2[a2a.StreamEvent, error] {
	if msg == nil {
		return errorSeq(a2a.NewError(a2a.KindInvalidMessage, "message is required"))
	}
	if err := msg.Validate(); err != nil {
		return errorSeq(err)
	}
	return t.stream(ctx, a2a.MethodMessageStream, &a2a.MessageSendParams{Message: msg})
}

// Resubscribe implements [StreamingTransport].
func (t *JSONRPCTransport) Resubscribe(ctx context.Context, taskID string) iter.Seq2[a2a.StreamEvent, error] {
	params := &a2a.TaskIDParams{TaskID: taskID}
	if err := params.Validate(); err != nil {
		return errorSeq(err)
	}
	return t.stream(ctx, a2a.MethodTaskResubscribe, params)
}

func errorSeq(err error) iter.Seq2[a2a.StreamEvent, error] {
	return func(yield func(a2a.StreamEvent, error) bool) {
		yield(nil, err)
	}
}

func (t *JSONRPCTransport) stream(ctx context.Context, method string, params any) iter.Seq2[a2a.StreamEvent, error] {
	return func(yield func(a2a.StreamEvent, error) bool) {
		if t.streamer == nil {
			yield(nil, a2a.NewError(a2a.KindUnsupportedOperation, "streaming endpoint is not configured"))
			return
		}

		ctx, span := t.startSpan(ctx, method)
		defer span.End()

		id := a2a.StringID(uuid.NewString())
		req, err := a2a.NewRequest(id, method, params)
		if err != nil {
			yield(nil, err)
			return
		}
		body, err := json.Marshal(req)
		if err != nil {
			yield(nil, a2a.Wrap(a2a.KindSerialization, err, "encode request"))
			return
		}

		rc, err := Retry(ctx, t.policy, func(ctx context.Context, attempt int) (io.ReadCloser, error) {
			telemetry.RecordAttempt(ctx, TypeJSONRPC, attempt > 0)
			return t.streamer.Stream(ctx, body)
		})
		if err != nil {
			recordSpanError(span, err)
			yield(nil, err)
			return
		}
		defer rc.Close()

		var n int
		for ev, err := range DecodeEvents(rc) {
			if err != nil {
				recordSpanError(span, err)
			} else {
				n++
			}
			if !yield(ev, err) {
				break
			}
		}
		span.SetAttributes(attribute.Int("a2a.stream.events", n))
	}
}

func call[T any](ctx context.Context, t *JSONRPCTransport, method string, params any) (T, error) {
	var out T
	err := t.invoke(ctx, method, params, func(v jsontext.Value) error {
		if err := json.Unmarshal(v, &out); err != nil {
			return a2a.Wrap(a2a.KindSerialization, err, "decode "+method+" result")
		}
		return nil
	})
	return out, err
}

// invoke sends one request with retries and hands the result to decode.
func (t *JSONRPCTransport) invoke(ctx context.Context, method string, params any, decode func(jsontext.Value) error) error {
	ctx, span := t.startSpan(ctx, method)
	defer span.End()

	id := a2a.StringID(uuid.NewString())
	span.SetAttributes(attribute.String("a2a.request_id", id.String()))

	req, err := a2a.NewRequest(id, method, params)
	if err != nil {
		recordSpanError(span, err)
		return err
	}
	buf := pool.Bytes.Get()
	defer pool.PutBytes(buf)
	if err := json.MarshalWrite(buf, req); err != nil {
		err = a2a.Wrap(a2a.KindSerialization, err, "encode request")
		recordSpanError(span, err)
		return err
	}
	body := buf.Bytes()

	raw, err := Retry(ctx, t.policy, func(ctx context.Context, attempt int) ([]byte, error) {
		telemetry.RecordAttempt(ctx, TypeJSONRPC, attempt > 0)
		return t.caller.Call(ctx, body)
	})
	if err != nil {
		recordSpanError(span, err)
		t.logger.DebugContext(ctx, "a2a call failed", slog.String("method", method), slog.Any("error", err))
		return err
	}

	var resp a2a.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		err = a2a.Wrap(a2a.KindSerialization, err, "decode response")
		recordSpanError(span, err)
		return err
	}
	if err := resp.Validate(); err != nil {
		recordSpanError(span, err)
		return err
	}
	if !resp.ID.Equal(id) {
		err := a2a.Errorf(a2a.KindProtocolViolation, "response id %s does not match request id %s", resp.ID, id)
		recordSpanError(span, err)
		return err
	}
	if resp.Error != nil {
		err := resp.Error.AsError()
		recordSpanError(span, err)
		return err
	}
	if err := decode(resp.Result); err != nil {
		recordSpanError(span, err)
		return err
	}
	return nil
}

func (t *JSONRPCTransport) startSpan(ctx context.Context, method string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "a2a.client/"+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("a2a.method", method)),
	)
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
