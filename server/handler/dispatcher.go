// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a"
	"github.com/go-a2a/a2a/internal/telemetry"
)

// HandlerFunc serves one decoded request. The returned value becomes the
// response result; a returned error becomes the response error.
type HandlerFunc func(ctx context.Context, req *a2a.Request) (any, error)

// Dispatcher routes JSON-RPC requests to registered methods.
//
// It accepts single requests and batches. Notifications are served but never
// answered. Every reply it produces is a well-formed envelope, including for
// unparsable bodies and panicking methods.
type Dispatcher struct {
	logger *slog.Logger
	tracer trace.Tracer

	mu      sync.RWMutex
	methods map[string]HandlerFunc
}

// NewDispatcher returns an empty dispatcher. A nil logger or tracer selects
// the process defaults.
func NewDispatcher(logger *slog.Logger, tracer trace.Tracer) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = otel.Tracer(telemetry.ScopeName)
	}
	return &Dispatcher{
		logger:  logger,
		tracer:  tracer,
		methods: make(map[string]HandlerFunc),
	}
}

// Register binds method to fn, replacing any previous binding.
func (d *Dispatcher) Register(method string, fn HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.methods[method] = fn
}

// Methods returns the registered method names, sorted.
func (d *Dispatcher) Methods() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Sorted(maps.Keys(d.methods))
}

func (d *Dispatcher) lookup(method string) (HandlerFunc, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn, ok := d.methods[method]
	return fn, ok
}

// Result is the outcome of dispatching one request body.
type Result struct {
	// Responses holds one response per answered request, in request order.
	Responses []*a2a.Response
	// Batch reports whether the body was a JSON array.
	Batch bool
	// Err is the error of a single non-batch request, if it failed.
	Err error
}

// HasReply reports whether anything must be written back.
func (r *Result) HasReply() bool { return len(r.Responses) > 0 }

// Status returns the HTTP status for the reply: 200, or the status of the
// failed request when the body was a single request.
func (r *Result) Status() int {
	if r.Batch || r.Err == nil {
		return 200
	}
	return a2a.HTTPStatusOf(r.Err)
}

// Marshal encodes the reply: an object for a single request, an array for a batch.
func (r *Result) Marshal() ([]byte, error) {
	if !r.HasReply() {
		return nil, nil
	}
	if !r.Batch {
		return json.Marshal(r.Responses[0])
	}
	return json.Marshal(r.Responses)
}

var errParse = &a2a.Error{Kind: a2a.KindProtocolViolation, Code: a2a.CodeParseError, Message: "parse error"}

func invalidRequest(err error) *a2a.Error {
	return &a2a.Error{Kind: a2a.KindValidation, Code: a2a.CodeInvalidRequest, Message: "invalid request", Err: err}
}

func methodNotFound(method string) *a2a.Error {
	return &a2a.Error{Kind: a2a.KindProtocolViolation, Code: a2a.CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", method)}
}

// Handle dispatches body and returns the encoded reply. hasReply is false
// when body held only notifications, or was an empty batch.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) (reply []byte, hasReply bool) {
	res := d.Dispatch(ctx, body)
	if !res.HasReply() {
		return nil, false
	}
	b, err := res.Marshal()
	if err != nil {
		d.logger.ErrorContext(ctx, "encode reply", slog.Any("error", err))
		b, _ = json.Marshal(a2a.NewErrorResponse(a2a.NullID(), a2a.Wrap(a2a.KindInternal, err, "encode reply")))
	}
	return b, true
}

// Dispatch decodes body as a single request or a batch and serves it.
//
// Batch elements are served sequentially and answered in order. A malformed
// element gets an invalid request error carrying its id when the id could be
// read, and null otherwise.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) *Result {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || !jsontext.Value(body).IsValid() {
		return &Result{
			Responses: []*a2a.Response{a2a.NewErrorResponse(a2a.NullID(), errParse)},
			Err:       errParse,
		}
	}

	if body[0] != '[' {
		resp, err := d.serve(ctx, body)
		res := &Result{Err: err}
		if resp != nil {
			res.Responses = []*a2a.Response{resp}
		}
		return res
	}

	var elems []jsontext.Value
	if err := json.Unmarshal(body, &elems); err != nil {
		return &Result{
			Responses: []*a2a.Response{a2a.NewErrorResponse(a2a.NullID(), errParse)},
			Err:       errParse,
		}
	}
	res := &Result{Batch: true}
	for _, elem := range elems {
		if resp, _ := d.serve(ctx, elem); resp != nil {
			res.Responses = append(res.Responses, resp)
		}
	}
	return res
}

// serve handles one request object. It returns a nil response for notifications.
func (d *Dispatcher) serve(ctx context.Context, raw jsontext.Value) (*a2a.Response, error) {
	var req a2a.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		var probe struct {
			ID a2a.ID `json:"id"`
		}
		_ = json.Unmarshal(raw, &probe)
		e := invalidRequest(err)
		return a2a.NewErrorResponse(probe.ID, e), e
	}
	if err := req.Validate(); err != nil {
		e := invalidRequest(err)
		return a2a.NewErrorResponse(req.ID, e), e
	}

	result, err := d.call(ctx, &req)
	if req.IsNotification() {
		if err != nil {
			d.logger.DebugContext(ctx, "notification failed", slog.String("method", req.Method), slog.Any("error", err))
		}
		return nil, nil
	}
	if err != nil {
		return a2a.NewErrorResponse(req.ID, err), err
	}
	resp, err := a2a.NewResultResponse(req.ID, result)
	if err != nil {
		return a2a.NewErrorResponse(req.ID, err), err
	}
	return resp, nil
}

func (d *Dispatcher) call(ctx context.Context, req *a2a.Request) (result any, err error) {
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, "a2a.server/"+req.Method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("rpc.system", "jsonrpc"),
			attribute.String("rpc.method", req.Method),
			attribute.String("rpc.jsonrpc.request_id", req.ID.String()),
		),
	)
	defer func() {
		code := 0
		if err != nil {
			code = a2a.ToRPCError(err).Code
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(attribute.Int("rpc.jsonrpc.error_code", code))
		}
		span.End()
		telemetry.RecordRequest(ctx, req.Method, code, time.Since(start))
	}()

	fn, ok := d.lookup(req.Method)
	if !ok {
		return nil, methodNotFound(req.Method)
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "method panicked",
				slog.String("method", req.Method),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			result = nil
			err = a2a.NewError(a2a.KindInternal, "internal error")
		}
	}()
	return fn(ctx, req)
}
