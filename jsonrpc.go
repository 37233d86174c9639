// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"bytes"
	"cmp"
	"errors"
	"strconv"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// JSONRPCVersion is the only protocol version accepted in envelopes.
const JSONRPCVersion = "2.0"

// A2A RPC method names.
const (
	MethodMessageSend      = "message/send"
	MethodMessageStream    = "message/stream"
	MethodTaskGet          = "task/get"
	MethodTaskStatus       = "task/status"
	MethodTaskCancel       = "task/cancel"
	MethodTaskResubscribe  = "task/resubscribe"
	MethodAgentCard        = "agent/card"
	MethodPushConfigSet    = "task/pushNotificationConfig/set"
	MethodPushConfigGet    = "task/pushNotificationConfig/get"
	MethodPushConfigList   = "task/pushNotificationConfig/list"
	MethodPushConfigDelete = "task/pushNotificationConfig/delete"
)

// IsStreamingMethod reports whether method replies with an event stream.
func IsStreamingMethod(method string) bool {
	return method == MethodMessageStream || method == MethodTaskResubscribe
}

// ID is a JSON-RPC request identifier: a string, a number or null.
//
// The zero ID means the member was absent, which marks a notification.
type ID struct {
	raw jsontext.Value
}

var nullID = jsontext.Value("null")

// StringID returns an ID holding s.
func StringID(s string) ID {
	b, _ := jsontext.AppendQuote(nil, s)
	return ID{raw: b}
}

// IntID returns an ID holding n.
func IntID(n int64) ID {
	return ID{raw: strconv.AppendInt(nil, n, 10)}
}

// NullID returns the explicit null ID used when a request id could not be parsed.
func NullID() ID {
	return ID{raw: nullID}
}

// IsZero reports whether the ID is absent.
func (id ID) IsZero() bool { return len(id.raw) == 0 }

// IsNull reports whether the ID is absent or JSON null.
func (id ID) IsNull() bool {
	return id.IsZero() || bytes.Equal(id.raw, nullID)
}

// Equal reports whether id and other encode the same JSON value.
func (id ID) Equal(other ID) bool {
	if id.IsNull() || other.IsNull() {
		return id.IsNull() == other.IsNull()
	}
	a, b := id.raw.Clone(), other.raw.Clone()
	if err := a.Canonicalize(); err != nil {
		return false
	}
	if err := b.Canonicalize(); err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// String returns the JSON text of the id.
func (id ID) String() string {
	if id.IsZero() {
		return "null"
	}
	return string(id.raw)
}

// MarshalJSON implements [json.Marshaler]. An absent id encodes as null.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return id.raw, nil
}

// UnmarshalJSON implements [json.Unmarshaler].
func (id *ID) UnmarshalJSON(data []byte) error {
	v := jsontext.Value(bytes.TrimSpace(data))
	switch v.Kind() {
	case '"', '0', 'n':
		id.raw = v.Clone()
		return nil
	default:
		return NewError(KindValidation, "id must be a string, number or null")
	}
}

// Request is a JSON-RPC request. A request without an id is a notification.
type Request struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      ID             `json:"id,omitzero"`
	Method  string         `json:"method"`
	Params  jsontext.Value `json:"params,omitzero"`
}

// NewRequest encodes params and returns a request for method.
func NewRequest(id ID, method string, params any) (*Request, error) {
	req := &Request{JSONRPC: JSONRPCVersion, ID: id, Method: method}
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, Wrap(KindSerialization, err, "encode params")
		}
		req.Params = b
	}
	return req, nil
}

// IsNotification reports whether r expects no response.
func (r *Request) IsNotification() bool { return r.ID.IsZero() }

// Validate checks the envelope members.
func (r *Request) Validate() error {
	if r.JSONRPC != JSONRPCVersion {
		return Errorf(KindValidation, "unsupported jsonrpc version %q", r.JSONRPC)
	}
	if r.Method == "" {
		return NewError(KindValidation, "method cannot be empty")
	}
	return nil
}

// DecodeParams decodes the request params into v. Absent params leave v untouched.
func (r *Request) DecodeParams(v any) error {
	if len(r.Params) == 0 || bytes.Equal(bytes.TrimSpace(r.Params), nullID) {
		return nil
	}
	if err := json.Unmarshal(r.Params, v); err != nil {
		return &Error{Kind: KindValidation, Code: CodeInvalidParams, Message: "invalid params for " + r.Method, Err: err}
	}
	return nil
}

// RPCError is the error member of a JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitzero"`
}

// Error implements error.
func (e *RPCError) Error() string {
	return "jsonrpc error " + strconv.Itoa(e.Code) + ": " + e.Message
}

// AsError converts e into the module error taxonomy.
func (e *RPCError) AsError() *Error {
	return FromRPCError(e.Code, e.Message, e.Data)
}

// ToRPCError converts err into a wire error object.
func ToRPCError(err error) *RPCError {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	var e *Error
	if !errors.As(err, &e) {
		return &RPCError{Code: CodeInternalError, Message: err.Error()}
	}
	return &RPCError{Code: e.RPCCode(), Message: e.Error(), Data: e.Data}
}

// Response is a JSON-RPC response carrying exactly one of Result or Error.
type Response struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      ID             `json:"id"`
	Result  jsontext.Value `json:"result,omitzero"`
	Error   *RPCError      `json:"error,omitzero"`
}

// NewResultResponse encodes result and returns a success response for id.
func NewResultResponse(id ID, result any) (*Response, error) {
	b, err := json.Marshal(result)
	if err != nil {
		return nil, Wrap(KindInternal, err, "encode result")
	}
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Result: b}, nil
}

// NewErrorResponse returns an error response for id. A zero id is sent as null.
func NewErrorResponse(id ID, err error) *Response {
	if id.IsZero() {
		id = NullID()
	}
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Error: ToRPCError(err)}
}

// Validate checks the envelope members and that exactly one of result or error is set.
func (r *Response) Validate() error {
	if r.JSONRPC != JSONRPCVersion {
		return Errorf(KindProtocolViolation, "unsupported jsonrpc version %q", r.JSONRPC)
	}
	if (r.Error == nil) == (len(r.Result) == 0) {
		return NewError(KindProtocolViolation, "response must carry exactly one of result or error")
	}
	return nil
}

// DecodeResult decodes the result into v, or returns the mapped error.
func (r *Response) DecodeResult(v any) error {
	if r.Error != nil {
		return r.Error.AsError()
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return Wrap(KindSerialization, err, "decode result")
	}
	return nil
}

// MessageSendParams are the params of message/send and message/stream.
type MessageSendParams struct {
	Message   *Message       `json:"message"`
	Immediate *bool          `json:"immediate,omitzero"`
	Metadata  map[string]any `json:"metadata,omitzero"`
}

// TaskIDParams are the params of the task/* methods.
type TaskIDParams struct {
	TaskID string `json:"taskId"`
}

// UnmarshalJSON implements [json.Unmarshaler]. It also accepts the snake case
// "task_id" member sent by older peers.
func (p *TaskIDParams) UnmarshalJSON(data []byte) error {
	var w struct {
		TaskID string `json:"taskId"`
		Snake  string `json:"task_id"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.TaskID = cmp.Or(w.TaskID, w.Snake)
	return nil
}

// Validate checks the task id is present.
func (p *TaskIDParams) Validate() error {
	if p.TaskID == "" {
		return NewError(KindValidation, "taskId is required")
	}
	return nil
}

// PushConfigIDParams address one or all push configs of a task.
type PushConfigIDParams struct {
	TaskID   string `json:"taskId"`
	ConfigID string `json:"configId,omitzero"`
}

// AgentCardParams are the params of agent/card.
type AgentCardParams struct {
	AgentID AgentID `json:"agentId,omitzero"`
}

// HealthStatus is reported by the health endpoint.
type HealthStatus struct {
	Status string `json:"status"`
	Tasks  int    `json:"tasks"`
}
