// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeServerError    = -32000
)

// A2A specific error codes.
const (
	CodeTaskNotFound                           = -32001
	CodeTaskNotCancelable                      = -32002
	CodePushNotificationNotSupported           = -32003
	CodeUnsupportedOperation                   = -32004
	CodeContentTypeNotSupported                = -32005
	CodeInvalidAgentResponse                   = -32006
	CodeAuthenticatedExtendedCardNotConfigured = -32007
	CodeAgentNotFound                          = -32008
)

// ErrorKind classifies an [*Error].
type ErrorKind uint8

const (
	KindInternal ErrorKind = iota
	KindNetwork
	KindSerialization
	KindInvalidMessage
	KindProtocolViolation
	KindAuthentication
	KindAgentNotFound
	KindInvalidAgentID
	KindTimeout
	KindRateLimited
	KindServer
	KindTransport
	KindValidation
	KindConfiguration
	KindTaskNotFound
	KindTaskNotCancelable
	KindPushNotificationNotSupported
	KindUnsupportedOperation
	KindContentTypeNotSupported
	KindInvalidAgentResponse
	KindAuthenticatedExtendedCardNotConfigured
)

var kindNames = [...]string{
	KindInternal:                               "internal error",
	KindNetwork:                                "network error",
	KindSerialization:                          "serialization error",
	KindInvalidMessage:                         "invalid message",
	KindProtocolViolation:                      "protocol violation",
	KindAuthentication:                         "authentication failed",
	KindAgentNotFound:                          "agent not found",
	KindInvalidAgentID:                         "invalid agent ID",
	KindTimeout:                                "request timeout",
	KindRateLimited:                            "rate limited",
	KindServer:                                 "server error",
	KindTransport:                              "transport error",
	KindValidation:                             "validation error",
	KindConfiguration:                          "configuration error",
	KindTaskNotFound:                           "task not found",
	KindTaskNotCancelable:                      "task not cancelable",
	KindPushNotificationNotSupported:           "push notifications not supported",
	KindUnsupportedOperation:                   "unsupported operation",
	KindContentTypeNotSupported:                "content type not supported",
	KindInvalidAgentResponse:                   "invalid agent response",
	KindAuthenticatedExtendedCardNotConfigured: "authenticated extended card not configured",
}

// String implements [fmt.Stringer].
func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// Retryable reports whether an operation failing with k may succeed on a later attempt.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindNetwork, KindTimeout, KindRateLimited, KindServer:
		return true
	default:
		return false
	}
}

// HTTPStatus returns the HTTP status code for k. The boolean is false for
// kinds without a dedicated status; callers fall back to 500.
func (k ErrorKind) HTTPStatus() (int, bool) {
	switch k {
	case KindAuthentication:
		return http.StatusUnauthorized, true
	case KindAgentNotFound, KindTaskNotFound:
		return http.StatusNotFound, true
	case KindRateLimited:
		return http.StatusTooManyRequests, true
	case KindValidation:
		return http.StatusBadRequest, true
	case KindProtocolViolation:
		return http.StatusUnprocessableEntity, true
	case KindTaskNotCancelable:
		return http.StatusConflict, true
	case KindPushNotificationNotSupported, KindUnsupportedOperation, KindAuthenticatedExtendedCardNotConfigured:
		return http.StatusNotImplemented, true
	case KindContentTypeNotSupported:
		return http.StatusUnsupportedMediaType, true
	case KindInvalidAgentResponse:
		return http.StatusBadGateway, true
	default:
		return 0, false
	}
}

// RPCCode returns the JSON-RPC error code used when k crosses the wire.
func (k ErrorKind) RPCCode() int {
	switch k {
	case KindSerialization, KindProtocolViolation:
		return CodeParseError
	case KindInvalidMessage, KindValidation, KindInvalidAgentID:
		return CodeInvalidParams
	case KindTaskNotFound:
		return CodeTaskNotFound
	case KindTaskNotCancelable:
		return CodeTaskNotCancelable
	case KindPushNotificationNotSupported:
		return CodePushNotificationNotSupported
	case KindUnsupportedOperation:
		return CodeUnsupportedOperation
	case KindContentTypeNotSupported:
		return CodeContentTypeNotSupported
	case KindInvalidAgentResponse:
		return CodeInvalidAgentResponse
	case KindAuthenticatedExtendedCardNotConfigured:
		return CodeAuthenticatedExtendedCardNotConfigured
	case KindAgentNotFound:
		return CodeAgentNotFound
	case KindNetwork, KindTimeout, KindRateLimited, KindServer, KindTransport, KindAuthentication:
		return CodeServerError
	default:
		return CodeInternalError
	}
}

// Error is the error type returned throughout the module.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind
	// Message is a human readable description. It may be empty.
	Message string
	// Code is the JSON-RPC code carried on the wire. Zero means Kind.RPCCode().
	Code int
	// RetryAfter is the server requested delay for KindRateLimited errors.
	RetryAfter time.Duration
	// Data is optional structured detail forwarded in JSON-RPC error objects.
	Data any
	// Err is the underlying cause.
	Err error
}

// NewError returns an [*Error] of the given kind.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Errorf returns an [*Error] of the given kind with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an [*Error] of the given kind wrapping err.
func Wrap(kind ErrorKind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// RateLimited returns a [KindRateLimited] error asking the caller to wait retryAfter.
func RateLimited(retryAfter time.Duration, msg string) *Error {
	return &Error{Kind: KindRateLimited, Message: msg, RetryAfter: retryAfter}
}

// TaskNotFound returns a [KindTaskNotFound] error for id.
func TaskNotFound(id string) *Error {
	return &Error{Kind: KindTaskNotFound, Message: "task not found: " + id}
}

// TaskNotCancelable returns a [KindTaskNotCancelable] error for a task in state.
func TaskNotCancelable(id string, state TaskState) *Error {
	return &Error{Kind: KindTaskNotCancelable, Message: fmt.Sprintf("task %s cannot be canceled in state %s", id, state)}
}

// InvalidTransition returns a [KindValidation] error for an illegal task state change.
func InvalidTransition(from, to TaskState) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf("invalid task state transition from %s to %s", from, to)}
}

// Error implements error.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel of the same kind, such as [ErrTaskNotFound].
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// RPCCode returns the JSON-RPC code of e.
func (e *Error) RPCCode() int {
	if e.Code != 0 {
		return e.Code
	}
	return e.Kind.RPCCode()
}

// HTTPStatus returns the HTTP status for e, defaulting to 500.
func (e *Error) HTTPStatus() int {
	if s, ok := e.Kind.HTTPStatus(); ok {
		return s
	}
	return http.StatusInternalServerError
}

// Retryable reports whether e is worth retrying.
func (e *Error) Retryable() bool { return e.Kind.Retryable() }

// Sentinels for use with [errors.Is].
var (
	ErrTaskNotFound                           = &Error{Kind: KindTaskNotFound}
	ErrTaskNotCancelable                      = &Error{Kind: KindTaskNotCancelable}
	ErrPushNotificationNotSupported           = &Error{Kind: KindPushNotificationNotSupported}
	ErrUnsupportedOperation                   = &Error{Kind: KindUnsupportedOperation}
	ErrContentTypeNotSupported                = &Error{Kind: KindContentTypeNotSupported}
	ErrInvalidAgentResponse                   = &Error{Kind: KindInvalidAgentResponse}
	ErrAuthenticatedExtendedCardNotConfigured = &Error{Kind: KindAuthenticatedExtendedCardNotConfigured}
	ErrAgentNotFound                          = &Error{Kind: KindAgentNotFound}
	ErrValidation                             = &Error{Kind: KindValidation}
	ErrProtocolViolation                      = &Error{Kind: KindProtocolViolation}
	ErrTimeout                                = &Error{Kind: KindTimeout}
)

// KindOf classifies err. Errors that are not an [*Error] classify as
// [KindInternal], except context deadlines which classify as [KindTimeout].
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

// IsRetryable reports whether err is worth retrying. A nil error is not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return KindOf(err).Retryable()
}

// RetryAfterOf returns the server requested delay carried by err, if any.
func RetryAfterOf(err error) time.Duration {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindRateLimited {
		return e.RetryAfter
	}
	return 0
}

// HTTPStatusOf returns the HTTP status for err, defaulting to 500.
func HTTPStatusOf(err error) int {
	if s, ok := KindOf(err).HTTPStatus(); ok {
		return s
	}
	return http.StatusInternalServerError
}

// FromRPCError converts a JSON-RPC error object received from a peer into an [*Error].
//
// Standard codes map to their protocol kinds and the reserved A2A codes map back
// to their domain kinds. Any other code becomes [KindServer] carrying the code
// and message verbatim.
func FromRPCError(code int, message string, data any) *Error {
	e := &Error{Code: code, Message: message, Data: data}
	switch code {
	case CodeInvalidRequest, CodeInvalidParams:
		e.Kind = KindValidation
	case CodeMethodNotFound, CodeParseError:
		e.Kind = KindProtocolViolation
	case CodeInternalError:
		e.Kind = KindInternal
	case CodeTaskNotFound:
		e.Kind = KindTaskNotFound
	case CodeTaskNotCancelable:
		e.Kind = KindTaskNotCancelable
	case CodePushNotificationNotSupported:
		e.Kind = KindPushNotificationNotSupported
	case CodeUnsupportedOperation:
		e.Kind = KindUnsupportedOperation
	case CodeContentTypeNotSupported:
		e.Kind = KindContentTypeNotSupported
	case CodeInvalidAgentResponse:
		e.Kind = KindInvalidAgentResponse
	case CodeAuthenticatedExtendedCardNotConfigured:
		e.Kind = KindAuthenticatedExtendedCardNotConfigured
	case CodeAgentNotFound:
		e.Kind = KindAgentNotFound
	default:
		e.Kind = KindServer
	}
	return e
}
