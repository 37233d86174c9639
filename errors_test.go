// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestErrorKindRetryable(t *testing.T) {
	retryable := map[ErrorKind]bool{
		KindNetwork:     true,
		KindTimeout:     true,
		KindRateLimited: true,
		KindServer:      true,
	}
	for k := KindInternal; k <= KindAuthenticatedExtendedCardNotConfigured; k++ {
		if got, want := k.Retryable(), retryable[k]; got != want {
			t.Errorf("%v.Retryable() = %t, want %t", k, got, want)
		}
	}
}

func TestErrorKindHTTPStatus(t *testing.T) {
	tests := map[string]struct {
		kind   ErrorKind
		status int
		ok     bool
	}{
		"authentication":      {kind: KindAuthentication, status: http.StatusUnauthorized, ok: true},
		"agent not found":     {kind: KindAgentNotFound, status: http.StatusNotFound, ok: true},
		"task not found":      {kind: KindTaskNotFound, status: http.StatusNotFound, ok: true},
		"rate limited":        {kind: KindRateLimited, status: http.StatusTooManyRequests, ok: true},
		"validation":          {kind: KindValidation, status: http.StatusBadRequest, ok: true},
		"protocol violation":  {kind: KindProtocolViolation, status: http.StatusUnprocessableEntity, ok: true},
		"not cancelable":      {kind: KindTaskNotCancelable, status: http.StatusConflict, ok: true},
		"content type":        {kind: KindContentTypeNotSupported, status: http.StatusUnsupportedMediaType, ok: true},
		"push not supported":  {kind: KindPushNotificationNotSupported, status: http.StatusNotImplemented, ok: true},
		"network is unmapped": {kind: KindNetwork},
		"internal unmapped":   {kind: KindInternal},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			status, ok := tt.kind.HTTPStatus()
			if status != tt.status || ok != tt.ok {
				t.Errorf("HTTPStatus() = (%d, %t), want (%d, %t)", status, ok, tt.status, tt.ok)
			}
			want := tt.status
			if !tt.ok {
				want = http.StatusInternalServerError
			}
			if got := NewError(tt.kind, "x").HTTPStatus(); got != want {
				t.Errorf("(*Error).HTTPStatus() = %d, want %d", got, want)
			}
		})
	}
}

func TestFromRPCError(t *testing.T) {
	tests := map[string]struct {
		code int
		want ErrorKind
	}{
		"invalid request":  {code: -32600, want: KindValidation},
		"method not found": {code: -32601, want: KindProtocolViolation},
		"invalid params":   {code: -32602, want: KindValidation},
		"internal":         {code: -32603, want: KindInternal},
		"parse error":      {code: -32700, want: KindProtocolViolation},
		"task not found":   {code: -32001, want: KindTaskNotFound},
		"not cancelable":   {code: -32002, want: KindTaskNotCancelable},
		"agent not found":  {code: -32008, want: KindAgentNotFound},
		"generic server":   {code: -32000, want: KindServer},
		"unreserved code":  {code: -32099, want: KindServer},
		"application code": {code: -1, want: KindServer},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := FromRPCError(tt.code, "boom", nil)
			if err.Kind != tt.want {
				t.Errorf("FromRPCError(%d).Kind = %v, want %v", tt.code, err.Kind, tt.want)
			}
			if err.Code != tt.code {
				t.Errorf("FromRPCError(%d).Code = %d, want verbatim code", tt.code, err.Code)
			}
			if err.Message != "boom" {
				t.Errorf("FromRPCError(%d).Message = %q, want verbatim message", tt.code, err.Message)
			}
		})
	}
}

func TestRPCCodeRoundTrip(t *testing.T) {
	for _, sentinel := range []*Error{
		ErrProtocolViolation,
		ErrTaskNotFound,
		ErrTaskNotCancelable,
		ErrPushNotificationNotSupported,
		ErrUnsupportedOperation,
		ErrContentTypeNotSupported,
		ErrInvalidAgentResponse,
		ErrAuthenticatedExtendedCardNotConfigured,
		ErrAgentNotFound,
	} {
		rpcErr := ToRPCError(NewError(sentinel.Kind, "x"))
		if got := rpcErr.AsError(); !errors.Is(got, sentinel) {
			t.Errorf("code %d decoded to %v, want kind %v", rpcErr.Code, got.Kind, sentinel.Kind)
		}
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("get task: %w", TaskNotFound("t1"))

	tests := map[string]struct {
		err  error
		want ErrorKind
	}{
		"typed":            {err: NewError(KindNetwork, "reset"), want: KindNetwork},
		"wrapped":          {err: wrapped, want: KindTaskNotFound},
		"deadline":         {err: context.DeadlineExceeded, want: KindTimeout},
		"wrapped deadline": {err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: KindTimeout},
		"plain error":      {err: errors.New("boom"), want: KindInternal},
		"rate limited":     {err: RateLimited(2*time.Second, "slow down"), want: KindRateLimited},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	if !errors.Is(wrapped, ErrTaskNotFound) {
		t.Error("errors.Is(wrapped, ErrTaskNotFound) = false")
	}
	if errors.Is(wrapped, ErrTaskNotCancelable) {
		t.Error("errors.Is(wrapped, ErrTaskNotCancelable) = true")
	}
	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) = true")
	}
	if got := RetryAfterOf(fmt.Errorf("x: %w", RateLimited(3*time.Second, ""))); got != 3*time.Second {
		t.Errorf("RetryAfterOf() = %v, want 3s", got)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := map[string]struct {
		err  error
		want string
	}{
		"kind only":  {err: &Error{Kind: KindTimeout}, want: "request timeout"},
		"message":    {err: TaskNotFound("t1"), want: "task not found: t1"},
		"with cause": {err: Wrap(KindNetwork, errors.New("connection reset"), "post"), want: "post: connection reset"},
		"not cancel": {err: TaskNotCancelable("t1", TaskStateCompleted), want: "task t1 cannot be canceled in state completed"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
