// Copyright 2025 The Go A2A Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package transport carries A2A requests from a client to a remote agent.
package transport

import (
	"context"
	"errors"
	"io"
	"iter"
	"net"
	"os"
	"syscall"

	"github.com/go-a2a/a2a"
)

// Transport type labels.
const (
	TypeJSONRPC = "json-rpc"
)

// Transport sends A2A operations to one remote agent.
//
// Implementations must be safe for concurrent use.
type Transport interface {
	// SendMessage delivers msg and returns the agent's reply, either a
	// [*a2a.Message] or a [*a2a.Task].
	SendMessage(ctx context.Context, msg *a2a.Message) (a2a.SendResponse, error)

	// GetAgentCard fetches the card of the agent with the given id, or of the
	// serving agent when id is empty.
	GetAgentCard(ctx context.Context, id a2a.AgentID) (*a2a.AgentCard, error)

	// IsAvailable reports whether the agent answered a probe. It never returns an error.
	IsAvailable(ctx context.Context) bool

	// Config returns the transport's configuration.
	Config() Config

	// Type returns a short label such as [TypeJSONRPC].
	Type() string
}

// StreamingTransport is a [Transport] that can also receive event streams.
type StreamingTransport interface {
	Transport

	// StreamMessage delivers msg and yields events until the agent ends the
	// stream, an error occurs, or the consumer stops iterating.
	StreamMessage(ctx context.Context, msg *a2a.Message) iter.Seq2[a2a.StreamEvent, error]

	// Resubscribe re-attaches to the event stream of an existing task.
	Resubscribe(ctx context.Context, taskID string) iter.Seq2[a2a.StreamEvent, error]
}

// IsConnectionClosedError reports whether err indicates the peer closed the connection.
func IsConnectionClosedError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
		return true
	}

	var syscallErr *os.SyscallError
	if errors.As(err, &syscallErr) {
		return errors.Is(syscallErr.Err, syscall.EPIPE) || errors.Is(syscallErr.Err, syscall.ECONNRESET)
	}
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
