// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"errors"

	"github.com/go-a2a/a2a"
)

// Agent is the business logic behind a [TaskAwareHandler].
type Agent interface {
	// Profile describes the agent. The handler turns it into the agent card.
	Profile() a2a.AgentProfile

	// ProcessMessage answers msg. A nil reply without an error is reported
	// to the caller as an invalid agent response.
	ProcessMessage(ctx context.Context, msg *a2a.Message) (*a2a.Message, error)
}

// StreamingAgent is an [Agent] that reports progress while it works.
//
// When an agent implements it, the handler calls ProcessStream instead of
// ProcessMessage for task-backed requests and leaves the working state to
// the agent.
type StreamingAgent interface {
	Agent

	ProcessStream(ctx context.Context, msg *a2a.Message, updates Updates) (*a2a.Message, error)
}

// Updates receives progress from a [StreamingAgent].
//
// Both methods return [ErrTaskCanceled] once the task has been canceled; an
// agent should stop and return that error.
type Updates interface {
	// Status moves the task to state, which must be working or
	// input-required, with an optional message.
	Status(state a2a.TaskState, msg *a2a.Message) error

	// Artifact appends a to the task.
	Artifact(a a2a.Artifact) error
}

// ErrTaskCanceled is returned by [Updates] after the task was canceled.
var ErrTaskCanceled = errors.New("handler: task canceled")

// AgentFunc adapts a function to a non-streaming [Agent].
type AgentFunc struct {
	Info a2a.AgentProfile
	Fn   func(ctx context.Context, msg *a2a.Message) (*a2a.Message, error)
}

var _ Agent = AgentFunc{}

// Profile implements [Agent].
func (a AgentFunc) Profile() a2a.AgentProfile { return a.Info }

// ProcessMessage implements [Agent].
func (a AgentFunc) ProcessMessage(ctx context.Context, msg *a2a.Message) (*a2a.Message, error) {
	return a.Fn(ctx, msg)
}

// taskUpdates is the [Updates] handed to a streaming agent for one task.
type taskUpdates struct {
	h      *TaskAwareHandler
	ctx    context.Context
	taskID string
}

func (u *taskUpdates) Status(state a2a.TaskState, msg *a2a.Message) error {
	if state != a2a.TaskStateWorking && state != a2a.TaskStateInputRequired {
		return a2a.Errorf(a2a.KindValidation, "agents may only report working or input-required, not %q", state)
	}
	_, err := u.h.transition(u.ctx, u.taskID, state, msg)
	return err
}

func (u *taskUpdates) Artifact(a a2a.Artifact) error {
	return u.h.addArtifact(u.ctx, u.taskID, a)
}
