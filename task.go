// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"maps"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
)

// TaskState is the lifecycle state of a [Task].
type TaskState string

const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateFailed        TaskState = "failed"
	TaskStateCanceled      TaskState = "canceled"
)

// TaskStates lists every state in lifecycle order.
var TaskStates = []TaskState{
	TaskStateSubmitted,
	TaskStateWorking,
	TaskStateInputRequired,
	TaskStateCompleted,
	TaskStateFailed,
	TaskStateCanceled,
}

// Valid reports whether s is a known state.
func (s TaskState) Valid() bool {
	switch s {
	case TaskStateSubmitted, TaskStateWorking, TaskStateInputRequired,
		TaskStateCompleted, TaskStateFailed, TaskStateCanceled:
		return true
	}
	return false
}

// IsTerminal reports whether s is completed, failed or canceled.
func (s TaskState) IsTerminal() bool {
	return s == TaskStateCompleted || s == TaskStateFailed || s == TaskStateCanceled
}

// CanTransitionTo reports whether a task in s may move to next.
//
// The legal edges are submitted→working, working⇄input-required, any
// non-terminal state to itself and any non-terminal state to any terminal
// state. Terminal states have no exits.
func (s TaskState) CanTransitionTo(next TaskState) bool {
	if !s.Valid() || !next.Valid() || s.IsTerminal() {
		return false
	}
	if next.IsTerminal() || next == s {
		return true
	}
	switch s {
	case TaskStateSubmitted:
		return next == TaskStateWorking
	case TaskStateWorking:
		return next == TaskStateInputRequired
	case TaskStateInputRequired:
		return next == TaskStateWorking
	}
	return false
}

// TaskStatus is the state of a task with an optional accompanying message.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitzero"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// Task is a unit of asynchronous agent work.
type Task struct {
	ID        string         `json:"id"`
	ContextID string         `json:"contextId,omitzero"`
	Status    TaskStatus     `json:"status"`
	Artifacts []Artifact     `json:"artifacts,omitzero"`
	History   []*Message     `json:"history,omitzero"`
	Metadata  map[string]any `json:"metadata,omitzero"`
}

// NewTask returns a submitted task seeded with msg in its history.
//
// The task and context ids are taken from msg when set, otherwise generated.
func NewTask(msg *Message) *Task {
	t := &Task{
		ID:        uuid.NewString(),
		ContextID: uuid.NewString(),
		Status: TaskStatus{
			State:     TaskStateSubmitted,
			Timestamp: time.Now().UTC(),
		},
	}
	if msg != nil {
		if msg.TaskID != "" {
			t.ID = msg.TaskID
		}
		if msg.ContextID != "" {
			t.ContextID = msg.ContextID
		}
		t.History = []*Message{msg}
	}
	return t
}

// Kind returns [TaskEventKind].
func (*Task) Kind() EventKind { return TaskEventKind }

// Transition moves t to next, stamping the status time. It fails without
// modifying t when the edge is not allowed.
func (t *Task) Transition(next TaskState, msg *Message) error {
	if !t.Status.State.CanTransitionTo(next) {
		return InvalidTransition(t.Status.State, next)
	}
	t.Status = TaskStatus{State: next, Message: msg, Timestamp: time.Now().UTC()}
	return nil
}

// AddArtifact appends a to the task's artifacts.
func (t *Task) AddArtifact(a Artifact) {
	t.Artifacts = append(t.Artifacts, a)
}

// Validate checks the structure of t.
func (t *Task) Validate() error {
	if t == nil {
		return NewError(KindValidation, "task is nil")
	}
	if t.ID == "" {
		return NewError(KindValidation, "task ID cannot be empty")
	}
	if !t.Status.State.Valid() {
		return Errorf(KindValidation, "invalid task state %q", t.Status.State)
	}
	return nil
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Status.Message = t.Status.Message.Clone()
	if t.Artifacts != nil {
		c.Artifacts = make([]Artifact, len(t.Artifacts))
		for i, a := range t.Artifacts {
			c.Artifacts[i] = a.Clone()
		}
	}
	if t.History != nil {
		c.History = make([]*Message, len(t.History))
		for i, m := range t.History {
			c.History[i] = m.Clone()
		}
	}
	c.Metadata = maps.Clone(t.Metadata)
	return &c
}

type task Task

type taskWire struct {
	Kind EventKind `json:"kind"`
	Task task      `json:",inline"`
}

// MarshalJSON implements [json.Marshaler]. It adds the "kind" discriminator.
func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskWire{Kind: TaskEventKind, Task: task(t)})
}

// UnmarshalJSON implements [json.Unmarshaler].
func (t *Task) UnmarshalJSON(data []byte) error {
	var w taskWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Wrap(KindSerialization, err, "decode task")
	}
	if w.Kind != "" && w.Kind != TaskEventKind {
		return Errorf(KindSerialization, "unexpected kind %q for task", w.Kind)
	}
	*t = Task(w.Task)
	return nil
}
