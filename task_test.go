// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

func TestTaskStateTransitions(t *testing.T) {
	allowed := map[TaskState][]TaskState{
		TaskStateSubmitted:     {TaskStateSubmitted, TaskStateWorking, TaskStateCompleted, TaskStateFailed, TaskStateCanceled},
		TaskStateWorking:       {TaskStateWorking, TaskStateInputRequired, TaskStateCompleted, TaskStateFailed, TaskStateCanceled},
		TaskStateInputRequired: {TaskStateInputRequired, TaskStateWorking, TaskStateCompleted, TaskStateFailed, TaskStateCanceled},
	}

	for _, from := range TaskStates {
		for _, to := range TaskStates {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%s.CanTransitionTo(%s) = %t, want %t", from, to, got, want)
			}
		}
	}

	if TaskState("paused").CanTransitionTo(TaskStateWorking) {
		t.Error("unknown state must not transition")
	}
}

func TestTaskStateTerminal(t *testing.T) {
	tests := map[TaskState]bool{
		TaskStateSubmitted:     false,
		TaskStateWorking:       false,
		TaskStateInputRequired: false,
		TaskStateCompleted:     true,
		TaskStateFailed:        true,
		TaskStateCanceled:      true,
	}
	for state, want := range tests {
		if got := state.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %t, want %t", state, got, want)
		}
	}
}

// TestTaskTransitionSequences drives random transition attempts and checks the
// task never leaves the known state set and never moves after a terminal state.
func TestTaskTransitionSequences(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		task := NewTask(NewUserTextMessage("hi"))
		steps := rapid.SliceOfN(rapid.SampledFrom(TaskStates), 1, 20).Draw(t, "steps")
		for _, next := range steps {
			before := task.Status
			err := task.Transition(next, nil)
			switch {
			case before.State.CanTransitionTo(next):
				if err != nil {
					t.Fatalf("Transition(%s -> %s) error: %v", before.State, next, err)
				}
				if task.Status.State != next {
					t.Fatalf("state = %s, want %s", task.Status.State, next)
				}
			default:
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("Transition(%s -> %s) error = %v, want validation error", before.State, next, err)
				}
				if task.Status != before {
					t.Fatalf("rejected transition changed status from %+v to %+v", before, task.Status)
				}
			}
			if !task.Status.State.Valid() {
				t.Fatalf("reached unknown state %q", task.Status.State)
			}
		}
	})
}

func TestNewTask(t *testing.T) {
	msg := NewUserTextMessage("hello")
	msg.ContextID = "ctx-1"

	task := NewTask(msg)
	if task.Status.State != TaskStateSubmitted {
		t.Errorf("Status.State = %s, want submitted", task.Status.State)
	}
	if task.ContextID != "ctx-1" {
		t.Errorf("ContextID = %q, want ctx-1", task.ContextID)
	}
	if task.ID == "" {
		t.Error("ID is empty")
	}
	if len(task.History) != 1 || task.History[0] != msg {
		t.Errorf("History = %v, want the request message", task.History)
	}
	if err := task.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}
