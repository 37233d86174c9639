// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package task stores the tasks and push notification configs served by an
// A2A handler.
package task

import (
	"context"

	"github.com/go-a2a/a2a"
)

// Store defines the interface for task persistence.
//
// Implementations hand out deep copies: a task returned by Get or Update is
// never mutated by the store afterwards.
type Store interface {
	// Create stores a new task. It fails when the id is taken.
	Create(ctx context.Context, task *a2a.Task) error

	// Get returns a snapshot of the task, or a [a2a.KindTaskNotFound] error.
	Get(ctx context.Context, taskID string) (*a2a.Task, error)

	// Update applies fn to the task under its lock and returns the result.
	// When fn returns an error the stored task is left unchanged.
	Update(ctx context.Context, taskID string, fn func(*a2a.Task) error) (*a2a.Task, error)

	// Delete removes the task.
	Delete(ctx context.Context, taskID string) error

	// Len returns the number of stored tasks.
	Len() int
}
