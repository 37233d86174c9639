// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-a2a/a2a"
)

// DefaultPollInterval is used by [Client.WaitForCompletion] when no interval is given.
const DefaultPollInterval = 500 * time.Millisecond

// WaitForCompletion polls task/get every pollInterval until the task reaches
// a terminal state, and returns that snapshot. It returns ctx's error if ctx
// ends first.
func (c *Client) WaitForCompletion(ctx context.Context, taskID string, pollInterval time.Duration) (*a2a.Task, error) {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		t, err := c.GetTask(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if t.Status.State.IsTerminal() {
			return t, nil
		}
		c.logger.DebugContext(ctx, "task still running", slog.String("task_id", taskID), slog.String("state", string(t.Status.State)))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
