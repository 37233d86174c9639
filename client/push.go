// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"

	"github.com/go-a2a/a2a"
)

// SetPushConfig registers a webhook for a task. The server assigns an id
// when cfg has none and returns the stored config.
func (c *Client) SetPushConfig(ctx context.Context, cfg *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	if cfg == nil || cfg.TaskID == "" {
		return nil, a2a.NewError(a2a.KindValidation, "push config requires a task id")
	}
	return c.transport.SetPushConfig(ctx, cfg)
}

// GetPushConfig returns one webhook of a task. An empty configID selects the
// task's first registered webhook.
func (c *Client) GetPushConfig(ctx context.Context, taskID, configID string) (*a2a.TaskPushNotificationConfig, error) {
	return c.transport.GetPushConfig(ctx, taskID, configID)
}

// ListPushConfigs returns the webhooks of a task.
func (c *Client) ListPushConfigs(ctx context.Context, taskID string) ([]*a2a.TaskPushNotificationConfig, error) {
	return c.transport.ListPushConfigs(ctx, taskID)
}

// DeletePushConfig removes one webhook of a task.
func (c *Client) DeletePushConfig(ctx context.Context, taskID, configID string) error {
	return c.transport.DeletePushConfig(ctx, taskID, configID)
}
