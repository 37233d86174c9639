// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"maps"
	"slices"
	"time"

	"github.com/go-a2a/a2a/internal/netguard"
)

// PushEvent names a task change that can trigger a webhook.
type PushEvent string

const (
	PushEventStatusChanged PushEvent = "status-changed"
	PushEventArtifactAdded PushEvent = "artifact-added"
	PushEventCompleted     PushEvent = "completed"
	PushEventFailed        PushEvent = "failed"
	PushEventCanceled      PushEvent = "canceled"
)

// Valid reports whether e is a known event.
func (e PushEvent) Valid() bool {
	switch e {
	case PushEventStatusChanged, PushEventArtifactAdded, PushEventCompleted, PushEventFailed, PushEventCanceled:
		return true
	}
	return false
}

// PushEventForState returns the terminal event matching s, or
// [PushEventStatusChanged] for non-terminal states.
func PushEventForState(s TaskState) PushEvent {
	switch s {
	case TaskStateCompleted:
		return PushEventCompleted
	case TaskStateFailed:
		return PushEventFailed
	case TaskStateCanceled:
		return PushEventCanceled
	default:
		return PushEventStatusChanged
	}
}

// PushAuthType selects how webhook requests authenticate.
type PushAuthType string

const (
	PushAuthBearer        PushAuthType = "bearer"
	PushAuthCustomHeaders PushAuthType = "custom-headers"
)

// PushAuthentication holds the credentials sent with webhook requests.
type PushAuthentication struct {
	Type    PushAuthType      `json:"type"`
	Token   string            `json:"token,omitzero"`
	Headers map[string]string `json:"headers,omitzero"`
}

// PushNotificationConfig describes a webhook subscribed to task changes.
type PushNotificationConfig struct {
	ID             string              `json:"id,omitzero"`
	URL            string              `json:"url"`
	Events         []PushEvent         `json:"events"`
	Authentication *PushAuthentication `json:"authentication,omitzero"`
}

// Validate checks the URL is a public https endpoint and the events are known.
func (c *PushNotificationConfig) Validate() error {
	if c.URL == "" {
		return NewError(KindValidation, "push notification URL cannot be empty")
	}
	if err := netguard.CheckURL(c.URL); err != nil {
		return Wrap(KindValidation, err, "invalid push notification URL")
	}
	if len(c.Events) == 0 {
		return NewError(KindValidation, "push notification config must subscribe to at least one event")
	}
	for _, e := range c.Events {
		if !e.Valid() {
			return Errorf(KindValidation, "unknown push event %q", e)
		}
	}
	if a := c.Authentication; a != nil {
		switch a.Type {
		case PushAuthBearer:
			if a.Token == "" {
				return NewError(KindValidation, "bearer push authentication requires a token")
			}
		case PushAuthCustomHeaders:
			if len(a.Headers) == 0 {
				return NewError(KindValidation, "custom-headers push authentication requires headers")
			}
		default:
			return Errorf(KindValidation, "unknown push authentication type %q", a.Type)
		}
	}
	return nil
}

// Subscribes reports whether c wants notifications for e.
func (c *PushNotificationConfig) Subscribes(e PushEvent) bool {
	return slices.Contains(c.Events, e)
}

// Clone returns a deep copy of c.
func (c *PushNotificationConfig) Clone() *PushNotificationConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.Events = slices.Clone(c.Events)
	if c.Authentication != nil {
		auth := *c.Authentication
		auth.Headers = maps.Clone(c.Authentication.Headers)
		out.Authentication = &auth
	}
	return &out
}

// TaskPushNotificationConfig binds a [PushNotificationConfig] to a task.
type TaskPushNotificationConfig struct {
	TaskID                 string                 `json:"taskId"`
	PushNotificationConfig PushNotificationConfig `json:"pushNotificationConfig"`
}

// WebhookPayload is the body POSTed to webhook endpoints.
type WebhookPayload struct {
	Event     PushEvent `json:"event"`
	Task      *Task     `json:"task"`
	Timestamp time.Time `json:"timestamp"`
	AgentID   AgentID   `json:"agentId,omitzero"`
}
