// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/go-a2a/a2a"
)

// PushConfigStore holds the webhook configs registered for tasks. A task may
// have several configs, told apart by their id.
type PushConfigStore interface {
	// Set validates and stores cfg, replacing a config with the same task and
	// config id. An empty config id is filled with a generated one.
	Set(ctx context.Context, cfg *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error)

	// Get returns one config of the task. An empty configID selects the
	// oldest one.
	Get(ctx context.Context, taskID, configID string) (*a2a.TaskPushNotificationConfig, error)

	// List returns the task's configs, oldest first.
	List(ctx context.Context, taskID string) ([]*a2a.TaskPushNotificationConfig, error)

	// Delete removes one config of the task.
	Delete(ctx context.Context, taskID, configID string) error
}

// prepareConfig validates cfg and returns a copy with its id filled in.
func prepareConfig(cfg *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	if cfg == nil {
		return nil, a2a.NewError(a2a.KindValidation, "push notification config is required")
	}
	if cfg.TaskID == "" {
		return nil, a2a.NewError(a2a.KindValidation, "taskId is required")
	}
	if err := cfg.PushNotificationConfig.Validate(); err != nil {
		return nil, err
	}
	out := cloneConfig(cfg)
	if out.PushNotificationConfig.ID == "" {
		out.PushNotificationConfig.ID = uuid.NewString()
	}
	return out, nil
}

func cloneConfig(cfg *a2a.TaskPushNotificationConfig) *a2a.TaskPushNotificationConfig {
	return &a2a.TaskPushNotificationConfig{
		TaskID:                 cfg.TaskID,
		PushNotificationConfig: *cfg.PushNotificationConfig.Clone(),
	}
}

func configNotFound(taskID, configID string) error {
	if configID == "" {
		return a2a.Errorf(a2a.KindValidation, "no push notification config for task %s", taskID)
	}
	return a2a.Errorf(a2a.KindValidation, "push notification config %s not found for task %s", configID, taskID)
}

// MemoryPushConfigStore is an in-memory [PushConfigStore].
type MemoryPushConfigStore struct {
	mu      sync.RWMutex
	configs map[string][]*a2a.TaskPushNotificationConfig
}

var _ PushConfigStore = (*MemoryPushConfigStore)(nil)

// NewMemoryPushConfigStore returns an empty store.
func NewMemoryPushConfigStore() *MemoryPushConfigStore {
	return &MemoryPushConfigStore{
		configs: make(map[string][]*a2a.TaskPushNotificationConfig),
	}
}

// Set implements [PushConfigStore].
func (s *MemoryPushConfigStore) Set(_ context.Context, cfg *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	c, err := prepareConfig(cfg)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.configs[c.TaskID]
	i := slices.IndexFunc(list, func(x *a2a.TaskPushNotificationConfig) bool {
		return x.PushNotificationConfig.ID == c.PushNotificationConfig.ID
	})
	if i >= 0 {
		list[i] = c
	} else {
		s.configs[c.TaskID] = append(list, c)
	}
	return cloneConfig(c), nil
}

// Get implements [PushConfigStore].
func (s *MemoryPushConfigStore) Get(_ context.Context, taskID, configID string) (*a2a.TaskPushNotificationConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.configs[taskID] {
		if configID == "" || c.PushNotificationConfig.ID == configID {
			return cloneConfig(c), nil
		}
	}
	return nil, configNotFound(taskID, configID)
}

// List implements [PushConfigStore].
func (s *MemoryPushConfigStore) List(_ context.Context, taskID string) ([]*a2a.TaskPushNotificationConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.configs[taskID]
	out := make([]*a2a.TaskPushNotificationConfig, 0, len(list))
	for _, c := range list {
		out = append(out, cloneConfig(c))
	}
	return out, nil
}

// Delete implements [PushConfigStore].
func (s *MemoryPushConfigStore) Delete(_ context.Context, taskID, configID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.configs[taskID]
	i := slices.IndexFunc(list, func(x *a2a.TaskPushNotificationConfig) bool {
		return x.PushNotificationConfig.ID == configID
	})
	if i < 0 {
		return configNotFound(taskID, configID)
	}
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(s.configs, taskID)
	} else {
		s.configs[taskID] = list
	}
	return nil
}
