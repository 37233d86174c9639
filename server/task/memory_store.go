// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-a2a/a2a"
)

// Defaults for [MemoryStore] eviction.
const (
	DefaultTTL             = time.Hour
	DefaultJanitorInterval = time.Minute
)

type entry struct {
	mu     sync.Mutex
	task   *a2a.Task
	doneAt time.Time // set once the task reaches a terminal state
}

// MemoryStore is an in-memory [Store].
//
// Each task has its own lock; the map lock is held only to insert, look up
// and delete entries. Terminal tasks are evicted TTL after they finish when
// [MemoryStore.Run] is running. Non-terminal tasks are never evicted.
type MemoryStore struct {
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.RWMutex
	tasks map[string]*entry
}

var _ Store = (*MemoryStore)(nil)

// Option configures a [MemoryStore].
type Option func(*MemoryStore)

// WithTTL sets how long terminal tasks are kept.
func WithTTL(d time.Duration) Option {
	return func(s *MemoryStore) {
		s.ttl = d
	}
}

// WithJanitorInterval sets how often [MemoryStore.Run] sweeps.
func WithJanitorInterval(d time.Duration) Option {
	return func(s *MemoryStore) {
		s.interval = d
	}
}

// WithLogger sets the [*slog.Logger] for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *MemoryStore) {
		s.logger = logger
	}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		ttl:      DefaultTTL,
		interval: DefaultJanitorInterval,
		logger:   slog.Default(),
		now:      time.Now,
		tasks:    make(map[string]*entry),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create implements [Store].
func (s *MemoryStore) Create(_ context.Context, task *a2a.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	e := &entry{task: task.Clone()}
	if task.Status.State.IsTerminal() {
		e.doneAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; ok {
		return a2a.Errorf(a2a.KindValidation, "task %s already exists", task.ID)
	}
	s.tasks[task.ID] = e
	return nil
}

func (s *MemoryStore) lookup(taskID string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.tasks[taskID]
	s.mu.RUnlock()
	if !ok {
		return nil, a2a.TaskNotFound(taskID)
	}
	return e, nil
}

// Get implements [Store].
func (s *MemoryStore) Get(_ context.Context, taskID string) (*a2a.Task, error) {
	e, err := s.lookup(taskID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.task.Clone(), nil
}

// Update implements [Store]. fn works on a copy which replaces the stored
// task only when fn succeeds.
func (s *MemoryStore) Update(_ context.Context, taskID string, fn func(*a2a.Task) error) (*a2a.Task, error) {
	e, err := s.lookup(taskID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.task.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	e.task = next
	if next.Status.State.IsTerminal() && e.doneAt.IsZero() {
		e.doneAt = s.now()
	}
	return next.Clone(), nil
}

// Delete implements [Store].
func (s *MemoryStore) Delete(_ context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[taskID]; !ok {
		return a2a.TaskNotFound(taskID)
	}
	delete(s.tasks, taskID)
	return nil
}

// Len implements [Store].
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Sweep evicts terminal tasks that finished more than the TTL ago and
// returns how many were removed.
func (s *MemoryStore) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.RLock()
	var expired []string
	for id, e := range s.tasks {
		e.mu.Lock()
		if !e.doneAt.IsZero() && !e.doneAt.After(cutoff) {
			expired = append(expired, id)
		}
		e.mu.Unlock()
	}
	s.mu.RUnlock()

	if len(expired) == 0 {
		return 0
	}
	s.mu.Lock()
	for _, id := range expired {
		delete(s.tasks, id)
	}
	s.mu.Unlock()
	return len(expired)
}

// Run sweeps on the janitor interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.DebugContext(ctx, "evicted expired tasks", slog.Int("count", n), slog.Int("remaining", s.Len()))
			}
		}
	}
}
