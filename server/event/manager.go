// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"maps"
	"slices"
	"sync"

	"github.com/go-a2a/a2a"
)

// Manager keeps one [Broadcaster] per live task.
type Manager struct {
	capacity int

	mu     sync.RWMutex
	queues map[string]*Broadcaster[a2a.StreamEvent]
}

// NewManager returns a manager creating broadcasters of the given capacity.
func NewManager(capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager{
		capacity: capacity,
		queues:   make(map[string]*Broadcaster[a2a.StreamEvent]),
	}
}

// Get returns the broadcaster of taskID, if any.
func (m *Manager) Get(taskID string) (*Broadcaster[a2a.StreamEvent], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.queues[taskID]
	return b, ok
}

// Tap subscribes to the existing broadcaster of taskID. It returns false when
// the task has none.
func (m *Manager) Tap(taskID string) (*Subscription[a2a.StreamEvent], bool) {
	b, ok := m.Get(taskID)
	if !ok {
		return nil, false
	}
	return b.Subscribe(), true
}

// CreateOrTap subscribes to the broadcaster of taskID, creating it first if needed.
func (m *Manager) CreateOrTap(taskID string) *Subscription[a2a.StreamEvent] {
	m.mu.Lock()
	b, ok := m.queues[taskID]
	if !ok {
		b = NewBroadcaster[a2a.StreamEvent](m.capacity)
		m.queues[taskID] = b
	}
	// subscribe under the registry lock so a concurrent Close cannot drop
	// the broadcaster between lookup and subscribe
	sub := b.Subscribe()
	m.mu.Unlock()
	return sub
}

// Publish sends ev to the subscribers of taskID. Having no broadcaster or no
// subscribers is not an error.
func (m *Manager) Publish(taskID string, ev a2a.StreamEvent) error {
	b, ok := m.Get(taskID)
	if !ok {
		return nil
	}
	switch err := b.Send(ev); err {
	case nil, ErrNoSubscribers:
		return nil
	default:
		return err
	}
}

// Close closes and forgets the broadcaster of taskID.
func (m *Manager) Close(taskID string) {
	m.mu.Lock()
	b, ok := m.queues[taskID]
	delete(m.queues, taskID)
	m.mu.Unlock()
	if ok {
		b.Close()
	}
}

// Exists reports whether taskID has a broadcaster.
func (m *Manager) Exists(taskID string) bool {
	_, ok := m.Get(taskID)
	return ok
}

// List returns the ids of tasks with a broadcaster, sorted.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.queues))
}

// Count returns the number of broadcasters.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.queues)
}

// CloseAll closes every broadcaster.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	queues := m.queues
	m.queues = make(map[string]*Broadcaster[a2a.StreamEvent])
	m.mu.Unlock()
	for _, b := range queues {
		b.Close()
	}
}

// IsFinal reports whether ev ends a task's stream: a final status update, or
// a task snapshot in a terminal state.
func IsFinal(ev a2a.StreamEvent) bool {
	switch e := ev.(type) {
	case *a2a.TaskStatusUpdateEvent:
		return e.Final
	case *a2a.Task:
		return e.Status.State.IsTerminal()
	case *a2a.Message:
		return true
	default:
		return false
	}
}
