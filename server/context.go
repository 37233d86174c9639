// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/go-a2a/a2a/auth"
)

// CallContext describes the HTTP call a request arrived on. The server puts
// one into every /rpc and /stream request context; agents read it with
// [CallContextFrom].
//
// A CallContext is safe for concurrent use.
type CallContext struct {
	user       auth.User
	requestID  string
	remoteAddr string

	mu    sync.RWMutex
	state map[string]any
}

// NewCallContext returns a call context for user. A nil user is replaced by
// [auth.UnauthenticatedUser].
func NewCallContext(user auth.User, requestID, remoteAddr string) *CallContext {
	if user == nil {
		user = auth.UnauthenticatedUser{}
	}
	return &CallContext{
		user:       user,
		requestID:  requestID,
		remoteAddr: remoteAddr,
		state:      make(map[string]any),
	}
}

// User returns the verified caller.
func (c *CallContext) User() auth.User { return c.user }

// RequestID returns the id assigned to the HTTP request.
func (c *CallContext) RequestID() string { return c.requestID }

// RemoteAddr returns the client address, as resolved from proxy headers.
func (c *CallContext) RemoteAddr() string { return c.remoteAddr }

// State returns a copy of the call's state values.
func (c *CallContext) State() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.state)
}

// SetState stores value under key.
func (c *CallContext) SetState(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state[key] = value
}

// GetState returns the value stored under key.
func (c *CallContext) GetState(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.state[key]
	return v, ok
}

// DeleteState removes key.
func (c *CallContext) DeleteState(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.state, key)
}

func (c *CallContext) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("CallContext{user: %q, authenticated: %t, request: %s, state_keys: %d}",
		c.user.UserName(), c.user.IsAuthenticated(), c.requestID, len(c.state))
}

type callContextKey struct{}

// WithCallContext returns a copy of ctx carrying c. The caller is also
// stored with [auth.WithUser].
func WithCallContext(ctx context.Context, c *CallContext) context.Context {
	ctx = auth.WithUser(ctx, c.User())
	return context.WithValue(ctx, callContextKey{}, c)
}

// CallContextFrom returns the call context stored in ctx, if any.
func CallContextFrom(ctx context.Context) (*CallContext, bool) {
	c, ok := ctx.Value(callContextKey{}).(*CallContext)
	return c, ok
}
