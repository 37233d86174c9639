// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-a2a/a2a/auth"
)

func TestNewCallContext(t *testing.T) {
	tests := map[string]struct {
		user     auth.User
		wantName string
		wantAuth bool
	}{
		"authenticated": {user: auth.NewUser("alice"), wantName: "alice", wantAuth: true},
		"nil user":      {user: nil, wantName: "", wantAuth: false},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cc := NewCallContext(tt.user, "req-1", "10.0.0.1:1234")
			if got := cc.User().UserName(); got != tt.wantName {
				t.Errorf("UserName() = %q, want %q", got, tt.wantName)
			}
			if got := cc.User().IsAuthenticated(); got != tt.wantAuth {
				t.Errorf("IsAuthenticated() = %t, want %t", got, tt.wantAuth)
			}
			if cc.RequestID() != "req-1" || cc.RemoteAddr() != "10.0.0.1:1234" {
				t.Errorf("RequestID(), RemoteAddr() = %q, %q", cc.RequestID(), cc.RemoteAddr())
			}
			if len(cc.State()) != 0 {
				t.Errorf("State() = %v, want empty", cc.State())
			}
		})
	}
}

func TestCallContextState(t *testing.T) {
	cc := NewCallContext(nil, "", "")
	cc.SetState("key1", "value1")
	cc.SetState("key2", 42)

	state := cc.State()
	if diff := cmp.Diff(map[string]any{"key1": "value1", "key2": 42}, state); diff != "" {
		t.Errorf("State() (-want +got):\n%s", diff)
	}

	// the returned map is a copy
	state["key3"] = "x"
	if _, ok := cc.GetState("key3"); ok {
		t.Error("modifying State() result changed the call context")
	}

	cc.DeleteState("key1")
	if _, ok := cc.GetState("key1"); ok {
		t.Error("key1 still present after DeleteState")
	}
	if v, ok := cc.GetState("key2"); !ok || v != 42 {
		t.Errorf("GetState(key2) = %v, %t", v, ok)
	}
}

func TestCallContextConcurrentAccess(t *testing.T) {
	cc := NewCallContext(auth.NewUser("bob"), "", "")
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				key := fmt.Sprintf("k%d-%d", i, j)
				cc.SetState(key, j)
				cc.GetState(key)
				_ = cc.State()
				cc.DeleteState(key)
			}
		}()
	}
	wg.Wait()
	if n := len(cc.State()); n != 0 {
		t.Errorf("state has %d keys left", n)
	}
}

func TestWithCallContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := CallContextFrom(ctx); ok {
		t.Fatal("CallContextFrom(empty) reported a context")
	}

	cc := NewCallContext(auth.NewUser("carol"), "req-9", "")
	ctx = WithCallContext(ctx, cc)
	got, ok := CallContextFrom(ctx)
	if !ok || got != cc {
		t.Fatalf("CallContextFrom() = %v, %t", got, ok)
	}
	if name := auth.UserFromContext(ctx).UserName(); name != "carol" {
		t.Errorf("auth.UserFromContext() = %q, want carol", name)
	}
	if s := cc.String(); s != `CallContext{user: "carol", authenticated: true, request: req-9, state_keys: 0}` {
		t.Errorf("String() = %s", s)
	}
}
