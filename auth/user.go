// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import "context"

// User represents an authenticated or unauthenticated caller of an A2A server.
type User interface {
	// IsAuthenticated returns true if the user is authenticated, false otherwise.
	IsAuthenticated() bool

	// UserName returns the username of the user. For unauthenticated users,
	// this returns an empty string.
	UserName() string
}

// UnauthenticatedUser is the [User] seen when no verifier is configured or
// verification failed. It is safe to use as a zero value.
type UnauthenticatedUser struct{}

// IsAuthenticated always returns false for unauthenticated users.
func (UnauthenticatedUser) IsAuthenticated() bool { return false }

// UserName always returns an empty string for unauthenticated users.
func (UnauthenticatedUser) UserName() string { return "" }

type authenticatedUser struct {
	name string
}

// NewUser returns an authenticated [User] named name.
func NewUser(name string) User {
	return authenticatedUser{name: name}
}

func (authenticatedUser) IsAuthenticated() bool { return true }

func (u authenticatedUser) UserName() string { return u.name }

type userKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the user stored by [WithUser], or an
// [UnauthenticatedUser].
func UserFromContext(ctx context.Context) User {
	if u, ok := ctx.Value(userKey{}).(User); ok {
		return u
	}
	return UnauthenticatedUser{}
}
