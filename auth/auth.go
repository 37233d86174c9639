// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package auth provides the credential strategies a client attaches to
// outbound A2A calls, and the verifiers a server runs on inbound ones.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-a2a/a2a"
)

// DefaultAPIKeyHeader is the header [APIKeyAuth] writes when none is configured.
const DefaultAPIKeyHeader = "X-API-Key"

// Authenticator injects credentials into the headers of an outbound request.
//
// The HTTP transport calls Authenticate before every attempt, so strategies
// that mint short-lived tokens produce a fresh one per retry.
type Authenticator interface {
	// Authenticate adds credentials to h.
	Authenticate(ctx context.Context, h http.Header) error

	// Type names the strategy, e.g. "api-key".
	Type() string

	// IsConfigured reports whether the strategy holds usable credentials.
	IsConfigured() bool
}

// Verifier checks the credentials of an inbound request.
type Verifier interface {
	Verify(ctx context.Context, h http.Header) (User, error)
}

// APIKeyAuth sends a static key in a header.
type APIKeyAuth struct {
	Key    string
	Header string // defaults to DefaultAPIKeyHeader
}

var (
	_ Authenticator = (*APIKeyAuth)(nil)
	_ Verifier      = (*APIKeyAuth)(nil)
)

// NewAPIKeyAuth returns an [APIKeyAuth] sending key in header.
func NewAPIKeyAuth(key, header string) *APIKeyAuth {
	return &APIKeyAuth{Key: key, Header: header}
}

func (a *APIKeyAuth) header() string {
	if a.Header == "" {
		return DefaultAPIKeyHeader
	}
	return a.Header
}

// Authenticate implements [Authenticator].
func (a *APIKeyAuth) Authenticate(_ context.Context, h http.Header) error {
	if !a.IsConfigured() {
		return a2a.NewError(a2a.KindAuthentication, "api key is not configured")
	}
	h.Set(a.header(), a.Key)
	return nil
}

// Type implements [Authenticator].
func (a *APIKeyAuth) Type() string { return "api-key" }

// IsConfigured implements [Authenticator].
func (a *APIKeyAuth) IsConfigured() bool { return a.Key != "" }

// Verify implements [Verifier]. The key itself is not a user name, so the
// returned user is named after the header.
func (a *APIKeyAuth) Verify(_ context.Context, h http.Header) (User, error) {
	got := h.Get(a.header())
	if got == "" || got != a.Key {
		return UnauthenticatedUser{}, a2a.NewError(a2a.KindAuthentication, "invalid api key")
	}
	return NewUser("api-key"), nil
}

// BearerAuth sends a static bearer token.
type BearerAuth struct {
	Token string
}

var _ Authenticator = (*BearerAuth)(nil)

// NewBearerAuth returns a [BearerAuth] for token.
func NewBearerAuth(token string) *BearerAuth {
	return &BearerAuth{Token: token}
}

// Authenticate implements [Authenticator].
func (a *BearerAuth) Authenticate(_ context.Context, h http.Header) error {
	if !a.IsConfigured() {
		return a2a.NewError(a2a.KindAuthentication, "bearer token is not configured")
	}
	h.Set("Authorization", "Bearer "+a.Token)
	return nil
}

// Type implements [Authenticator].
func (a *BearerAuth) Type() string { return "bearer" }

// IsConfigured implements [Authenticator].
func (a *BearerAuth) IsConfigured() bool { return a.Token != "" }

// bearerToken extracts the token of an "Authorization: Bearer" header.
func bearerToken(h http.Header) (string, bool) {
	v := h.Get("Authorization")
	scheme, token, ok := strings.Cut(v, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
