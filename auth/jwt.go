// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/go-a2a/a2a"
)

// DefaultTokenLifetime is the lifetime of tokens minted by [JWTAuth].
const DefaultTokenLifetime = 5 * time.Minute

// JWTAuth signs a short-lived HS256 token for every call, and verifies
// tokens signed with the same secret on the server side.
type JWTAuth struct {
	secret   []byte
	issuer   string
	subject  string
	audience string
	lifetime time.Duration
	skew     time.Duration
	now      func() time.Time
}

var (
	_ Authenticator = (*JWTAuth)(nil)
	_ Verifier      = (*JWTAuth)(nil)
)

// JWTOption configures a [JWTAuth].
type JWTOption func(*JWTAuth)

// WithIssuer sets the iss claim, which the verifier then requires.
func WithIssuer(iss string) JWTOption {
	return func(a *JWTAuth) { a.issuer = iss }
}

// WithSubject sets the sub claim, the user name seen by the server.
func WithSubject(sub string) JWTOption {
	return func(a *JWTAuth) { a.subject = sub }
}

// WithAudience sets the aud claim, which the verifier then requires.
func WithAudience(aud string) JWTOption {
	return func(a *JWTAuth) { a.audience = aud }
}

// WithLifetime sets how long minted tokens stay valid.
func WithLifetime(d time.Duration) JWTOption {
	return func(a *JWTAuth) { a.lifetime = d }
}

// WithClockSkew sets the tolerance applied to exp and nbf when verifying.
func WithClockSkew(d time.Duration) JWTOption {
	return func(a *JWTAuth) { a.skew = d }
}

// NewJWTAuth returns a [JWTAuth] using secret as the HMAC key.
func NewJWTAuth(secret []byte, opts ...JWTOption) *JWTAuth {
	a := &JWTAuth{
		secret:   secret,
		lifetime: DefaultTokenLifetime,
		now:      time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Type implements [Authenticator].
func (a *JWTAuth) Type() string { return "jwt" }

// IsConfigured implements [Authenticator].
func (a *JWTAuth) IsConfigured() bool { return len(a.secret) > 0 }

// Token mints a signed token.
func (a *JWTAuth) Token() (string, error) {
	if !a.IsConfigured() {
		return "", a2a.NewError(a2a.KindAuthentication, "jwt secret is not configured")
	}

	now := a.now()
	b := jwt.NewBuilder().
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(a.lifetime))
	if a.issuer != "" {
		b = b.Issuer(a.issuer)
	}
	if a.subject != "" {
		b = b.Subject(a.subject)
	}
	if a.audience != "" {
		b = b.Audience([]string{a.audience})
	}
	tok, err := b.Build()
	if err != nil {
		return "", a2a.Wrap(a2a.KindAuthentication, err, "build jwt")
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), a.secret))
	if err != nil {
		return "", a2a.Wrap(a2a.KindAuthentication, err, "sign jwt")
	}
	return string(signed), nil
}

// Authenticate implements [Authenticator].
func (a *JWTAuth) Authenticate(_ context.Context, h http.Header) error {
	tok, err := a.Token()
	if err != nil {
		return err
	}
	h.Set("Authorization", "Bearer "+tok)
	return nil
}

// Verify implements [Verifier].
func (a *JWTAuth) Verify(_ context.Context, h http.Header) (User, error) {
	raw, ok := bearerToken(h)
	if !ok {
		return UnauthenticatedUser{}, a2a.NewError(a2a.KindAuthentication, "missing bearer token")
	}

	opts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256(), a.secret),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(a.skew),
		jwt.WithClock(jwt.ClockFunc(a.now)),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	tok, err := jwt.Parse([]byte(raw), opts...)
	if err != nil {
		return UnauthenticatedUser{}, a2a.Wrap(a2a.KindAuthentication, err, "verify jwt")
	}
	sub, _ := tok.Subject()
	return NewUser(sub), nil
}
