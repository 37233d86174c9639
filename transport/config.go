// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"maps"
	"time"

	"github.com/go-a2a/a2a"
)

// Defaults applied by [NewConfigBuilder] and [DefaultConfig].
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
)

// Config is the immutable configuration shared by transports.
//
// Build one with [NewConfigBuilder]. The zero Config is not valid; use
// [DefaultConfig] instead.
type Config struct {
	timeout     time.Duration
	maxRetries  int
	compression bool
	extras      map[string]string
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		timeout:     DefaultTimeout,
		maxRetries:  DefaultMaxRetries,
		compression: true,
	}
}

// Timeout is the per-attempt request timeout.
func (c Config) Timeout() time.Duration { return c.timeout }

// MaxRetries is the number of retries after the first attempt.
func (c Config) MaxRetries() int { return c.maxRetries }

// Compression reports whether responses are requested gzip encoded.
func (c Config) Compression() bool { return c.compression }

// Extra returns the extra setting named key.
func (c Config) Extra(key string) (string, bool) {
	v, ok := c.extras[key]
	return v, ok
}

// Extras returns a copy of all extra settings.
func (c Config) Extras() map[string]string {
	return maps.Clone(c.extras)
}

// ConfigBuilder accumulates settings for a [Config].
type ConfigBuilder struct {
	cfg Config
}

// NewConfigBuilder returns a builder seeded with [DefaultConfig].
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{cfg: DefaultConfig()}
}

// WithTimeout sets the per-attempt timeout.
func (b *ConfigBuilder) WithTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.timeout = d
	return b
}

// WithMaxRetries sets the retry count.
func (b *ConfigBuilder) WithMaxRetries(n int) *ConfigBuilder {
	b.cfg.maxRetries = n
	return b
}

// WithCompression toggles gzip response compression.
func (b *ConfigBuilder) WithCompression(on bool) *ConfigBuilder {
	b.cfg.compression = on
	return b
}

// WithExtra records a free-form setting.
func (b *ConfigBuilder) WithExtra(key, value string) *ConfigBuilder {
	if b.cfg.extras == nil {
		b.cfg.extras = make(map[string]string)
	}
	b.cfg.extras[key] = value
	return b
}

// Build validates the settings and returns the [Config].
//
// The builder may be reused; later changes do not affect configs already built.
func (b *ConfigBuilder) Build() (Config, error) {
	if b.cfg.timeout < 0 {
		return Config{}, a2a.Errorf(a2a.KindConfiguration, "timeout must not be negative: %s", b.cfg.timeout)
	}
	if b.cfg.maxRetries < 0 {
		return Config{}, a2a.Errorf(a2a.KindConfiguration, "max retries must not be negative: %d", b.cfg.maxRetries)
	}
	cfg := b.cfg
	cfg.extras = maps.Clone(b.cfg.extras)
	return cfg, nil
}
