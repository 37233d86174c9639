// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/go-a2a/a2a"
)

func TestConfigBuilder(t *testing.T) {
	cfg, err := NewConfigBuilder().
		WithTimeout(5*time.Second).
		WithMaxRetries(0).
		WithCompression(false).
		WithExtra("region", "eu").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := cfg.Timeout(); got != 5*time.Second {
		t.Errorf("Timeout() = %s, want 5s", got)
	}
	if got := cfg.MaxRetries(); got != 0 {
		t.Errorf("MaxRetries() = %d, want 0", got)
	}
	if cfg.Compression() {
		t.Error("Compression() = true, want false")
	}
	if v, ok := cfg.Extra("region"); !ok || v != "eu" {
		t.Errorf("Extra(region) = (%q, %t), want (eu, true)", v, ok)
	}
	if _, ok := cfg.Extra("missing"); ok {
		t.Error("Extra(missing) reported present")
	}
}

func TestConfigBuilderDefaults(t *testing.T) {
	cfg, err := NewConfigBuilder().Build()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timeout() != DefaultTimeout || cfg.MaxRetries() != DefaultMaxRetries || !cfg.Compression() {
		t.Errorf("defaults = (%s, %d, %t)", cfg.Timeout(), cfg.MaxRetries(), cfg.Compression())
	}
}

func TestConfigImmutable(t *testing.T) {
	b := NewConfigBuilder().WithExtra("a", "1")
	cfg, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	b.WithExtra("a", "2").WithExtra("b", "3")

	extras := cfg.Extras()
	if diff := cmp.Diff(map[string]string{"a": "1"}, extras); diff != "" {
		t.Errorf("Extras() mismatch (-want +got):\n%s", diff)
	}
	extras["a"] = "mutated"
	if v, _ := cfg.Extra("a"); v != "1" {
		t.Errorf("Extra(a) = %q after mutating the copy, want 1", v)
	}
}

func TestConfigBuilderRejects(t *testing.T) {
	tests := map[string]*ConfigBuilder{
		"negative timeout": NewConfigBuilder().WithTimeout(-time.Second),
		"negative retries": NewConfigBuilder().WithMaxRetries(-1),
	}
	for name, b := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := b.Build()
			if a2a.KindOf(err) != a2a.KindConfiguration {
				t.Errorf("Build() error = %v, want configuration error", err)
			}
		})
	}
}
