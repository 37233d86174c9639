// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package pool provides typed object pooling for encode buffers.
package pool

import (
	"bytes"
	"sync"
)

// maxRetained caps the capacity of buffers returned to [Bytes]; larger ones are dropped.
const maxRetained = 64 << 10

// Pool is a generics wrapper around [sync.Pool] to provide strongly-typed object pooling.
type Pool[T any] struct {
	p sync.Pool
}

// Resetter is implemented by pooled values that can be cleared before reuse.
type Resetter interface {
	Reset()
}

// New returns a new [Pool] for T, and will use fn to construct new T's when the pool is empty.
func New[T any](fn func() T) *Pool[T] {
	return &Pool[T]{
		p: sync.Pool{
			New: func() any {
				return fn()
			},
		},
	}
}

// Get gets a T from the pool, or creates a new one if the pool is empty.
func (p *Pool[T]) Get() T {
	return p.p.Get().(T)
}

// Put resets x and returns it into the pool.
func (p *Pool[T]) Put(x T) {
	if xx, ok := any(x).(Resetter); ok {
		xx.Reset()
	}
	p.p.Put(x)
}

// Bytes pools the [*bytes.Buffer] values used to frame SSE events and encode
// JSON-RPC request bodies.
var Bytes = New(func() *bytes.Buffer {
	return &bytes.Buffer{}
})

// PutBytes returns buf to [Bytes] unless it grew past the retention cap.
func PutBytes(buf *bytes.Buffer) {
	if buf.Cap() > maxRetained {
		return
	}
	Bytes.Put(buf)
}
