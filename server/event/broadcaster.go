// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"errors"
	"iter"
	"strconv"
	"sync"
)

// DefaultCapacity is the ring size used when a non-positive capacity is given.
const DefaultCapacity = 64

var (
	// ErrNoSubscribers is returned by [Broadcaster.Send] when nobody is listening.
	// The event is dropped.
	ErrNoSubscribers = errors.New("event: no subscribers")

	// ErrClosed is returned once a [Broadcaster] has been closed, and by
	// [Subscription.Next] once a subscriber has drained a closed broadcaster.
	ErrClosed = errors.New("event: broadcaster closed")
)

// LagError reports that a subscriber fell behind and Skipped events were
// overwritten before it could read them. The subscription stays usable.
type LagError struct {
	Skipped uint64
}

func (e *LagError) Error() string {
	return "event: subscriber lagged, skipped " + strconv.FormatUint(e.Skipped, 10) + " events"
}

// Broadcaster fans events out to any number of subscribers through a fixed
// size ring buffer.
//
// Send never waits for subscribers. A subscriber that falls more than the
// capacity behind loses the oldest events and is told so with a [*LagError].
type Broadcaster[T any] struct {
	mu        sync.Mutex
	buf       []T
	seq       uint64 // sequence number of the next write
	receivers int
	closed    bool
	wake      chan struct{} // closed and replaced on every write and on Close
}

// NewBroadcaster returns a broadcaster retaining the last capacity events.
func NewBroadcaster[T any](capacity int) *Broadcaster[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Broadcaster[T]{
		buf:  make([]T, capacity),
		wake: make(chan struct{}),
	}
}

// Send publishes e to every current subscriber.
func (b *Broadcaster[T]) Send(e T) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.receivers == 0 {
		return ErrNoSubscribers
	}
	b.buf[b.seq%uint64(len(b.buf))] = e
	b.seq++
	close(b.wake)
	b.wake = make(chan struct{})
	return nil
}

// Subscribe returns a subscription that receives events sent from now on.
// Earlier events are not replayed. Subscribing to a closed broadcaster yields
// a subscription that ends immediately.
func (b *Broadcaster[T]) Subscribe() *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &Subscription[T]{b: b, cursor: b.seq}
	if b.closed {
		s.done = true
		return s
	}
	b.receivers++
	return s
}

// Receivers returns the number of live subscriptions.
func (b *Broadcaster[T]) Receivers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.receivers
}

// Close ends the broadcast. Subscribers still read buffered events before
// they see [ErrClosed]. Close is idempotent.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.wake)
}

// Closed reports whether Close has been called.
func (b *Broadcaster[T]) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Subscription is one subscriber's cursor into a [Broadcaster].
//
// A Subscription is not safe for concurrent use.
type Subscription[T any] struct {
	b      *Broadcaster[T]
	cursor uint64
	done   bool
}

// Next returns the next event. It blocks until one is sent, the broadcaster
// is closed and drained ([ErrClosed]), or ctx is done.
//
// When events were overwritten before being read, Next returns a [*LagError]
// and moves the cursor to the oldest retained event.
func (s *Subscription[T]) Next(ctx context.Context) (T, error) {
	var zero T
	b := s.b
	for {
		b.mu.Lock()
		if s.done {
			b.mu.Unlock()
			return zero, ErrClosed
		}
		size := uint64(len(b.buf))
		if behind := b.seq - s.cursor; behind > size {
			s.cursor = b.seq - size
			b.mu.Unlock()
			return zero, &LagError{Skipped: behind - size}
		}
		if s.cursor < b.seq {
			e := b.buf[s.cursor%size]
			s.cursor++
			b.mu.Unlock()
			return e, nil
		}
		if b.closed {
			s.release()
			b.mu.Unlock()
			return zero, ErrClosed
		}
		wake := b.wake
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-wake:
		}
	}
}

// Events yields events until the broadcaster is closed and drained, or ctx
// is done. Lag notices are yielded as [*LagError] values and iteration goes
// on; a ctx error is yielded last. The subscription is released when
// iteration stops, so Events can be ranged over once.
func (s *Subscription[T]) Events(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer s.Unsubscribe()
		for {
			e, err := s.Next(ctx)
			var lag *LagError
			switch {
			case err == nil:
			case errors.As(err, &lag):
			case errors.Is(err, ErrClosed):
				return
			default:
				yield(e, err)
				return
			}
			if !yield(e, err) {
				return
			}
		}
	}
}

// Unsubscribe detaches s. Further calls to Next return [ErrClosed].
func (s *Subscription[T]) Unsubscribe() {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.release()
}

// release must be called with the broadcaster lock held.
func (s *Subscription[T]) release() {
	if s.done {
		return
	}
	s.done = true
	s.b.receivers--
}
