// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"iter"

	"github.com/go-a2a/a2a"
)

// StreamText streams text as a user message.
func (c *Client) StreamText(ctx context.Context, text string) iter.Seq2[a2a.StreamEvent, error] {
	return c.StreamMessage(ctx, a2a.NewUserTextMessage(text))
}

// Collect drains seq. It returns the events received before the first error.
func Collect(seq iter.Seq2[a2a.StreamEvent, error]) ([]a2a.StreamEvent, error) {
	var events []a2a.StreamEvent
	for ev, err := range seq {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// FoldTask drains seq and returns the task rebuilt from its events with
// [a2a.ApplyEvent], or nil if the stream carried no task events.
func FoldTask(seq iter.Seq2[a2a.StreamEvent, error]) (*a2a.Task, error) {
	var t *a2a.Task
	for ev, err := range seq {
		if err != nil {
			return t, err
		}
		t = a2a.ApplyEvent(t, ev)
	}
	return t, nil
}
