// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-json-experiment/json"

	"github.com/go-a2a/a2a"
	"github.com/go-a2a/a2a/internal/pool"
)

var keepAliveFrame = []byte(": keep-alive\n\n")

// Writer frames stream events as server-sent events on an HTTP response.
// It is safe for concurrent use; frames never interleave.
type Writer struct {
	mu sync.Mutex
	w  http.ResponseWriter
	rc *http.ResponseController
}

// NewWriter sets the event-stream headers on w and sends them.
func NewWriter(w http.ResponseWriter) *Writer {
	h := w.Header()
	h.Set("Content-Type", a2a.ContentTypeEventStream)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	sw := &Writer{w: w, rc: http.NewResponseController(w)}
	sw.rc.Flush()
	return sw
}

// Write sends ev as one frame named after its kind.
func (w *Writer) Write(ev a2a.StreamEvent) error {
	return w.frame(ev.Kind().String(), ev)
}

// WriteError sends err as an "error" frame carrying a JSON-RPC error object.
func (w *Writer) WriteError(err error) error {
	return w.frame("error", a2a.ToRPCError(err))
}

func (w *Writer) frame(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return a2a.Wrap(a2a.KindSerialization, err, "encode "+name+" event")
	}

	buf := pool.Bytes.Get()
	defer pool.PutBytes(buf)
	buf.WriteString("event: ")
	buf.WriteString(name)
	buf.WriteString("\ndata: ")
	buf.Write(data)
	buf.WriteString("\n\n")
	return w.send(buf.Bytes())
}

func (w *Writer) send(p []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(p); err != nil {
		return err
	}
	if err := w.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

// KeepAlive sends a comment frame every interval until ctx is done or a
// write fails. A non-positive interval means [a2a.DefaultKeepAliveInterval].
func (w *Writer) KeepAlive(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = a2a.DefaultKeepAliveInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.send(keepAliveFrame); err != nil {
				return err
			}
		}
	}
}
