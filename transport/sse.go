// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bytes"
	"errors"
	"io"
	"iter"

	"github.com/go-json-experiment/json"
	"github.com/r3labs/sse/v2"

	"github.com/go-a2a/a2a"
)

// maxFrameSize bounds a single server-sent event frame.
const maxFrameSize = 4 << 20

// errorEventName names the frame a server sends when a stream fails.
const errorEventName = "error"

var (
	fieldEvent = []byte("event")
	fieldData  = []byte("data")
	fieldID    = []byte("id")
	fieldRetry = []byte("retry")
)

// parseFrame splits one raw frame into its fields. Lines starting with a
// colon are comments.
func parseFrame(raw []byte) *sse.Event {
	ev := new(sse.Event)
	var data [][]byte
	for line := range bytes.Lines(raw) {
		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			continue
		}
		if line[0] == ':' {
			ev.Comment = append(ev.Comment, bytes.TrimSpace(line[1:])...)
			continue
		}
		name, value, _ := bytes.Cut(line, []byte(":"))
		value = bytes.TrimPrefix(value, []byte(" "))
		switch {
		case bytes.Equal(name, fieldEvent):
			ev.Event = append([]byte(nil), value...)
		case bytes.Equal(name, fieldData):
			data = append(data, value)
		case bytes.Equal(name, fieldID):
			ev.ID = append([]byte(nil), value...)
		case bytes.Equal(name, fieldRetry):
			ev.Retry = append([]byte(nil), value...)
		}
	}
	if data != nil {
		ev.Data = bytes.Join(data, []byte("\n"))
	}
	return ev
}

// readFrames yields the non-comment frames of an event stream.
func readFrames(r io.Reader) iter.Seq2[*sse.Event, error] {
	return func(yield func(*sse.Event, error) bool) {
		reader := sse.NewEventStreamReader(r, maxFrameSize)
		for {
			raw, err := reader.ReadEvent()
			if len(raw) > 0 {
				ev := parseFrame(raw)
				if len(ev.Data) > 0 || len(ev.Event) > 0 {
					if !yield(ev, nil) {
						return
					}
				}
			}
			if err != nil {
				switch {
				case errors.Is(err, io.EOF):
				case IsConnectionClosedError(err):
					yield(nil, a2a.Wrap(a2a.KindNetwork, err, "event stream closed"))
				default:
					yield(nil, a2a.Wrap(a2a.KindNetwork, err, "read event stream"))
				}
				return
			}
		}
	}
}

// DecodeEvents yields the A2A events carried by an SSE body.
//
// Frames without an event name are treated as "message" events, the SSE
// default. An "error" frame yields the decoded JSON-RPC error; an unknown
// event name yields a [a2a.KindProtocolViolation] error. Either ends the
// sequence.
func DecodeEvents(r io.Reader) iter.Seq2[a2a.StreamEvent, error] {
	return func(yield func(a2a.StreamEvent, error) bool) {
		for frame, err := range readFrames(r) {
			if err != nil {
				yield(nil, err)
				return
			}

			name := string(frame.Event)
			if name == "" {
				name = string(a2a.MessageEventKind)
			}
			if name == errorEventName {
				var rpcErr a2a.RPCError
				if err := json.Unmarshal(frame.Data, &rpcErr); err != nil {
					yield(nil, a2a.Wrap(a2a.KindSerialization, err, "decode error event"))
					return
				}
				yield(nil, rpcErr.AsError())
				return
			}

			ev, err := a2a.DecodeStreamEvent(a2a.EventKind(name), frame.Data)
			if !yield(ev, err) || err != nil {
				return
			}
		}
	}
}
