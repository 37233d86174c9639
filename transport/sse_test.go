// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-a2a/a2a"
)

func TestParseFrame(t *testing.T) {
	ev := parseFrame([]byte(": ping\nid: 7\nevent: task\ndata: {\"a\":\ndata: 1}\nretry: 100\n"))
	if got := string(ev.Comment); got != "ping" {
		t.Errorf("Comment = %q", got)
	}
	if got := string(ev.ID); got != "7" {
		t.Errorf("ID = %q", got)
	}
	if got := string(ev.Event); got != "task" {
		t.Errorf("Event = %q", got)
	}
	if got := string(ev.Data); got != "{\"a\":\n1}" {
		t.Errorf("Data = %q", got)
	}
	if got := string(ev.Retry); got != "100" {
		t.Errorf("Retry = %q", got)
	}
}

func TestDecodeEvents(t *testing.T) {
	stream := strings.Join([]string{
		": keep-alive",
		"",
		"event: task",
		`data: {"kind":"task","id":"t1","contextId":"c1","status":{"state":"submitted"}}`,
		"",
		"event: task-status-update",
		`data: {"kind":"task-status-update","taskId":"t1","contextId":"c1","status":{"state":"working"},"final":false}`,
		"",
		`data: {"kind":"message","messageId":"m1","role":"agent","parts":[{"kind":"text","text":"hi"}]}`,
		"",
		"",
	}, "\n")

	var kinds []a2a.EventKind
	for ev, err := range DecodeEvents(strings.NewReader(stream)) {
		if err != nil {
			t.Fatalf("DecodeEvents() error = %v", err)
		}
		kinds = append(kinds, ev.Kind())
	}

	want := []a2a.EventKind{a2a.TaskEventKind, a2a.StatusUpdateEventKind, a2a.MessageEventKind}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("event kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeEventsErrorFrame(t *testing.T) {
	stream := "event: task\n" +
		`data: {"kind":"task","id":"t1","contextId":"c1","status":{"state":"working"}}` + "\n\n" +
		"event: error\n" +
		`data: {"code":-32001,"message":"task not found: t1"}` + "\n\n" +
		"event: task\n" +
		`data: {"kind":"task","id":"t2","contextId":"c1","status":{"state":"working"}}` + "\n\n"

	var n int
	var last error
	for ev, err := range DecodeEvents(strings.NewReader(stream)) {
		if err != nil {
			last = err
			continue
		}
		if ev != nil {
			n++
		}
	}
	if n != 1 {
		t.Errorf("decoded %d events before the error, want 1", n)
	}
	if !errors.Is(last, a2a.ErrTaskNotFound) {
		t.Errorf("error = %v, want task not found", last)
	}
}

func TestDecodeEventsUnknownKind(t *testing.T) {
	stream := "event: bogus\ndata: {}\n\n"
	for _, err := range DecodeEvents(strings.NewReader(stream)) {
		if a2a.KindOf(err) != a2a.KindProtocolViolation {
			t.Errorf("error = %v, want protocol violation", err)
		}
	}
}

func TestDecodeEventsStopsEarly(t *testing.T) {
	stream := strings.Repeat("event: task\n"+`data: {"kind":"task","id":"t1","contextId":"c1","status":{"state":"working"}}`+"\n\n", 5)
	var n int
	for range DecodeEvents(strings.NewReader(stream)) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}
}
