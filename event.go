// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"time"

	"github.com/go-json-experiment/json"
)

// SendResponse is the result of message/send: either a [*Message] when the
// agent answered synchronously, or a [*Task] tracking asynchronous work.
type SendResponse interface {
	Kind() EventKind
	isSendResponse()
}

var (
	_ SendResponse = (*Message)(nil)
	_ SendResponse = (*Task)(nil)
)

func (*Message) isSendResponse() {}
func (*Task) isSendResponse()    {}

// UnmarshalSendResponse decodes a message/send result by its "kind" member.
func UnmarshalSendResponse(data []byte) (SendResponse, error) {
	kind, err := peekKind(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case MessageEventKind:
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return &m, nil
	case TaskEventKind:
		var t Task
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		return &t, nil
	default:
		return nil, Errorf(KindProtocolViolation, "unknown send response kind %q", kind)
	}
}

// StreamEvent is one event published on a task or message stream.
//
// The concrete types are [*Message], [*Task], [*TaskStatusUpdateEvent] and
// [*TaskArtifactUpdateEvent]. Kind doubles as the event-stream frame type.
type StreamEvent interface {
	Kind() EventKind
	isStreamEvent()
}

var (
	_ StreamEvent = (*Message)(nil)
	_ StreamEvent = (*Task)(nil)
	_ StreamEvent = (*TaskStatusUpdateEvent)(nil)
	_ StreamEvent = (*TaskArtifactUpdateEvent)(nil)
)

func (*Message) isStreamEvent()                 {}
func (*Task) isStreamEvent()                    {}
func (*TaskStatusUpdateEvent) isStreamEvent()   {}
func (*TaskArtifactUpdateEvent) isStreamEvent() {}

// TaskStatusUpdateEvent reports a task status change.
type TaskStatusUpdateEvent struct {
	TaskID        string     `json:"taskId"`
	ContextID     string     `json:"contextId,omitzero"`
	Status        TaskStatus `json:"status"`
	PreviousState TaskState  `json:"previousState,omitzero"`
	Final         bool       `json:"final"`
	Timestamp     time.Time  `json:"timestamp"`
}

// Kind returns [StatusUpdateEventKind].
func (*TaskStatusUpdateEvent) Kind() EventKind { return StatusUpdateEventKind }

// TaskArtifactUpdateEvent reports an artifact added to a task.
type TaskArtifactUpdateEvent struct {
	TaskID       string         `json:"taskId"`
	ArtifactID   string         `json:"artifactId"`
	ArtifactType string         `json:"artifactType"`
	Artifact     *Artifact      `json:"artifact,omitzero"`
	Metadata     map[string]any `json:"metadata,omitzero"`
	Final        bool           `json:"final"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Kind returns [ArtifactUpdateEventKind].
func (*TaskArtifactUpdateEvent) Kind() EventKind { return ArtifactUpdateEventKind }

// NewStatusUpdate returns a status event describing the change from prev to t's current status.
func NewStatusUpdate(t *Task, prev TaskState) *TaskStatusUpdateEvent {
	return &TaskStatusUpdateEvent{
		TaskID:        t.ID,
		ContextID:     t.ContextID,
		Status:        TaskStatus{State: t.Status.State, Message: t.Status.Message.Clone(), Timestamp: t.Status.Timestamp},
		PreviousState: prev,
		Final:         t.Status.State.IsTerminal(),
		Timestamp:     time.Now().UTC(),
	}
}

// NewArtifactUpdate returns an artifact event for a added to the task with taskID.
func NewArtifactUpdate(taskID string, a Artifact, final bool) *TaskArtifactUpdateEvent {
	c := a.Clone()
	return &TaskArtifactUpdateEvent{
		TaskID:       taskID,
		ArtifactID:   a.ArtifactID,
		ArtifactType: a.Type,
		Artifact:     &c,
		Metadata:     c.Metadata,
		Final:        final,
		Timestamp:    time.Now().UTC(),
	}
}

// DecodeStreamEvent decodes data as the event variant named by kind.
// An unknown kind is a [KindProtocolViolation] error.
func DecodeStreamEvent(kind EventKind, data []byte) (StreamEvent, error) {
	var ev StreamEvent
	switch kind {
	case MessageEventKind:
		ev = new(Message)
	case TaskEventKind:
		ev = new(Task)
	case StatusUpdateEventKind:
		ev = new(TaskStatusUpdateEvent)
	case ArtifactUpdateEventKind:
		ev = new(TaskArtifactUpdateEvent)
	default:
		return nil, Errorf(KindProtocolViolation, "unknown stream event type %q", kind)
	}
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, Wrap(KindSerialization, err, "decode "+string(kind)+" event")
	}
	return ev, nil
}

// peekKind extracts the top level "kind" member of a JSON object.
func peekKind(data []byte) (EventKind, error) {
	var probe struct {
		Kind EventKind `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", Wrap(KindSerialization, err, "decode kind")
	}
	if probe.Kind == "" {
		return "", NewError(KindProtocolViolation, "missing kind discriminator")
	}
	return probe.Kind, nil
}
