// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"maps"

	"github.com/go-json-experiment/json"
)

// Message is one turn of communication between a user and an agent.
type Message struct {
	MessageID MessageID      `json:"messageId"`
	Role      Role           `json:"role"`
	Parts     Parts          `json:"parts"`
	TaskID    string         `json:"taskId,omitzero"`
	ContextID string         `json:"contextId,omitzero"`
	Metadata  map[string]any `json:"metadata,omitzero"`
}

// NewMessage returns a message from role with a generated id.
func NewMessage(role Role, parts ...Part) *Message {
	return &Message{
		MessageID: NewMessageID(),
		Role:      role,
		Parts:     parts,
	}
}

// NewUserTextMessage returns a user message holding a single text part.
func NewUserTextMessage(text string) *Message {
	return NewMessage(RoleUser, NewTextPart(text))
}

// NewAgentTextMessage returns an agent message holding a single text part.
func NewAgentTextMessage(text string) *Message {
	return NewMessage(RoleAgent, NewTextPart(text))
}

// Text returns the concatenated text parts of m.
func (m *Message) Text() string {
	if m == nil {
		return ""
	}
	return m.Parts.Text()
}

// Kind returns [MessageEventKind].
func (*Message) Kind() EventKind { return MessageEventKind }

// Validate checks the structure of m. An empty parts list is structurally valid.
func (m *Message) Validate() error {
	if m == nil {
		return NewError(KindInvalidMessage, "message is nil")
	}
	if !m.Role.Valid() {
		return Errorf(KindInvalidMessage, "invalid message role %q", m.Role)
	}
	return m.Parts.Validate()
}

// Clone returns a deep copy of m.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	c.Parts = m.Parts.clone()
	c.Metadata = maps.Clone(m.Metadata)
	return &c
}

type message Message

type messageWire struct {
	Kind EventKind `json:"kind"`
	Msg  message   `json:",inline"`
}

// MarshalJSON implements [json.Marshaler]. It adds the "kind" discriminator.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(messageWire{Kind: MessageEventKind, Msg: message(m)})
}

// UnmarshalJSON implements [json.Unmarshaler].
func (m *Message) UnmarshalJSON(data []byte) error {
	var w messageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Wrap(KindSerialization, err, "decode message")
	}
	if w.Kind != "" && w.Kind != MessageEventKind {
		return Errorf(KindSerialization, "unexpected kind %q for message", w.Kind)
	}
	*m = Message(w.Msg)
	return nil
}
