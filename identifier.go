// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"net/url"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
)

// AgentID identifies an agent. It is either an opaque name or an absolute URL.
type AgentID string

// NewAgentID validates s and returns it as an [AgentID].
//
// Surrounding whitespace is trimmed. Values containing "://" must parse as URLs.
func NewAgentID(s string) (AgentID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", NewError(KindInvalidAgentID, "empty agent ID")
	}
	if strings.Contains(s, "://") {
		if _, err := url.Parse(s); err != nil {
			return "", Wrap(KindInvalidAgentID, err, "invalid agent URL")
		}
	}
	return AgentID(s), nil
}

// GenerateAgentID returns a random UUID backed [AgentID].
func GenerateAgentID() AgentID {
	return AgentID(uuid.NewString())
}

// String implements [fmt.Stringer].
func (id AgentID) String() string { return string(id) }

// Compare orders ids by their string value.
func (id AgentID) Compare(other AgentID) int {
	return strings.Compare(string(id), string(other))
}

// UnmarshalJSON implements [json.Unmarshaler].
func (id *AgentID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return Wrap(KindSerialization, err, "decode agent ID")
	}
	v, err := NewAgentID(s)
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// MessageID identifies a [Message].
type MessageID string

// NewMessageID returns a random UUID shaped [MessageID].
func NewMessageID() MessageID {
	return MessageID(uuid.NewString())
}

// ParseMessageID validates s and returns it as a [MessageID].
func ParseMessageID(s string) (MessageID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", NewError(KindInvalidMessage, "empty message ID")
	}
	return MessageID(s), nil
}

// String implements [fmt.Stringer].
func (id MessageID) String() string { return string(id) }

// Compare orders ids by their string value.
func (id MessageID) Compare(other MessageID) int {
	return strings.Compare(string(id), string(other))
}

// IsUUID reports whether id was generated by [NewMessageID] or has the same shape.
func (id MessageID) IsUUID() bool {
	return uuid.Validate(string(id)) == nil
}

// UnmarshalJSON implements [json.Unmarshaler].
func (id *MessageID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return Wrap(KindSerialization, err, "decode message ID")
	}
	v, err := ParseMessageID(s)
	if err != nil {
		return err
	}
	*id = v
	return nil
}
