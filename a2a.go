// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package a2a implements the core types of the Agent-to-Agent (A2A) protocol.
//
// The package holds the wire data model (messages, tasks, artifacts and agent
// descriptors), the error taxonomy shared by clients and servers, the JSON-RPC
// envelope and the tagged union of streaming events. Transports, servers and
// clients live in sub-packages and exchange the types defined here.
package a2a

// ProtocolVersion is the A2A protocol version advertised in agent cards.
const ProtocolVersion = "0.3.0"

// Version is the version of this module.
const Version = "0.2.0"

// Role identifies the sender of a [Message].
type Role string

const (
	// RoleUser marks a message authored by the calling side.
	RoleUser Role = "user"
	// RoleAgent marks a message authored by an agent.
	RoleAgent Role = "agent"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAgent
}

// EventKind is the wire discriminator carried by messages, tasks and stream events.
type EventKind string

const (
	MessageEventKind        EventKind = "message"
	TaskEventKind           EventKind = "task"
	StatusUpdateEventKind   EventKind = "task-status-update"
	ArtifactUpdateEventKind EventKind = "task-artifact-update"
)

// String implements [fmt.Stringer].
func (k EventKind) String() string { return string(k) }
