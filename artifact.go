// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"maps"

	"github.com/google/uuid"
)

// Artifact is an output produced by a task. Artifacts accumulate on a task
// and are never removed.
type Artifact struct {
	ArtifactID  string         `json:"artifactId"`
	Type        string         `json:"type"`
	Name        string         `json:"name,omitzero"`
	Description string         `json:"description,omitzero"`
	Parts       Parts          `json:"parts"`
	Metadata    map[string]any `json:"metadata,omitzero"`
}

// NewArtifact returns an artifact of the given type with a generated id.
func NewArtifact(artifactType string, parts ...Part) Artifact {
	return Artifact{
		ArtifactID: uuid.NewString(),
		Type:       artifactType,
		Parts:      parts,
	}
}

// NewTextArtifact returns a "text/plain" artifact holding text.
func NewTextArtifact(name, text string) Artifact {
	a := NewArtifact("text/plain", NewTextPart(text))
	a.Name = name
	return a
}

// NewDataArtifact returns an "application/json" artifact holding data.
func NewDataArtifact(name string, data map[string]any) Artifact {
	a := NewArtifact("application/json", &DataPart{Data: data})
	a.Name = name
	return a
}

// Validate checks the structure of a.
func (a *Artifact) Validate() error {
	if a.ArtifactID == "" {
		return NewError(KindValidation, "artifact ID cannot be empty")
	}
	if a.Type == "" {
		return NewError(KindValidation, "artifact type cannot be empty")
	}
	return a.Parts.Validate()
}

// Clone returns a deep copy of a.
func (a Artifact) Clone() Artifact {
	a.Parts = a.Parts.clone()
	a.Metadata = maps.Clone(a.Metadata)
	return a
}
