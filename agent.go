// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import "slices"

// AgentProvider represents the service provider of an agent.
type AgentProvider struct {
	Organization string `json:"organization"`
	URL          string `json:"url,omitzero"`
}

// AgentSkill describes a unit of capability an agent can perform.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitzero"`
	Tags        []string `json:"tags,omitzero"`
	Examples    []string `json:"examples,omitzero"`
	InputModes  []string `json:"inputModes,omitzero"`
	OutputModes []string `json:"outputModes,omitzero"`
}

// AgentProfile is the transport independent self description of an agent.
// Agents author profiles; servers turn them into an [AgentCard].
type AgentProfile struct {
	ID                 AgentID        `json:"id"`
	Name               string         `json:"name"`
	Description        string         `json:"description,omitzero"`
	Version            string         `json:"version,omitzero"`
	URL                string         `json:"url,omitzero"`
	Provider           *AgentProvider `json:"provider,omitzero"`
	DocumentationURL   string         `json:"documentationUrl,omitzero"`
	DefaultInputModes  []string       `json:"defaultInputModes,omitzero"`
	DefaultOutputModes []string       `json:"defaultOutputModes,omitzero"`
	Skills             []AgentSkill   `json:"skills,omitzero"`
	Metadata           map[string]any `json:"metadata,omitzero"`
}

// Validate checks that the profile identifies its agent.
func (p *AgentProfile) Validate() error {
	if p.ID == "" {
		return NewError(KindInvalidAgentID, "agent profile ID cannot be empty")
	}
	if p.Name == "" {
		return NewError(KindValidation, "agent profile name cannot be empty")
	}
	return nil
}

// AgentCapabilities are the transport level features a server offers.
type AgentCapabilities struct {
	Streaming              bool `json:"streaming"`
	PushNotifications      bool `json:"pushNotifications"`
	StateTransitionHistory bool `json:"stateTransitionHistory"`
}

// AgentInterface is an additional endpoint at which an agent is reachable.
type AgentInterface struct {
	URL       string `json:"url"`
	Transport string `json:"transport"`
}

// Capabilities configures how an [AgentCard] is assembled from a profile.
type Capabilities struct {
	AgentCapabilities
	PreferredTransport                string
	AdditionalInterfaces              []AgentInterface
	SupportsAuthenticatedExtendedCard bool
}

// AgentCard is an [AgentProfile] enriched with transport capability flags.
type AgentCard struct {
	AgentProfile
	ProtocolVersion                   string            `json:"protocolVersion"`
	Capabilities                      AgentCapabilities `json:"capabilities"`
	PreferredTransport                string            `json:"preferredTransport,omitzero"`
	AdditionalInterfaces              []AgentInterface  `json:"additionalInterfaces,omitzero"`
	SupportsAuthenticatedExtendedCard bool              `json:"supportsAuthenticatedExtendedCard,omitzero"`
}

// NewAgentCard combines profile with caps.
func NewAgentCard(profile AgentProfile, caps Capabilities) *AgentCard {
	preferred := caps.PreferredTransport
	if preferred == "" {
		preferred = TransportJSONRPC
	}
	return &AgentCard{
		AgentProfile:                      profile,
		ProtocolVersion:                   ProtocolVersion,
		Capabilities:                      caps.AgentCapabilities,
		PreferredTransport:                preferred,
		AdditionalInterfaces:              slices.Clone(caps.AdditionalInterfaces),
		SupportsAuthenticatedExtendedCard: caps.SupportsAuthenticatedExtendedCard,
	}
}

// HasSkill reports whether the card advertises a skill with the given id.
func (c *AgentCard) HasSkill(id string) bool {
	return slices.ContainsFunc(c.Skills, func(s AgentSkill) bool { return s.ID == id })
}
