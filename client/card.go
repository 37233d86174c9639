// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-json-experiment/json"

	"github.com/go-a2a/a2a"
)

// maxCardSize bounds the bytes read from an agent card response.
const maxCardSize = 1 << 20

// FetchWellKnownCard fetches the public card at [a2a.AgentCardWellKnownPath].
func (c *Client) FetchWellKnownCard(ctx context.Context) (*a2a.AgentCard, error) {
	return FetchAgentCard(ctx, c.baseURL, c.httpClient)
}

// FetchAgentCard fetches the public card of the agent served at baseURL.
// A nil hc selects [http.DefaultClient].
func FetchAgentCard(ctx context.Context, baseURL string, hc *http.Client) (*a2a.AgentCard, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	target := strings.TrimRight(baseURL, "/") + a2a.AgentCardWellKnownPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, a2a.Wrap(a2a.KindConfiguration, err, "create card request")
	}
	req.Header.Set("Accept", a2a.ContentTypeJSON)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, a2a.Wrap(a2a.KindNetwork, err, "fetch agent card")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, a2a.Errorf(a2a.KindAgentNotFound, "no agent card at %s", target)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, a2a.Errorf(a2a.KindTransport, "fetch agent card from %s: %s", target, resp.Status)
	}

	var card a2a.AgentCard
	if err := json.UnmarshalRead(io.LimitReader(resp.Body, maxCardSize), &card); err != nil {
		return nil, a2a.Wrap(a2a.KindSerialization, err, "decode agent card")
	}
	return &card, nil
}

// ValidateAgentCard reports the first required member missing from card.
func ValidateAgentCard(card *a2a.AgentCard) error {
	if card == nil {
		return a2a.NewError(a2a.KindValidation, "agent card is nil")
	}
	if err := card.AgentProfile.Validate(); err != nil {
		return err
	}
	if card.ProtocolVersion == "" {
		return a2a.NewError(a2a.KindValidation, "agent card missing protocolVersion")
	}
	for i, skill := range card.Skills {
		if skill.ID == "" {
			return a2a.NewError(a2a.KindValidation, fmt.Sprintf("skill #%d missing id", i+1))
		}
		if skill.Name == "" {
			return a2a.NewError(a2a.KindValidation, fmt.Sprintf("skill #%d missing name", i+1))
		}
	}
	return nil
}

// FindSkill finds a skill by id in an agent card.
func FindSkill(card *a2a.AgentCard, skillID string) (*a2a.AgentSkill, bool) {
	for i := range card.Skills {
		if card.Skills[i].ID == skillID {
			return &card.Skills[i], true
		}
	}
	return nil, false
}

// SupportedInputModes returns the input modes of a skill, falling back to the
// card's defaults when the skill is unknown or declares none.
func SupportedInputModes(card *a2a.AgentCard, skillID string) []string {
	if skill, ok := FindSkill(card, skillID); ok && len(skill.InputModes) > 0 {
		return skill.InputModes
	}
	return card.DefaultInputModes
}

// SupportedOutputModes is the output counterpart of [SupportedInputModes].
func SupportedOutputModes(card *a2a.AgentCard, skillID string) []string {
	if skill, ok := FindSkill(card, skillID); ok && len(skill.OutputModes) > 0 {
		return skill.OutputModes
	}
	return card.DefaultOutputModes
}
