// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-a2a/a2a"
)

func testCard() *a2a.AgentCard {
	return a2a.NewAgentCard(a2a.AgentProfile{
		ID:                 "writer",
		Name:               "Writer",
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain"},
		Skills: []a2a.AgentSkill{
			{ID: "summarize", Name: "Summarize", InputModes: []string{"text/html"}},
			{ID: "translate", Name: "Translate", OutputModes: []string{"text/markdown"}},
		},
	}, a2a.Capabilities{})
}

func TestValidateAgentCard(t *testing.T) {
	tests := map[string]struct {
		modify   func(*a2a.AgentCard) *a2a.AgentCard
		wantErr  bool
		wantKind a2a.ErrorKind
	}{
		"valid": {
			modify: func(c *a2a.AgentCard) *a2a.AgentCard { return c },
		},
		"nil card": {
			modify:   func(*a2a.AgentCard) *a2a.AgentCard { return nil },
			wantErr:  true,
			wantKind: a2a.KindValidation,
		},
		"missing id": {
			modify:   func(c *a2a.AgentCard) *a2a.AgentCard { c.ID = ""; return c },
			wantErr:  true,
			wantKind: a2a.KindInvalidAgentID,
		},
		"missing name": {
			modify:   func(c *a2a.AgentCard) *a2a.AgentCard { c.Name = ""; return c },
			wantErr:  true,
			wantKind: a2a.KindValidation,
		},
		"missing protocol version": {
			modify:   func(c *a2a.AgentCard) *a2a.AgentCard { c.ProtocolVersion = ""; return c },
			wantErr:  true,
			wantKind: a2a.KindValidation,
		},
		"skill without name": {
			modify:   func(c *a2a.AgentCard) *a2a.AgentCard { c.Skills[1].Name = ""; return c },
			wantErr:  true,
			wantKind: a2a.KindValidation,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := ValidateAgentCard(tt.modify(testCard()))
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("ValidateAgentCard() error = %v", err)
				}
				return
			}
			if got := a2a.KindOf(err); got != tt.wantKind {
				t.Errorf("ValidateAgentCard() kind = %v, want %v (err %v)", got, tt.wantKind, err)
			}
		})
	}
}

func TestSupportedModes(t *testing.T) {
	card := testCard()
	tests := map[string]struct {
		skill      string
		wantInput  []string
		wantOutput []string
	}{
		"skill input override":  {skill: "summarize", wantInput: []string{"text/html"}, wantOutput: []string{"text/plain"}},
		"skill output override": {skill: "translate", wantInput: []string{"text/plain"}, wantOutput: []string{"text/markdown"}},
		"unknown skill":         {skill: "draw", wantInput: []string{"text/plain"}, wantOutput: []string{"text/plain"}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if diff := cmp.Diff(tt.wantInput, SupportedInputModes(card, tt.skill)); diff != "" {
				t.Errorf("SupportedInputModes() (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantOutput, SupportedOutputModes(card, tt.skill)); diff != "" {
				t.Errorf("SupportedOutputModes() (-want +got):\n%s", diff)
			}
		})
	}

	if s, ok := FindSkill(card, "translate"); !ok || s.Name != "Translate" {
		t.Errorf("FindSkill(translate) = %v, %t", s, ok)
	}
}

func TestFetchAgentCard(t *testing.T) {
	tests := map[string]struct {
		handler  http.HandlerFunc
		want     *a2a.AgentCard
		wantErr  bool
		wantKind a2a.ErrorKind
	}{
		"ok": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != a2a.AgentCardWellKnownPath {
					http.NotFound(w, r)
					return
				}
				w.Header().Set("Content-Type", a2a.ContentTypeJSON)
				w.Write([]byte(`{"id":"writer","name":"Writer","protocolVersion":"0.3.0","capabilities":{"streaming":true,"pushNotifications":false,"stateTransitionHistory":false},"unknownMember":1}`))
			},
			want: &a2a.AgentCard{
				AgentProfile:    a2a.AgentProfile{ID: "writer", Name: "Writer"},
				ProtocolVersion: "0.3.0",
				Capabilities:    a2a.AgentCapabilities{Streaming: true},
			},
		},
		"not found": {
			handler:  http.NotFound,
			wantErr:  true,
			wantKind: a2a.KindAgentNotFound,
		},
		"server error": {
			handler:  func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			wantErr:  true,
			wantKind: a2a.KindTransport,
		},
		"malformed": {
			handler:  func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte(`{"id":`)) },
			wantErr:  true,
			wantKind: a2a.KindSerialization,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			got, err := FetchAgentCard(t.Context(), ts.URL+"/", nil)
			if tt.wantErr {
				if k := a2a.KindOf(err); k != tt.wantKind {
					t.Fatalf("FetchAgentCard() kind = %v, want %v (err %v)", k, tt.wantKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchAgentCard() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FetchAgentCard() (-want +got):\n%s", diff)
			}
		})
	}
}
