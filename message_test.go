// Copyright 2025 The Go A2A Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"testing"
)

func TestNewMessages(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		msg      *Message
		wantRole Role
		wantText string
	}{
		"user text":  {msg: NewUserTextMessage("hello"), wantRole: RoleUser, wantText: "hello"},
		"agent text": {msg: NewAgentTextMessage("hi"), wantRole: RoleAgent, wantText: "hi"},
		"mixed parts": {
			msg: NewMessage(RoleUser,
				NewTextPart("see "),
				&DataPart{Data: map[string]any{"k": "v"}},
				NewTextPart("attached"),
			),
			wantRole: RoleUser,
			wantText: "see attached",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if tt.msg.Role != tt.wantRole {
				t.Errorf("Role = %q, want %q", tt.msg.Role, tt.wantRole)
			}
			if got := tt.msg.Text(); got != tt.wantText {
				t.Errorf("Text() = %q, want %q", got, tt.wantText)
			}
			if !tt.msg.MessageID.IsUUID() {
				t.Errorf("MessageID = %q, want a generated UUID", tt.msg.MessageID)
			}
			if tt.msg.Kind() != MessageEventKind {
				t.Errorf("Kind() = %q", tt.msg.Kind())
			}
		})
	}

	var nilMsg *Message
	if got := nilMsg.Text(); got != "" {
		t.Errorf("nil Text() = %q", got)
	}
}

func TestMessageValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		msg     *Message
		wantErr bool
	}{
		"valid": {
			msg: NewUserTextMessage("x"),
		},
		"no parts": {
			msg: &Message{MessageID: "m", Role: RoleAgent},
		},
		"nil": {
			msg:     nil,
			wantErr: true,
		},
		"bad role": {
			msg:     &Message{MessageID: "m", Role: "robot", Parts: Parts{NewTextPart("x")}},
			wantErr: true,
		},
		"nil part": {
			msg:     &Message{MessageID: "m", Role: RoleUser, Parts: Parts{nil}},
			wantErr: true,
		},
		"file without content": {
			msg:     NewMessage(RoleUser, &FilePart{File: FileContent{Name: "a.txt"}}),
			wantErr: true,
		},
		"file with bytes and uri": {
			msg:     NewMessage(RoleUser, &FilePart{File: FileContent{Bytes: []byte("x"), URI: "https://example.com/a"}}),
			wantErr: true,
		},
		"file by uri": {
			msg: NewMessage(RoleUser, &FilePart{File: FileContent{URI: "https://example.com/a", MIMEType: "text/plain"}}),
		},
		"data without object": {
			msg:     NewMessage(RoleUser, &DataPart{}),
			wantErr: true,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && KindOf(err) != KindInvalidMessage {
				t.Errorf("Validate() kind = %v, want %v", KindOf(err), KindInvalidMessage)
			}
		})
	}
}

func TestMessageCloneIndependent(t *testing.T) {
	t.Parallel()

	orig := NewUserTextMessage("hello")
	orig.Metadata = map[string]any{"k": "v"}

	c := orig.Clone()
	c.Parts[0].(*TextPart).Text = "changed"
	c.Metadata["k"] = "changed"

	if orig.Text() != "hello" || orig.Metadata["k"] != "v" {
		t.Errorf("modifying a clone changed the original: %+v", orig)
	}
}
