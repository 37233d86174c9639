// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/go-json-experiment/json"
)

// PartKind is the wire discriminator of a [Part].
type PartKind string

const (
	PartKindText PartKind = "text"
	PartKindFile PartKind = "file"
	PartKindData PartKind = "data"
)

// Part is one segment of message or artifact content.
//
// The concrete types are [*TextPart], [*FilePart] and [*DataPart].
type Part interface {
	// Kind returns the wire discriminator of the part.
	Kind() PartKind
	// Validate checks the part is well formed.
	Validate() error
}

// TextPart carries plain text.
type TextPart struct {
	Text     string
	Metadata map[string]any
}

var _ Part = (*TextPart)(nil)

// NewTextPart returns a [*TextPart] holding text.
func NewTextPart(text string) *TextPart {
	return &TextPart{Text: text}
}

// Kind implements [Part].
func (*TextPart) Kind() PartKind { return PartKindText }

// Validate implements [Part].
func (*TextPart) Validate() error { return nil }

// FileContent describes a file either inline or by reference.
type FileContent struct {
	Name     string `json:"name,omitzero"`
	MIMEType string `json:"mimeType,omitzero"`
	Bytes    []byte `json:"bytes,omitzero"`
	URI      string `json:"uri,omitzero"`
}

// FilePart carries a file.
type FilePart struct {
	File     FileContent
	Metadata map[string]any
}

var _ Part = (*FilePart)(nil)

// Kind implements [Part].
func (*FilePart) Kind() PartKind { return PartKindFile }

// Validate implements [Part].
func (p *FilePart) Validate() error {
	switch {
	case len(p.File.Bytes) == 0 && p.File.URI == "":
		return NewError(KindInvalidMessage, "file part must carry bytes or a URI")
	case len(p.File.Bytes) > 0 && p.File.URI != "":
		return NewError(KindInvalidMessage, "file part cannot carry both bytes and a URI")
	}
	return nil
}

// DataPart carries structured JSON data.
type DataPart struct {
	Data     map[string]any
	Metadata map[string]any
}

var _ Part = (*DataPart)(nil)

// Kind implements [Part].
func (*DataPart) Kind() PartKind { return PartKindData }

// Validate implements [Part].
func (p *DataPart) Validate() error {
	if p.Data == nil {
		return NewError(KindInvalidMessage, "data part must carry an object")
	}
	return nil
}

// partWire is the flattened wire form shared by every part kind.
type partWire struct {
	Kind     PartKind       `json:"kind"`
	Text     *string        `json:"text,omitzero"`
	File     *FileContent   `json:"file,omitzero"`
	Data     map[string]any `json:"data,omitzero"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// Parts is an ordered list of [Part] values that encodes each element with its kind tag.
type Parts []Part

// MarshalJSON implements [json.Marshaler].
func (ps Parts) MarshalJSON() ([]byte, error) {
	wire := make([]partWire, len(ps))
	for i, p := range ps {
		switch p := p.(type) {
		case *TextPart:
			text := p.Text
			wire[i] = partWire{Kind: PartKindText, Text: &text, Metadata: p.Metadata}
		case *FilePart:
			file := p.File
			wire[i] = partWire{Kind: PartKindFile, File: &file, Metadata: p.Metadata}
		case *DataPart:
			data := p.Data
			if data == nil {
				data = map[string]any{}
			}
			wire[i] = partWire{Kind: PartKindData, Data: data, Metadata: p.Metadata}
		case nil:
			return nil, NewError(KindSerialization, fmt.Sprintf("part %d is nil", i))
		default:
			return nil, Errorf(KindSerialization, "part %d has unsupported type %T", i, p)
		}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements [json.Unmarshaler].
func (ps *Parts) UnmarshalJSON(data []byte) error {
	var wire []partWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return Wrap(KindSerialization, err, "decode parts")
	}
	out := make(Parts, len(wire))
	for i, w := range wire {
		switch w.Kind {
		case PartKindText:
			p := &TextPart{Metadata: w.Metadata}
			if w.Text != nil {
				p.Text = *w.Text
			}
			out[i] = p
		case PartKindFile:
			if w.File == nil {
				return Errorf(KindSerialization, "file part %d has no file", i)
			}
			out[i] = &FilePart{File: *w.File, Metadata: w.Metadata}
		case PartKindData:
			out[i] = &DataPart{Data: w.Data, Metadata: w.Metadata}
		default:
			return Errorf(KindSerialization, "part %d has unknown kind %q", i, w.Kind)
		}
	}
	*ps = out
	return nil
}

// Text concatenates the text of every [*TextPart] in ps, in order.
func (ps Parts) Text() string {
	var sb strings.Builder
	for _, p := range ps {
		if tp, ok := p.(*TextPart); ok {
			sb.WriteString(tp.Text)
		}
	}
	return sb.String()
}

// Validate checks every part.
func (ps Parts) Validate() error {
	for i, p := range ps {
		if p == nil {
			return Errorf(KindInvalidMessage, "part %d is nil", i)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
	}
	return nil
}

func (ps Parts) clone() Parts {
	if ps == nil {
		return nil
	}
	out := make(Parts, len(ps))
	for i, p := range ps {
		switch p := p.(type) {
		case *TextPart:
			c := *p
			c.Metadata = maps.Clone(p.Metadata)
			out[i] = &c
		case *FilePart:
			c := *p
			c.File.Bytes = slices.Clone(p.File.Bytes)
			c.Metadata = maps.Clone(p.Metadata)
			out[i] = &c
		case *DataPart:
			c := *p
			c.Data = maps.Clone(p.Data)
			c.Metadata = maps.Clone(p.Metadata)
			out[i] = &c
		default:
			out[i] = p
		}
	}
	return out
}
