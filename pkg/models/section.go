package models

import (
	"fmt"
	"sort"
	"strings"
)

// Section is a named, ordered unit of report content. Sections are produced
// by the external report generator and are read-only inputs to prompt
// substitution.
type Section interface {
	// Key is the stable identifier referenced by prompt placeholders.
	Key() string
	// Title is the human-readable heading; may be empty.
	Title() string
	// RenderAsText returns the body as plain text suitable for an LLM prompt.
	RenderAsText() string
}

// TextSection is a section whose body is plain text.
type TextSection struct {
	SectionKey   string `json:"key"`
	SectionTitle string `json:"title"`
	Body         string `json:"body"`
}

func (s TextSection) Key() string          { return s.SectionKey }
func (s TextSection) Title() string        { return s.SectionTitle }
func (s TextSection) RenderAsText() string { return s.Body }

// StructuredSection is a section whose body is a set of named fields.
// Rendering stringifies values line by line rather than emitting JSON, to
// keep the substituted prompt readable for the model.
type StructuredSection struct {
	SectionKey   string         `json:"key"`
	SectionTitle string         `json:"title"`
	Fields       map[string]any `json:"fields"`
}

func (s StructuredSection) Key() string   { return s.SectionKey }
func (s StructuredSection) Title() string { return s.SectionTitle }

func (s StructuredSection) RenderAsText() string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %v", name, s.Fields[name])
	}
	return b.String()
}

var (
	_ Section = TextSection{}
	_ Section = StructuredSection{}
)
