// Package component implements named style presets selectable from the
// styling attribute.
package component

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"lastcss/dom"
)

// Preset is a named bundle of declarations. Base and modifier values are raw
// tags in the same grammar as the styling attribute.
type Preset struct {
	Name      string
	Base      string
	Modifiers map[string]string
	// OnInit is called once when preset is applied to a live element.
	OnInit func(doc *dom.Document, n *html.Node)
	// Events are attached to every element preset is applied to.
	Events map[string]dom.Handler
}

// ModifierNames returns modifier names in sorted order.
func (p *Preset) ModifierNames() []string {
	names := make([]string, 0, len(p.Modifiers))
	for name := range p.Modifiers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolution is the result of matching tag tokens against registered presets.
type Resolution struct {
	// Preset is nil when tag does not name any component.
	Preset *Preset
	// Tokens are tag tokens with component and modifier names removed.
	Tokens []string
	// Modifiers are used modifier names in order of appearance in the tag.
	Modifiers []string
	// Index is the position in Tokens where component name was.
	Index int
}

// Tag returns complete tag with component base and modifier declarations
// substituted in place of the component name.
func (r Resolution) Tag() string {
	if r.Preset == nil {
		return strings.Join(r.Tokens, " ")
	}

	parts := make([]string, 0, len(r.Tokens)+len(r.Modifiers)+1)
	idx := min(max(r.Index, 0), len(r.Tokens))
	parts = append(parts, r.Tokens[:idx]...)
	if base := strings.TrimSpace(r.Preset.Base); base != "" {
		parts = append(parts, base)
	}
	for _, m := range r.Modifiers {
		if tag := strings.TrimSpace(r.Preset.Modifiers[m]); tag != "" {
			parts = append(parts, tag)
		}
	}
	parts = append(parts, r.Tokens[idx:]...)
	return strings.Join(parts, " ")
}

// Rest returns tag made of tokens not consumed by component resolution.
func (r Resolution) Rest() string {
	return strings.Join(r.Tokens, " ")
}

// DuplicateComponentError is returned when registering a name twice.
type DuplicateComponentError struct {
	Name string
}

func (e *DuplicateComponentError) Error() string {
	return fmt.Sprintf("component %q already registered", e.Name)
}

// NameCollisionError is returned when component name is a shortcut key.
type NameCollisionError struct {
	Name string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("component name %q collides with shortcut", e.Name)
}

// InvalidNameError is returned for component or modifier names which cannot
// be used in attribute selectors.
type InvalidNameError struct {
	Name     string
	Modifier string
}

func (e *InvalidNameError) Error() string {
	if e.Modifier != "" {
		return fmt.Sprintf("component %q: invalid modifier name %q", e.Name, e.Modifier)
	}
	return fmt.Sprintf("invalid component name %q", e.Name)
}

// MultipleComponentsError is returned when a tag names more than one component.
type MultipleComponentsError struct {
	Names []string
}

func (e *MultipleComponentsError) Error() string {
	return fmt.Sprintf("cannot apply multiple components to one element, choose one from: %s", strings.Join(e.Names, ", "))
}
