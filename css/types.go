package css

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// cssEscapeDoubleQuoted escapes a string for use inside CSS double quotes.
// Backslashes and double quotes are escaped per CSS syntax: \" and \\.
func cssEscapeDoubleQuoted(s string) string {
	// Fast path: nothing to escape.
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Declaration is a single property/value pair.
type Declaration struct {
	Property string
	Value    string
}

func (d Declaration) String() string {
	return d.Property + ":" + d.Value + ";"
}

// MatchOp is the operator of an attribute selector.
type MatchOp string

const (
	MatchPresent  MatchOp = ""   // [attr]
	MatchEquals   MatchOp = "="  // [attr="v"]
	MatchIncludes MatchOp = "~=" // [attr~="v"]
)

// AttributeMatch is one attribute selector, e.g. [ui="3"].
type AttributeMatch struct {
	Name  string
	Op    MatchOp
	Value string
}

func (m AttributeMatch) String() string {
	if m.Op == MatchPresent {
		return "[" + m.Name + "]"
	}
	return fmt.Sprintf(`[%s%s"%s"]`, m.Name, m.Op, cssEscapeDoubleQuoted(m.Value))
}

// Selector represents a compound attribute selector, optionally wrapped into
// :where() to drop its specificity to zero.
type Selector struct {
	Raw        string           // Original selector string
	Where      bool             // wrapped in :where(...)
	Attributes []AttributeMatch // compound attribute selectors, in source order
}

// NewSelector builds selector from attribute matches and fills Raw.
func NewSelector(where bool, matches ...AttributeMatch) Selector {
	var sb strings.Builder
	for _, m := range matches {
		sb.WriteString(m.String())
	}
	raw := sb.String()
	if where {
		raw = ":where(" + raw + ")"
	}
	return Selector{Raw: raw, Where: where, Attributes: matches}
}

// IsAttributeOnly returns true if selector consists of attribute matches only.
func (s Selector) IsAttributeOnly() bool {
	return len(s.Attributes) > 0
}

// Equals returns value of the [name="value"] part of the selector if present.
func (s Selector) Equals(name string) (string, bool) {
	for _, m := range s.Attributes {
		if m.Name == name && m.Op == MatchEquals {
			return m.Value, true
		}
	}
	return "", false
}

// Rule represents a single CSS rule (selector + declarations in order).
type Rule struct {
	Selector     Selector
	Declarations []Declaration
}

// GetProperty returns the value for a property, or empty string if not found.
// The last declaration wins.
func (r Rule) GetProperty(name string) (string, bool) {
	var (
		val   string
		found bool
	)
	for _, d := range r.Declarations {
		if d.Property == name {
			val, found = d.Value, true
		}
	}
	return val, found
}

// Body returns declarations in compact form: "property:value;..." .
func (r Rule) Body() string {
	var sb strings.Builder
	for _, d := range r.Declarations {
		sb.WriteString(d.String())
	}
	return sb.String()
}

// String returns the compact CSS text of the rule.
func (r Rule) String() string {
	return r.Selector.Raw + "{" + r.Body() + "}"
}

// Stylesheet represents a list of rules.
type Stylesheet struct {
	Rules    []Rule   // All rules in source order
	Warnings []string // Warnings for unsupported features
}

// RulesBySelector returns all rules matching the given selector string.
func (s *Stylesheet) RulesBySelector(selector string) []Rule {
	var matches []Rule
	for _, r := range s.Rules {
		if r.Selector.Raw == selector {
			matches = append(matches, r)
		}
	}
	return matches
}

// Identifiers returns values of all [attr="value"] selectors in source order.
func (s *Stylesheet) Identifiers(attr string) []string {
	var ids []string
	for _, r := range s.Rules {
		if v, ok := r.Selector.Equals(attr); ok {
			ids = append(ids, v)
		}
	}
	return ids
}

// WriteTo writes the stylesheet to w in source order, one rule per line,
// implementing io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, r := range s.Rules {
		if i > 0 {
			n, err := io.WriteString(w, "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
		n, err := io.WriteString(w, r.String())
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// attributeMatchPattern matches a single attribute selector:
// [name], [name="value"], [name~="value"], [name=value].
var attributeMatchPattern = regexp.MustCompile(`\[\s*([A-Za-z_][-A-Za-z0-9_:]*)\s*(?:(~?=)\s*(?:"((?:[^"\\]|\\.)*)"|'([^']*)'|([^\]\s]+))\s*)?\]`)

func unescapeDoubleQuoted(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}
