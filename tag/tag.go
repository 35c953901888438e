// Package tag parses values of the styling attribute into ordered sets of
// style declarations.
//
// Tag grammar is a whitespace separated list of dot-tokens:
//
//	token := shortcut | shortcut.value(.value)* | property.value(.value)*
//
// Dots separate property from value segments and value segments from each
// other, except inside matched parentheses, so "transform.scale(0.5)" is a
// single value.
package tag

import (
	"strings"
)

// Declaration is a single property/value pair produced from one dot-token.
type Declaration struct {
	Property string
	Value    string
}

// Set is an ordered list of declarations with unique properties.
type Set []Declaration

// Get returns value of property.
func (s Set) Get(property string) (string, bool) {
	for _, d := range s {
		if d.Property == property {
			return d.Value, true
		}
	}
	return "", false
}

// Signature returns "property:value;" concatenation of the set in order. Two
// sets with equal signatures produce identical style rules.
func (s Set) Signature() string {
	var sb strings.Builder
	for _, d := range s {
		sb.WriteString(d.Property)
		sb.WriteByte(':')
		sb.WriteString(d.Value)
		sb.WriteByte(';')
	}
	return sb.String()
}

// Tag serializes set back into dot-notation. Parsing result again yields the
// same set as long as no property name is itself a shortcut key.
func (s Set) Tag() string {
	tokens := make([]string, 0, len(s))
	for _, d := range s {
		if d.Value == "" {
			if d.Property == "" {
				tokens = append(tokens, ".")
			} else {
				tokens = append(tokens, d.Property)
			}
			continue
		}
		tokens = append(tokens, d.Property+"."+strings.ReplaceAll(d.Value, " ", "."))
	}
	return strings.Join(tokens, " ")
}

// Tokens splits raw tag on any run of whitespace.
func Tokens(raw string) []string {
	return strings.Fields(raw)
}

// ParsePair converts dot-token into declaration. Property is everything before
// the first separating dot, value is the rest with separating dots replaced by
// spaces. Dots inside matched (possibly nested) parentheses are kept, unmatched
// parentheses do not protect anything. Malformed tokens are accepted: leading
// dot produces empty property, bare word produces empty value.
func ParsePair(token string) Declaration {
	protected := protectedRanges(token)

	var (
		d     Declaration
		sb    strings.Builder
		first = true
	)
	for i := 0; i < len(token); i++ {
		c := token[i]
		if c == '.' && !protected[i] {
			if first {
				d.Property = sb.String()
				sb.Reset()
				first = false
				continue
			}
			sb.WriteByte(' ')
			continue
		}
		sb.WriteByte(c)
	}
	if first {
		d.Property = sb.String()
	} else {
		d.Value = sb.String()
	}
	return d
}

// protectedRanges marks every byte enclosed by a matched pair of parentheses.
func protectedRanges(token string) []bool {
	if strings.IndexByte(token, '(') < 0 {
		return make([]bool, len(token))
	}

	protected := make([]bool, len(token))
	var open []int
	for i := 0; i < len(token); i++ {
		switch token[i] {
		case '(':
			open = append(open, i)
		case ')':
			if len(open) == 0 {
				continue
			}
			start := open[len(open)-1]
			open = open[:len(open)-1]
			for j := start; j <= i; j++ {
				protected[j] = true
			}
		}
	}
	return protected
}

// dedup keeps the last declaration for every property, result is ordered by
// position of those last occurrences.
func dedup(pairs []Declaration) Set {
	last := make(map[string]int, len(pairs))
	for i, d := range pairs {
		last[d.Property] = i
	}
	res := make(Set, 0, len(last))
	for i, d := range pairs {
		if last[d.Property] == i {
			res = append(res, d)
		}
	}
	return res
}
