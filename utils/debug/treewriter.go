// Package debug formats engine internals as indented text trees.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes label with quoted value.
func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Pair writes declaration-like line, empty parts are shown as "<empty>".
func (tw TreeWriter) Pair(depth int, key, value string) {
	tw.indent(depth)
	tw.w.WriteString(orEmpty(key))
	tw.w.WriteString(" = ")
	tw.w.WriteString(orEmpty(value))
	tw.w.WriteByte('\n')
}

// List writes label followed by items, one per line one level deeper.
// Nothing is written for empty list.
func (tw TreeWriter) List(depth int, label string, items []string) {
	if len(items) == 0 {
		return
	}
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(":\n")
	for _, it := range items {
		tw.indent(depth + 1)
		tw.w.WriteString(it)
		tw.w.WriteByte('\n')
	}
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}

func orEmpty(s string) string {
	if s == "" {
		return "<empty>"
	}
	return s
}
