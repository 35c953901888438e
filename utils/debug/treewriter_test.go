package debug

import (
	"testing"
)

func TestNewTreeWriter(t *testing.T) {
	tw := NewTreeWriter()
	if tw == nil {
		t.Fatal("NewTreeWriter() returned nil")
	}
	if tw.String() != "" {
		t.Error("Expected empty string from new TreeWriter")
	}
}

func TestTreeWriter_Line(t *testing.T) {
	tests := []struct {
		name   string
		depth  int
		format string
		args   []any
		want   string
	}{
		{"no depth", 0, "test", nil, "test\n"},
		{"depth 1", 1, "indented", nil, "  indented\n"},
		{"depth 2", 2, "double indent", nil, "    double indent\n"},
		{"with formatting", 1, "value: %d", []any{42}, "  value: 42\n"},
		{"multiple args", 0, "%s = %d", []any{"count", 5}, "count = 5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.Line(tt.depth, tt.format, tt.args...)
			if got := tw.String(); got != tt.want {
				t.Errorf("Line() output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_TextBlock(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		label string
		value string
		want  string
	}{
		{"simple", 0, "tag", "m.1px", "tag: \"m.1px\"\n"},
		{"indented", 2, "tag", "a b", "    tag: \"a b\"\n"},
		{"empty value", 1, "tag", "", "  tag: \n"},
		{"quotes escaped", 0, "tag", `content."x"`, "tag: \"content.\\\"x\\\"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.TextBlock(tt.depth, tt.label, tt.value)
			if got := tw.String(); got != tt.want {
				t.Errorf("TextBlock() output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_Pair(t *testing.T) {
	tw := NewTreeWriter()
	tw.Pair(1, "margin", "10px")
	tw.Pair(1, "", "10px")
	tw.Pair(1, "hidden", "")

	want := "  margin = 10px\n  <empty> = 10px\n  hidden = <empty>\n"
	if got := tw.String(); got != want {
		t.Errorf("Pair() output = %q, want %q", got, want)
	}
}

func TestTreeWriter_List(t *testing.T) {
	tw := NewTreeWriter()
	tw.List(0, "tokens", []string{"m.1px", "flex"})
	tw.List(0, "modifiers", nil)

	want := "tokens:\n  m.1px\n  flex\n"
	if got := tw.String(); got != want {
		t.Errorf("List() output = %q, want %q", got, want)
	}
}

func TestTreeWriter_Nested(t *testing.T) {
	tw := NewTreeWriter()
	tw.TextBlock(0, "tag", "card m.1px")
	tw.Line(1, "component: %s", "card")
	tw.List(1, "declarations", []string{"margin = 1px"})

	want := "tag: \"card m.1px\"\n  component: card\n  declarations:\n    margin = 1px\n"
	if got := tw.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
