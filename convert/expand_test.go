package convert

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"lastcss/config"
)

func TestDescribe(t *testing.T) {
	cfg := config.EngineConfig{
		Mode:       "global",
		Attribute:  "ui",
		Shortcuts:  []config.ShortcutConfig{{Key: "fs", Expansion: "font-size"}},
		Components: []config.ComponentConfig{{Name: "card", Base: "p.10px", Modifiers: map[string]string{"wide": "w.100%"}}},
	}
	e, err := detachedEngine(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("detachedEngine() error = %v", err)
	}
	defer e.Close()

	tests := []struct {
		name string
		tag  string
		want string
	}{
		{
			name: "shortcuts",
			tag:  "flex fs.12px",
			want: `tag: "flex fs.12px"
  expanded:
    display.flex
    font-size.12px
  declarations:
    display = flex
    font-size = 12px
  canonical: "display.flex font-size.12px"
`,
		},
		{
			name: "component",
			tag:  "m.1px card wide",
			want: `tag: "m.1px card wide"
  component: card
    modifiers:
      wide
  expanded:
    margin.1px
    padding.10px
    width.100%
  declarations:
    margin = 1px
    padding = 10px
    width = 100%
  canonical: "margin.1px padding.10px width.100%"
`,
		},
		{
			name: "degenerate",
			tag:  "hidden",
			want: `tag: "hidden"
  expanded:
    hidden
  declarations:
    hidden = <empty>
  canonical: "hidden"
`,
		},
		{
			name: "two components",
			tag:  "card button",
			want: `tag: "card button"
  error: `,
		},
		{
			name: "empty",
			tag:  "   ",
			want: `tag: "   "
  no declarations
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describe(e, []string{tt.tag})
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("describe() =\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestListing(t *testing.T) {
	cfg := config.EngineConfig{Mode: "global", Attribute: "ui"}
	e, err := detachedEngine(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("detachedEngine() error = %v", err)
	}
	defer e.Close()

	got := listing(e)
	for _, want := range []string{
		"shortcuts:\n",
		"  m = margin\n",
		"  header = font-size.3rem font-weight.800\n",
		"components:\n",
		"  button: \"bg-color.var(--ui-primary-color)",
		"    secondary: \"bg-color.var(--ui-secondary-color)\"\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("listing misses %q:\n%s", want, got)
		}
	}
	// natural order of keys
	if strings.Index(got, "  max-h = ") > strings.Index(got, "  min-h = ") {
		t.Errorf("keys are not sorted:\n%s", got)
	}
}
