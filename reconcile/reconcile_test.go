package reconcile_test

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"lastcss/dom"
	"lastcss/reconcile"
)

type recorder struct {
	doc      *dom.Document
	runs     [][]string
	released []*html.Node
	err      error
}

func (p *recorder) Style(nodes []*html.Node) error {
	var vals []string
	for _, n := range nodes {
		v, _ := p.doc.Attribute(n, "ui")
		vals = append(vals, v)
		// engine rewrites attribute, this must not trigger another run
		_ = p.doc.As(dom.OriginEngine, func() error {
			p.doc.SetAttribute(n, "ui", "generated")
			return nil
		})
	}
	p.runs = append(p.runs, vals)
	return p.err
}

func (p *recorder) Release(n *html.Node) {
	p.released = append(p.released, n)
}

func setup(t *testing.T) (*dom.Document, *recorder, *reconcile.Reconciler) {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(`<html><body><div id="a" ui="m.1px"></div><div id="b"></div></body></html>`), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	p := &recorder{doc: doc}
	r := reconcile.New(doc, "ui", p, zap.NewNop())
	r.Start()
	t.Cleanup(r.Stop)
	return doc, p, r
}

func byID(t *testing.T, doc *dom.Document, id string) *html.Node {
	t.Helper()
	nodes, err := doc.QueryAll("#" + id)
	if err != nil || len(nodes) == 0 {
		t.Fatalf("#%s not found", id)
	}
	return nodes[0]
}

func TestAttributeChange(t *testing.T) {
	tests := []struct {
		name   string
		change func(doc *dom.Document, a, b *html.Node)
		runs   int
	}{
		{"changed value", func(doc *dom.Document, a, _ *html.Node) { doc.SetAttribute(a, "ui", "m.2px") }, 1},
		{"same trimmed value", func(doc *dom.Document, a, _ *html.Node) { doc.SetAttribute(a, "ui", "  m.1px ") }, 0},
		{"attribute added", func(doc *dom.Document, _, b *html.Node) { doc.SetAttribute(b, "ui", "m.2px") }, 0},
		{"attribute removed", func(doc *dom.Document, a, _ *html.Node) { doc.RemoveAttribute(a, "ui") }, 0},
		{"other attribute", func(doc *dom.Document, a, _ *html.Node) { doc.SetAttribute(a, "class", "x") }, 0},
		{"changed twice", func(doc *dom.Document, a, _ *html.Node) {
			doc.SetAttribute(a, "ui", "m.2px")
			doc.SetAttribute(a, "ui", "m.3px")
		}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, p, _ := setup(t)
			tt.change(doc, byID(t, doc, "a"), byID(t, doc, "b"))
			if err := doc.Flush(); err != nil {
				t.Fatalf("Flush() error = %v", err)
			}
			if len(p.runs) != tt.runs {
				t.Errorf("pipeline runs = %d, want %d", len(p.runs), tt.runs)
			}
		})
	}
}

func TestAttributeChange_SeesNewValue(t *testing.T) {
	doc, p, r := setup(t)
	doc.SetAttribute(byID(t, doc, "a"), "ui", "p.5px")
	if err := doc.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(p.runs) != 1 || p.runs[0][0] != "p.5px" {
		t.Fatalf("runs = %v", p.runs)
	}
	st := r.Stats()
	if st.Runs != 1 || st.Ignored != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestNodeAdded(t *testing.T) {
	doc, p, _ := setup(t)

	wrap := dom.CreateElement("section")
	wrap.Attr = []html.Attribute{{Key: "ui", Val: "flex"}}
	child := dom.CreateElement("p")
	child.Attr = []html.Attribute{{Key: "ui", Val: "m.0"}}
	plain := dom.CreateElement("span")
	wrap.AppendChild(child)
	wrap.AppendChild(plain)

	doc.AppendChild(doc.Body(), wrap)
	doc.AppendChild(doc.Body(), dom.CreateElement("i"))
	if err := doc.Flush(); err != nil {
		t.Fatal(err)
	}

	if len(p.runs) != 1 {
		t.Fatalf("runs = %v, want single grouped run", p.runs)
	}
	if strings.Join(p.runs[0], ",") != "flex,m.0" {
		t.Errorf("styled %v", p.runs[0])
	}
}

func TestNodeRemoved(t *testing.T) {
	doc, p, _ := setup(t)
	a := byID(t, doc, "a")
	b := byID(t, doc, "b")

	// moved node is not released
	doc.AppendChild(b, a)
	if err := doc.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(p.released) != 0 {
		t.Errorf("moved node released: %v", p.released)
	}

	doc.RemoveChild(b, a)
	if err := doc.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(p.released) != 1 || p.released[0] != a {
		t.Errorf("released = %v", p.released)
	}
}

func TestPipelineErrorsSurface(t *testing.T) {
	doc, p, _ := setup(t)
	p.err = errors.New("boom")

	doc.SetAttribute(byID(t, doc, "a"), "ui", "m.9px")
	if err := doc.Flush(); !errors.Is(err, p.err) {
		t.Errorf("Flush() error = %v", err)
	}
}

func TestStop(t *testing.T) {
	doc, p, r := setup(t)
	r.Stop()
	if r.Running() {
		t.Error("reconciler should be stopped")
	}

	doc.SetAttribute(byID(t, doc, "a"), "ui", "m.2px")
	if err := doc.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(p.runs) != 0 {
		t.Error("stopped reconciler should not run pipeline")
	}
}
