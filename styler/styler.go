// Package styler materializes resolved declarations into the document, either
// as inline styles or as generated attribute selector rules.
package styler

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"lastcss/component"
	"lastcss/css"
	"lastcss/dom"
	"lastcss/tag"
)

// Mode selects materialization strategy.
type Mode string

const (
	Global Mode = "global"
	Inline Mode = "inline"
)

// DefaultAttribute is the styling attribute name.
const DefaultAttribute = "ui"

// Options configure Styler.
type Options struct {
	Mode      Mode
	Attribute string
	// Counter is shared identifier source, styler creates its own when nil.
	Counter *Counter
}

// Item is a single element to style. Raw is the tag element is styled from,
// Resolution is the result of component resolution of Raw.
type Item struct {
	Node       *html.Node
	Raw        string
	Resolution component.Resolution
}

type nodeState struct {
	id     string
	source string
}

type group struct {
	signature string
	// rest is the tag the group rule was parsed from
	rest  string
	refs  int
	block *html.Node
}

// Styler writes styles for items into the document. It keeps track of
// generated rules so that re-applied and removed elements do not leave stale
// rules behind.
type Styler struct {
	doc    *dom.Document
	parser *tag.Parser
	css    *css.Parser
	opts   Options
	log    *zap.Logger

	nodes       map[*html.Node]*nodeState
	groups      map[string]*group // by identifier
	signatures  map[string]string // signature to identifier of live group
	blocks      map[*html.Node]*css.Stylesheet
	compBlock   *html.Node
	compSheet   *css.Stylesheet
	compDirty   bool
	compEmitted map[string]bool // selector of emitted component rule
}

// New creates Styler for doc. Style blocks left in doc by a previous run are
// adopted: identifier counter is moved past their identifiers and elements
// referring to them are tracked as if styled by this instance.
func New(doc *dom.Document, parser *tag.Parser, log *zap.Logger, opts Options) *Styler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Mode == "" {
		opts.Mode = Global
	}
	if opts.Attribute == "" {
		opts.Attribute = DefaultAttribute
	}
	if opts.Counter == nil {
		opts.Counter = &Counter{}
	}

	s := &Styler{
		doc:         doc,
		parser:      parser,
		css:         css.NewParser(log),
		opts:        opts,
		log:         log.Named("styler"),
		nodes:       make(map[*html.Node]*nodeState),
		groups:      make(map[string]*group),
		signatures:  make(map[string]string),
		blocks:      make(map[*html.Node]*css.Stylesheet),
		compEmitted: make(map[string]bool),
	}
	s.adopt()
	return s
}

// Mode returns materialization mode.
func (s *Styler) Mode() Mode {
	return s.opts.Mode
}

// Attribute returns styling attribute name.
func (s *Styler) Attribute() string {
	return s.opts.Attribute
}

// Counter returns identifier source.
func (s *Styler) Counter() *Counter {
	return s.opts.Counter
}

// MarkerAttribute is set on style blocks owned by styler.
func (s *Styler) MarkerAttribute() string {
	return "data-" + s.opts.Attribute
}

// ComponentAttribute carries component name on styled elements.
func (s *Styler) ComponentAttribute() string {
	return s.opts.Attribute + "-component"
}

// ModifierAttribute carries used modifier names on styled elements.
func (s *Styler) ModifierAttribute() string {
	return s.opts.Attribute + "-modifier"
}

// Source returns tag element should be styled from. For elements already
// materialized in global mode this is the tag they were styled from unless
// attribute was changed since. Copies of materialized elements (instantiated
// template content for example) carry generated identifier of a live group,
// their tag is restored from the group.
func (s *Styler) Source(n *html.Node) (string, bool) {
	val, ok := s.doc.Attribute(n, s.opts.Attribute)
	if !ok {
		return "", false
	}
	if st, tracked := s.nodes[n]; tracked && st.id == val {
		return st.source, true
	}
	if g, live := s.groups[val]; live {
		return s.sourceOf(n, g), true
	}
	return val, true
}

// sourceOf rebuilds tag of element n referring to group g from its component
// marker attributes and the group rule.
func (s *Styler) sourceOf(n *html.Node, g *group) string {
	var parts []string
	if name, ok := s.doc.Attribute(n, s.ComponentAttribute()); ok && name != "" {
		parts = append(parts, name)
		if mods, ok := s.doc.Attribute(n, s.ModifierAttribute()); ok {
			parts = append(parts, strings.Fields(mods)...)
		}
	}
	if g.rest != "" {
		parts = append(parts, g.rest)
	}
	return strings.Join(parts, " ")
}

// Identifier returns generated identifier assigned to n.
func (s *Styler) Identifier(n *html.Node) (string, bool) {
	st, ok := s.nodes[n]
	if !ok {
		return "", false
	}
	return st.id, true
}

// Rules returns number of live per-instance rules.
func (s *Styler) Rules() int {
	var count int
	for _, sheet := range s.blocks {
		count += len(sheet.Rules)
	}
	return count
}

// Apply materializes items. In global mode all rules of one call go into one
// new style block.
func (s *Styler) Apply(items []Item) error {
	if len(items) == 0 {
		return nil
	}
	return s.doc.As(dom.OriginEngine, func() error {
		if s.opts.Mode == Inline {
			s.applyInline(items)
			return nil
		}
		return s.applyGlobal(items)
	})
}

// Release drops bookkeeping of n and its descendants. Elements styled in
// global mode get their source tag back, so they are styled anew when
// inserted again.
func (s *Styler) Release(n *html.Node) {
	_ = s.doc.As(dom.OriginEngine, func() error {
		s.release(n)
		for d := range n.Descendants() {
			s.release(d)
		}
		return nil
	})
}

func (s *Styler) release(n *html.Node) {
	st, ok := s.nodes[n]
	if !ok {
		return
	}
	if val, _ := s.doc.Attribute(n, s.opts.Attribute); val == st.id {
		s.doc.SetAttribute(n, s.opts.Attribute, st.source)
	}
	delete(s.nodes, n)
	s.unref(st.id)
}

func (s *Styler) applyInline(items []Item) {
	for _, it := range items {
		for _, d := range s.parser.Parse(it.Resolution.Tag()) {
			if d.Property == "" {
				s.log.Debug("Skipping declaration without property", zap.String("value", d.Value))
				continue
			}
			s.doc.SetStyleProperty(it.Node, d.Property, d.Value)
		}
		s.doc.RemoveAttribute(it.Node, s.opts.Attribute)
		if st, ok := s.nodes[it.Node]; ok {
			delete(s.nodes, it.Node)
			s.unref(st.id)
		}
	}
}

type pending struct {
	signature string
	rest      string
	set       tag.Set
	members   []Item
}

func (s *Styler) applyGlobal(items []Item) error {
	var (
		order  []*pending
		bySig  = make(map[string]*pending)
		sheet  = &css.Stylesheet{}
		ruled  []string
		pruned []string
	)

	for _, it := range items {
		s.markComponent(it)

		rest := it.Resolution.Rest()
		set := s.parser.Parse(rest)
		sig := set.Signature()
		p, ok := bySig[sig]
		if !ok {
			p = &pending{signature: sig, rest: rest, set: set}
			bySig[sig] = p
			order = append(order, p)
		}
		p.members = append(p.members, it)
	}

	if err := s.flushComponentRules(); err != nil {
		return err
	}

	for _, p := range order {
		id, live := s.signatures[p.signature]
		if !live {
			id = s.opts.Counter.Next()
			s.groups[id] = &group{signature: p.signature, rest: p.rest}
			s.signatures[p.signature] = id
			sheet.Rules = append(sheet.Rules, Rule(s.opts.Attribute, id, p.set))
			ruled = append(ruled, id)
		}
		g := s.groups[id]

		for _, it := range p.members {
			if st, ok := s.nodes[it.Node]; ok {
				if st.id == id {
					st.source = it.Raw
					if val, _ := s.doc.Attribute(it.Node, s.opts.Attribute); val != id {
						s.doc.SetAttribute(it.Node, s.opts.Attribute, id)
					}
					continue
				}
				if s.unref(st.id) {
					pruned = append(pruned, st.id)
				}
			}
			g.refs++
			s.nodes[it.Node] = &nodeState{id: id, source: it.Raw}
			s.doc.SetAttribute(it.Node, s.opts.Attribute, id)
		}
	}

	if len(sheet.Rules) > 0 {
		block, err := s.doc.AppendStyle(sheet.String(), html.Attribute{Key: s.MarkerAttribute()})
		if err != nil {
			return fmt.Errorf("unable to add style block: %w", err)
		}
		s.blocks[block] = sheet
		for _, id := range ruled {
			if g := s.groups[id]; g != nil {
				g.block = block
			}
		}
	}

	s.log.Debug("Applied global styles",
		zap.Int("elements", len(items)),
		zap.Int("groups", len(order)),
		zap.Int("rules", len(sheet.Rules)),
		zap.Strings("pruned", pruned))
	return nil
}

// unref drops one reference to group id and prunes its rule when no element
// refers to it anymore. Returns true if group was pruned.
func (s *Styler) unref(id string) bool {
	g, ok := s.groups[id]
	if !ok {
		return false
	}
	g.refs--
	if g.refs > 0 {
		return false
	}

	delete(s.groups, id)
	if s.signatures[g.signature] == id {
		delete(s.signatures, g.signature)
	}
	if g.block == nil {
		return true
	}

	sheet := s.blocks[g.block]
	if sheet == nil {
		return true
	}
	sel := selectorFor(s.opts.Attribute, id)
	kept := sheet.Rules[:0]
	for _, r := range sheet.Rules {
		if r.Selector.Raw != sel {
			kept = append(kept, r)
		}
	}
	sheet.Rules = kept

	if len(sheet.Rules) == 0 {
		delete(s.blocks, g.block)
		if g.block.Parent != nil {
			s.doc.RemoveChild(g.block.Parent, g.block)
		}
		return true
	}
	s.doc.SetStyleText(g.block, sheet.String())
	return true
}

// Rule builds per-instance rule for identifier id.
func Rule(attr, id string, set tag.Set) css.Rule {
	return css.Rule{
		Selector:     css.NewSelector(false, css.AttributeMatch{Name: attr, Op: css.MatchEquals, Value: id}),
		Declarations: declarations(set),
	}
}

func selectorFor(attr, id string) string {
	return css.AttributeMatch{Name: attr, Op: css.MatchEquals, Value: id}.String()
}

func declarations(set tag.Set) []css.Declaration {
	decls := make([]css.Declaration, 0, len(set))
	for _, d := range set {
		decls = append(decls, css.Declaration{Property: d.Property, Value: d.Value})
	}
	return decls
}

func joinModifiers(mods []string) string {
	return strings.Join(mods, " ")
}
