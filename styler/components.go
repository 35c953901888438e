package styler

import (
	"fmt"

	"golang.org/x/net/html"

	"lastcss/css"
)

// markComponent sets component marker attributes of the element and queues
// component rules it needs.
func (s *Styler) markComponent(it Item) {
	p := it.Resolution.Preset
	if p == nil {
		s.doc.RemoveAttribute(it.Node, s.ComponentAttribute())
		s.doc.RemoveAttribute(it.Node, s.ModifierAttribute())
		return
	}

	s.queueComponentRule(css.NewSelector(true,
		css.AttributeMatch{Name: s.ComponentAttribute(), Op: css.MatchEquals, Value: p.Name},
	), p.Base)
	for _, m := range it.Resolution.Modifiers {
		s.queueComponentRule(css.NewSelector(true,
			css.AttributeMatch{Name: s.ComponentAttribute(), Op: css.MatchEquals, Value: p.Name},
			css.AttributeMatch{Name: s.ModifierAttribute(), Op: css.MatchIncludes, Value: m},
		), p.Modifiers[m])
	}

	s.setIfChanged(it.Node, s.ComponentAttribute(), p.Name)
	if len(it.Resolution.Modifiers) == 0 {
		s.doc.RemoveAttribute(it.Node, s.ModifierAttribute())
	} else {
		s.setIfChanged(it.Node, s.ModifierAttribute(), joinModifiers(it.Resolution.Modifiers))
	}
}

func (s *Styler) setIfChanged(n *html.Node, name, value string) {
	if cur, ok := s.doc.Attribute(n, name); ok && cur == value {
		return
	}
	s.doc.SetAttribute(n, name, value)
}

// queueComponentRule adds rule to component sheet once per selector.
func (s *Styler) queueComponentRule(sel css.Selector, raw string) {
	if s.compEmitted[sel.Raw] {
		return
	}
	s.compEmitted[sel.Raw] = true

	set := s.parser.Parse(raw)
	if len(set) == 0 {
		return
	}
	if s.compSheet == nil {
		s.compSheet = &css.Stylesheet{}
	}
	s.compSheet.Rules = append(s.compSheet.Rules, css.Rule{Selector: sel, Declarations: declarations(set)})
	s.compDirty = true
}

// flushComponentRules writes component sheet into its style block. The block
// is placed before all other style blocks of the document.
func (s *Styler) flushComponentRules() error {
	if !s.compDirty {
		return nil
	}
	s.compDirty = false

	if s.compBlock != nil && s.compBlock.Parent != nil {
		s.doc.SetStyleText(s.compBlock, s.compSheet.String())
		return nil
	}
	block, err := s.doc.PrependStyle(s.compSheet.String(), html.Attribute{Key: s.MarkerAttribute()})
	if err != nil {
		return fmt.Errorf("unable to add component style block: %w", err)
	}
	s.compBlock = block
	return nil
}

// ComponentRules returns number of emitted component rules.
func (s *Styler) ComponentRules() int {
	if s.compSheet == nil {
		return 0
	}
	return len(s.compSheet.Rules)
}
