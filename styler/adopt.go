package styler

import (
	"go.uber.org/zap"

	"lastcss/css"
	"lastcss/dom"
	"lastcss/tag"
)

// adopt takes over style blocks written into the document by a previous run.
// Per-instance rules are turned back into groups, their declarations give the
// source tag of elements referring to them.
func (s *Styler) adopt() {
	blocks := s.doc.StyleBlocks(s.MarkerAttribute())
	if len(blocks) == 0 {
		return
	}

	for _, block := range blocks {
		sheet := s.css.Parse([]byte(dom.StyleText(block)), "adopted style block")

		var inst, comp []css.Rule
		for _, r := range sheet.Rules {
			if r.Selector.Where {
				comp = append(comp, r)
				continue
			}
			id, ok := r.Selector.Equals(s.opts.Attribute)
			if !ok || len(r.Selector.Attributes) != 1 {
				continue
			}
			s.opts.Counter.Observe(id)
			inst = append(inst, r)
		}

		if len(comp) > 0 && s.compBlock == nil {
			s.compBlock = block
			s.compSheet = &css.Stylesheet{Rules: comp}
			for _, r := range comp {
				s.compEmitted[r.Selector.Raw] = true
			}
		}
		if len(inst) == 0 {
			continue
		}
		s.blocks[block] = &css.Stylesheet{Rules: inst}
		for _, r := range inst {
			id, _ := r.Selector.Equals(s.opts.Attribute)
			set := make(tag.Set, 0, len(r.Declarations))
			for _, d := range r.Declarations {
				set = append(set, tag.Declaration{Property: d.Property, Value: d.Value})
			}
			g := &group{signature: set.Signature(), rest: set.Tag(), block: block}
			s.groups[id] = g
			if _, exists := s.signatures[g.signature]; !exists {
				s.signatures[g.signature] = id
			}
		}
	}

	nodes, err := s.doc.QueryAll("[" + s.opts.Attribute + "]")
	if err != nil {
		s.log.Warn("Unable to adopt styled elements", zap.Error(err))
		return
	}
	for _, n := range nodes {
		id, _ := s.doc.Attribute(n, s.opts.Attribute)
		g, ok := s.groups[id]
		if !ok {
			continue
		}
		g.refs++
		s.nodes[n] = &nodeState{id: id, source: s.sourceOf(n, g)}
	}

	// rules nobody refers to anymore
	_ = s.doc.As(dom.OriginEngine, func() error {
		for id, g := range s.groups {
			if g.refs == 0 {
				g.refs = 1
				s.unref(id)
			}
		}
		return nil
	})

	s.log.Debug("Adopted generated styles",
		zap.Int("blocks", len(blocks)),
		zap.Int("elements", len(s.nodes)),
		zap.Int("groups", len(s.groups)),
		zap.Uint64("next", s.opts.Counter.Peek()))
}
