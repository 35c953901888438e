package component

import (
	"slices"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"lastcss/dom"
)

type binding struct {
	name   string
	remove []func()
}

// Binder runs preset hooks on live elements. Every element is initialized once
// per preset, applying another preset detaches listeners of the previous one.
type Binder struct {
	doc   *dom.Document
	log   *zap.Logger
	bound map[*html.Node]*binding
}

// NewBinder returns binder for doc.
func NewBinder(doc *dom.Document, log *zap.Logger) *Binder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Binder{
		doc:   doc,
		log:   log.Named("binder"),
		bound: make(map[*html.Node]*binding),
	}
}

// Bind applies preset p to n. Nil p releases whatever was bound before.
func (b *Binder) Bind(n *html.Node, p *Preset) {
	cur, ok := b.bound[n]
	if ok && p != nil && cur.name == p.Name {
		return
	}
	if ok {
		b.Unbind(n)
	}
	if p == nil {
		return
	}

	bnd := &binding{name: p.Name}
	if p.OnInit != nil {
		p.OnInit(b.doc, n)
	}
	events := make([]string, 0, len(p.Events))
	for typ := range p.Events {
		events = append(events, typ)
	}
	slices.Sort(events)
	for _, typ := range events {
		bnd.remove = append(bnd.remove, b.doc.AddEventListener(n, typ, p.Events[typ]))
	}
	b.bound[n] = bnd

	b.log.Debug("Bound component", zap.String("name", p.Name), zap.Strings("events", events))
}

// Unbind detaches listeners attached to n by Bind.
func (b *Binder) Unbind(n *html.Node) {
	cur, ok := b.bound[n]
	if !ok {
		return
	}
	for _, remove := range cur.remove {
		remove()
	}
	delete(b.bound, n)
}

// Bound returns name of the preset bound to n.
func (b *Binder) Bound(n *html.Node) (string, bool) {
	cur, ok := b.bound[n]
	if !ok {
		return "", false
	}
	return cur.name, true
}
