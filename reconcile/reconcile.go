// Package reconcile keeps generated styles in sync with the document by
// re-running the styling pipeline for elements added to the tree and for
// elements whose styling attribute was changed.
package reconcile

import (
	"slices"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"lastcss/dom"
)

// Pipeline styles given elements. Elements are passed in document order,
// each element at most once per call.
type Pipeline interface {
	Style(nodes []*html.Node) error
	Release(n *html.Node)
}

// Stats counts reconciler decisions.
type Stats struct {
	Batches int // delivered batches with at least one host record
	Runs    int // pipeline invocations
	Styled  int // elements passed to pipeline
	Skipped int // attribute changes ignored
	Ignored int // records produced by the engine itself
}

// Reconciler observes document mutations.
type Reconciler struct {
	doc      *dom.Document
	attr     string
	pipeline Pipeline
	log      *zap.Logger

	cancel func()
	stats  Stats
}

// New returns reconciler for doc watching attribute attr.
func New(doc *dom.Document, attr string, pipeline Pipeline, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		doc:      doc,
		attr:     attr,
		pipeline: pipeline,
		log:      log.Named("reconciler"),
	}
}

// Start subscribes to document mutations. Calling Start on running reconciler
// does nothing.
func (r *Reconciler) Start() {
	if r.cancel != nil {
		return
	}
	r.cancel = r.doc.Observe(r.observe)
	r.log.Debug("Started", zap.String("attribute", r.attr))
}

// Stop ends observation.
func (r *Reconciler) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.cancel = nil
	r.log.Debug("Stopped", zap.Any("stats", r.stats))
}

// Running reports whether reconciler observes document.
func (r *Reconciler) Running() bool {
	return r.cancel != nil
}

// Stats returns counters collected so far.
func (r *Reconciler) Stats() Stats {
	return r.stats
}

func (r *Reconciler) observe(doc *dom.Document, records []dom.MutationRecord) (err error) {
	var (
		host    bool
		changed []*html.Node
	)

	for _, rec := range records {
		if rec.Origin == dom.OriginEngine {
			r.stats.Ignored++
			continue
		}
		host = true

		switch rec.Kind {
		case dom.NodeAdded:
			for _, n := range rec.Added {
				// added subtree is styled as one group
				if nodes := r.styled(n); len(nodes) > 0 {
					err = multierr.Append(err, r.run(nodes))
				}
			}

		case dom.NodeRemoved:
			for _, n := range rec.Removed {
				// node could have been moved within the same batch
				if !doc.Contains(n) {
					r.pipeline.Release(n)
				}
			}

		case dom.AttributeChanged:
			if rec.Name != r.attr {
				continue
			}
			if r.skipChange(doc, rec) {
				r.stats.Skipped++
				continue
			}
			if !slices.Contains(changed, rec.Target) {
				changed = append(changed, rec.Target)
			}
		}
	}

	for _, n := range changed {
		if doc.Contains(n) {
			err = multierr.Append(err, r.run([]*html.Node{n}))
		}
	}
	if host {
		r.stats.Batches++
	}
	return err
}

// skipChange decides whether attribute change requires styling again.
func (r *Reconciler) skipChange(doc *dom.Document, rec dom.MutationRecord) bool {
	if rec.OldValue == nil {
		return true
	}
	cur, ok := doc.Attribute(rec.Target, r.attr)
	if !ok {
		return true
	}
	return strings.TrimSpace(*rec.OldValue) == strings.TrimSpace(cur)
}

// styled returns n and its descendants carrying styling attribute.
func (r *Reconciler) styled(n *html.Node) []*html.Node {
	if n.Type != html.ElementNode || !r.doc.Contains(n) {
		return nil
	}
	var nodes []*html.Node
	if r.doc.HasAttribute(n, r.attr) {
		nodes = append(nodes, n)
	}
	for d := range n.Descendants() {
		if d.Type == html.ElementNode && r.doc.HasAttribute(d, r.attr) {
			nodes = append(nodes, d)
		}
	}
	return nodes
}

func (r *Reconciler) run(nodes []*html.Node) error {
	r.stats.Runs++
	r.stats.Styled += len(nodes)
	r.log.Debug("Styling", zap.Int("elements", len(nodes)))
	return r.pipeline.Style(nodes)
}
