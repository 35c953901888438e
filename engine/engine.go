// Package engine wires shortcut table, components, styler and reconciler
// together and exposes the styling entry points.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"lastcss/component"
	"lastcss/config"
	"lastcss/dom"
	"lastcss/reconcile"
	"lastcss/shortcut"
	"lastcss/styler"
	"lastcss/tag"
)

// Lifecycle events dispatched on the document node.
const (
	EventInit        = "last:init"
	EventInitialized = "last:initialized"
	EventApplied     = "last:applied"
)

// ErrUninitializedHost is returned when document has no body to style.
var ErrUninitializedHost = errors.New("host document has no body")

// ElementError reports element which could not be styled. Other elements of
// the same pass are not affected.
type ElementError struct {
	Node *html.Node
	Tag  string
	Err  error
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("unable to style <%s> with %q: %v", e.Node.Data, e.Tag, e.Err)
}

func (e *ElementError) Unwrap() error {
	return e.Err
}

// Engine styles document elements from their styling attribute.
type Engine struct {
	doc *dom.Document
	cfg config.EngineConfig
	log *zap.Logger

	table      *shortcut.Table
	parser     *tag.Parser
	registry   *component.Registry
	binder     *component.Binder
	styler     *styler.Styler
	reconciler *reconcile.Reconciler
}

// Initialize prepares engine for doc and styles it. Configuration and
// registration problems are fatal. Errors of individual elements are
// returned together with usable engine.
func Initialize(doc *dom.Document, cfg config.EngineConfig, log *zap.Logger, opts ...Option) (*Engine, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if doc == nil || doc.Body() == nil {
		return nil, ErrUninitializedHost
	}
	if log == nil || !cfg.Log {
		log = zap.NewNop()
	}
	log = log.Named("engine")

	if len(cfg.Mode) == 0 {
		cfg.Mode = string(styler.Global)
	}
	mode := styler.Mode(cfg.Mode)
	if mode != styler.Global && mode != styler.Inline {
		return nil, fmt.Errorf("unsupported styling mode %q", cfg.Mode)
	}
	if len(cfg.Attribute) == 0 {
		cfg.Attribute = styler.DefaultAttribute
	}
	if !slug.IsSlug(cfg.Attribute) {
		return nil, fmt.Errorf("invalid styling attribute name %q", cfg.Attribute)
	}

	entries := make([]shortcut.Entry, 0, len(cfg.Shortcuts)+len(o.shortcuts))
	for _, s := range cfg.Shortcuts {
		entries = append(entries, shortcut.Entry{Key: s.Key, Expansion: s.Expansion})
	}
	entries = append(entries, o.shortcuts...)
	table, err := shortcut.Defaults().Extend(entries)
	if err != nil {
		return nil, fmt.Errorf("unable to build shortcut table: %w", err)
	}

	e := &Engine{
		doc:      doc,
		cfg:      cfg,
		log:      log,
		table:    table,
		parser:   tag.NewParser(table, log),
		registry: component.NewRegistry(table, log),
		binder:   component.NewBinder(doc, log),
	}

	var presets []component.Preset
	if !o.noBuiltins {
		presets = append(presets, component.Builtins(log)...)
	}
	for _, c := range cfg.Components {
		presets = append(presets, component.Preset{Name: c.Name, Base: c.Base, Modifiers: c.Modifiers})
	}
	presets = append(presets, o.components...)
	for _, p := range presets {
		if err := e.registry.Register(p); err != nil {
			return nil, fmt.Errorf("unable to register component: %w", err)
		}
	}

	e.styler = styler.New(doc, e.parser, log, styler.Options{Mode: mode, Attribute: cfg.Attribute})

	log.Debug("Initializing",
		zap.String("mode", cfg.Mode),
		zap.String("attribute", cfg.Attribute),
		zap.Int("shortcuts", table.Len()),
		zap.Strings("components", e.registry.Names()))

	doc.Dispatch(doc.Root(), &dom.Event{Type: EventInit, Bubbles: true, Composed: true})

	err = e.ApplyAll()

	if !o.noObserver {
		e.reconciler = reconcile.New(doc, cfg.Attribute, e, log)
		e.reconciler.Start()
	}

	doc.Dispatch(doc.Root(), &dom.Event{Type: EventInitialized, Bubbles: true, Composed: true})
	return e, err
}

// ApplyAll styles every element carrying styling attribute, including content
// of templates.
func (e *Engine) ApplyAll() error {
	if e.doc.Body() == nil {
		return ErrUninitializedHost
	}
	start := time.Now()

	nodes, err := e.doc.QueryAll("[" + e.cfg.Attribute + "]")
	if err != nil {
		return fmt.Errorf("unable to select styled elements: %w", err)
	}
	err = e.Style(nodes)

	e.log.Debug("Full pass", zap.Int("elements", len(nodes)), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
	e.doc.Dispatch(e.doc.Root(), &dom.Event{Type: EventApplied, Detail: len(nodes)})
	return err
}

// Refresh is ApplyAll.
func (e *Engine) Refresh() error {
	return e.ApplyAll()
}

// Style resolves and materializes nodes as one group. Elements which fail
// resolution are reported and left untouched.
func (e *Engine) Style(nodes []*html.Node) error {
	var (
		err   error
		items = make([]styler.Item, 0, len(nodes))
	)
	for _, n := range nodes {
		raw, ok := e.styler.Source(n)
		if !ok {
			continue
		}
		res, rerr := e.registry.Resolve(tag.Tokens(raw))
		if rerr != nil {
			err = multierr.Append(err, &ElementError{Node: n, Tag: raw, Err: rerr})
			continue
		}
		items = append(items, styler.Item{Node: n, Raw: raw, Resolution: res})
	}

	if aerr := e.styler.Apply(items); aerr != nil {
		return multierr.Append(err, aerr)
	}
	for _, it := range items {
		e.binder.Bind(it.Node, it.Resolution.Preset)
	}
	return err
}

// Release forgets n and its descendants.
func (e *Engine) Release(n *html.Node) {
	e.styler.Release(n)
	e.binder.Unbind(n)
	for d := range n.Descendants() {
		e.binder.Unbind(d)
	}
}

// RegisterComponent adds preset. Elements already naming it are styled with
// it on the next pass.
func (e *Engine) RegisterComponent(p component.Preset) error {
	return e.registry.Register(p)
}

// Close stops observing document.
func (e *Engine) Close() {
	if e.reconciler != nil {
		e.reconciler.Stop()
	}
}

func (e *Engine) Document() *dom.Document {
	return e.doc
}

func (e *Engine) Table() *shortcut.Table {
	return e.table
}

func (e *Engine) Parser() *tag.Parser {
	return e.parser
}

func (e *Engine) Registry() *component.Registry {
	return e.registry
}

func (e *Engine) Styler() *styler.Styler {
	return e.styler
}

// Reconciler returns nil when engine was initialized without one.
func (e *Engine) Reconciler() *reconcile.Reconciler {
	return e.reconciler
}
