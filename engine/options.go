package engine

import (
	"lastcss/component"
	"lastcss/shortcut"
)

type options struct {
	components []component.Preset
	shortcuts  []shortcut.Entry
	noObserver bool
	noBuiltins bool
}

// Option customizes Initialize.
type Option func(*options)

// WithComponents registers presets after built-in and configured ones.
func WithComponents(presets ...component.Preset) Option {
	return func(o *options) {
		o.components = append(o.components, presets...)
	}
}

// WithShortcuts adds substitution table entries.
func WithShortcuts(entries ...shortcut.Entry) Option {
	return func(o *options) {
		o.shortcuts = append(o.shortcuts, entries...)
	}
}

// WithoutReconciler leaves document unobserved after the first pass.
func WithoutReconciler() Option {
	return func(o *options) {
		o.noObserver = true
	}
}

// WithoutBuiltins skips registration of built-in presets.
func WithoutBuiltins() Option {
	return func(o *options) {
		o.noBuiltins = true
	}
}
