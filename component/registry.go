package component

import (
	"maps"
	"slices"
	"sync"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"lastcss/shortcut"
)

// Registry holds registered presets by name.
type Registry struct {
	table *shortcut.Table
	log   *zap.Logger

	mu      sync.RWMutex
	presets map[string]*Preset
	order   []string
}

// NewRegistry returns empty registry. Component names are checked against
// table for collisions.
func NewRegistry(table *shortcut.Table, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		table:   table,
		log:     log.Named("components"),
		presets: make(map[string]*Preset),
	}
}

// Register adds preset to the registry. Failed registration leaves registry
// unchanged.
func (r *Registry) Register(p Preset) error {
	if !slug.IsSlug(p.Name) {
		return &InvalidNameError{Name: p.Name}
	}
	for name := range p.Modifiers {
		if !slug.IsSlug(name) {
			return &InvalidNameError{Name: p.Name, Modifier: name}
		}
	}
	if r.table.Has(p.Name) {
		return &NameCollisionError{Name: p.Name}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.presets[p.Name]; exists {
		return &DuplicateComponentError{Name: p.Name}
	}
	p.Modifiers = maps.Clone(p.Modifiers)
	p.Events = maps.Clone(p.Events)
	r.presets[p.Name] = &p
	r.order = append(r.order, p.Name)

	r.log.Debug("Registered component", zap.String("name", p.Name), zap.Strings("modifiers", p.ModifierNames()))
	return nil
}

// Lookup returns preset by name.
func (r *Registry) Lookup(name string) (*Preset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.presets[name]
	return p, ok
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

// Len returns number of registered presets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Resolve finds component named by tokens. Component name and its modifier
// names are removed from returned tokens. Naming two distinct components is
// an error.
func (r *Registry) Resolve(tokens []string) (Resolution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found []string
	for _, tok := range tokens {
		if _, ok := r.presets[tok]; ok && !slices.Contains(found, tok) {
			found = append(found, tok)
		}
	}

	switch len(found) {
	case 0:
		return Resolution{Tokens: slices.Clone(tokens)}, nil
	case 1:
	default:
		return Resolution{}, &MultipleComponentsError{Names: found}
	}

	res := Resolution{
		Preset: r.presets[found[0]],
		Tokens: make([]string, 0, len(tokens)),
		Index:  -1,
	}
	for _, tok := range tokens {
		if tok == res.Preset.Name {
			if res.Index < 0 {
				res.Index = len(res.Tokens)
			}
			continue
		}
		if _, ok := res.Preset.Modifiers[tok]; ok {
			if !slices.Contains(res.Modifiers, tok) {
				res.Modifiers = append(res.Modifiers, tok)
			}
			continue
		}
		res.Tokens = append(res.Tokens, tok)
	}
	return res, nil
}
