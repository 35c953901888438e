// Package shortcut holds the table of shorthand tokens recognized in styling
// attributes.
package shortcut

import (
	"fmt"
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// Entry is a single shortcut: Key is the token as written in a tag, Expansion
// is one or more whitespace separated dot-tokens it stands for.
type Entry struct {
	Key       string
	Expansion string
}

// DuplicateKeyError is returned by Build when some keys are present more than
// once. No table is produced in this case.
type DuplicateKeyError struct {
	Keys []string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate shortcut keys: %s", strings.Join(e.Keys, ", "))
}

// InvalidEntryError is returned by Build for entries which could never match
// or expand to nothing.
type InvalidEntryError struct {
	Index int
	Entry Entry
}

func (e *InvalidEntryError) Error() string {
	return fmt.Sprintf("invalid shortcut entry #%d (key %q, expansion %q)", e.Index, e.Entry.Key, e.Entry.Expansion)
}

// Table maps shortcut keys to their expansions. Expansions are kept verbatim,
// nested shortcuts are not resolved. Table is read-only after Build.
type Table struct {
	entries map[string]string
	order   []string
}

// Build validates entries and returns a table.
func Build(entries []Entry) (*Table, error) {
	t := &Table{
		entries: make(map[string]string, len(entries)),
		order:   make([]string, 0, len(entries)),
	}

	var dups []string
	for i, e := range entries {
		if len(e.Key) == 0 || strings.ContainsAny(e.Key, " \t\r\n") || len(strings.Fields(e.Expansion)) == 0 {
			return nil, &InvalidEntryError{Index: i, Entry: e}
		}
		if _, exists := t.entries[e.Key]; exists {
			if !slices.Contains(dups, e.Key) {
				dups = append(dups, e.Key)
			}
			continue
		}
		t.entries[e.Key] = e.Expansion
		t.order = append(t.order, e.Key)
	}
	if len(dups) > 0 {
		return nil, &DuplicateKeyError{Keys: dups}
	}
	return t, nil
}

// Extend returns a new table with additional entries appended. Keys already
// present in the table are reported as duplicates.
func (t *Table) Extend(entries []Entry) (*Table, error) {
	all := t.Entries()
	all = append(all, entries...)
	return Build(all)
}

// Lookup returns the expansion for key.
func (t *Table) Lookup(key string) (string, bool) {
	if t == nil {
		return "", false
	}
	exp, ok := t.entries[key]
	return exp, ok
}

// Has reports whether key is a shortcut.
func (t *Table) Has(key string) bool {
	_, ok := t.Lookup(key)
	return ok
}

// Len returns number of shortcuts in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Entries returns a copy of the table entries in definition order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	res := make([]Entry, 0, len(t.order))
	for _, k := range t.order {
		res = append(res, Entry{Key: k, Expansion: t.entries[k]})
	}
	return res
}

// Keys returns all keys in natural sort order.
func (t *Table) Keys() []string {
	if t == nil {
		return nil
	}
	keys := slices.Clone(t.order)
	slices.SortFunc(keys, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		}
		return 0
	})
	return keys
}
