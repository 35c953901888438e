package tag

import (
	"strings"

	"go.uber.org/zap"

	"lastcss/css"
	"lastcss/shortcut"
)

// Parser expands shortcuts and parses tags. It holds no mutable state and may
// be shared.
type Parser struct {
	table *shortcut.Table
	log   *zap.Logger
}

// NewParser returns parser using table for shortcut expansion.
func NewParser(table *shortcut.Table, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{
		table: table,
		log:   log.Named("tag"),
	}
}

// Table returns shortcut table parser was created with.
func (p *Parser) Table() *shortcut.Table {
	return p.table
}

// Expand returns dot-tokens of raw tag after shortcut expansion. Expansion is
// single level: tokens coming out of an expansion are never looked up again.
func (p *Parser) Expand(raw string) []string {
	var res []string
	for _, tok := range Tokens(raw) {
		res = append(res, p.expandToken(tok)...)
	}
	return res
}

func (p *Parser) expandToken(tok string) []string {
	// whole token is a shortcut, "pos.abs" or "tiny"
	if exp, ok := p.table.Lookup(tok); ok {
		return strings.Fields(exp)
	}
	// shortcut followed by values, "m.10px"
	if key, rest, found := strings.Cut(tok, "."); found {
		if exp, ok := p.table.Lookup(key); ok {
			return strings.Fields(exp + "." + rest)
		}
	}
	return []string{tok}
}

// Parse turns raw tag into resolved declaration set. Later declarations of the
// same property override earlier ones.
func (p *Parser) Parse(raw string) Set {
	tokens := p.Expand(raw)
	pairs := make([]Declaration, 0, len(tokens))
	for _, tok := range tokens {
		d := ParsePair(tok)
		if d.Property == "" {
			p.log.Debug("Degenerate declaration", zap.String("token", tok), zap.String("tag", raw))
		} else if prop := css.LookupProperty(d.Property); prop.Group == css.GroupUnknown {
			p.log.Debug("Unknown property", zap.String("property", d.Property), zap.String("tag", raw))
		}
		pairs = append(pairs, d)
	}
	return dedup(pairs)
}
