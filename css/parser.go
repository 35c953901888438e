package css

import (
	"bytes"
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// maxParseErrors stops parsing of hopelessly broken input.
const maxParseErrors = 100

// Parser reads back style sheets produced by the styler and inline style
// attributes of elements.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. Only rules with attribute selectors
// (optionally wrapped into :where()) are kept, everything else produces a
// warning. The optional source parameter identifies what's being parsed (for
// debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{
		Rules:    make([]Rule, 0),
		Warnings: make([]string, 0),
	}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	var errorCount int
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			// End of input or error
			err := parser.Err()
			if err == nil || errors.Is(err, io.EOF) {
				return sheet
			}
			p.log.Debug("CSS parse error", zap.Error(err))
			if errorCount++; errorCount > maxParseErrors {
				sheet.Warnings = append(sheet.Warnings, "too many parse errors")
				return sheet
			}

		case css.BeginAtRuleGrammar:
			p.skipAtRuleBlock(parser)
			p.log.Debug("Skipping @-rule", zap.String("rule", string(data)))

		case css.AtRuleGrammar:
			p.log.Debug("Skipping @-rule", zap.String("rule", string(data)))

		case css.BeginRulesetGrammar:
			selectors := p.parseSelectors(data, parser.Values())
			decls := p.parseDeclarations(parser)
			for _, selStr := range selectors {
				sel, ok := p.parseSelector(selStr, sheet)
				if !ok {
					continue
				}
				sheet.Rules = append(sheet.Rules, Rule{
					Selector:     sel,
					Declarations: append([]Declaration(nil), decls...),
				})
			}
		}
	}
}

// ParseInline parses the content of a style attribute into ordered
// declarations. Later duplicates are kept, callers decide what wins.
func (p *Parser) ParseInline(data []byte) []Declaration {
	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, true)

	var decls []Declaration
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				p.log.Debug("Inline CSS parse error", zap.Error(err))
			}
			return decls

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			values := parser.Values()
			decls = append(decls, Declaration{
				Property: string(data),
				Value:    tokensToString(values),
			})
		}
	}
}

// FormatInline produces content of a style attribute.
func FormatInline(decls []Declaration) string {
	var sb strings.Builder
	for i, d := range decls {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(d.Property)
		sb.WriteString(": ")
		sb.WriteString(d.Value)
		sb.WriteByte(';')
	}
	return sb.String()
}

// parseSelectors extracts selector strings from token data.
func (p *Parser) parseSelectors(data []byte, values []css.Token) []string {
	// Build full selector string from data and values
	var sb strings.Builder
	if string(data) != "{" && (len(values) == 0 || string(values[0].Data) != string(data)) {
		sb.Write(data)
	}
	for _, v := range values {
		sb.Write(v.Data)
	}

	// Split by comma for grouped selectors, commas inside brackets and
	// parenthesis are part of the selector
	var (
		selectors []string
		depth     int
		start     int
		str       = sb.String()
	)
	for i := 0; i < len(str); i++ {
		switch str[i] {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				if s := strings.TrimSpace(str[start:i]); s != "" {
					selectors = append(selectors, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(str[start:]); s != "" {
		selectors = append(selectors, s)
	}
	return selectors
}

// parseDeclarations parses property declarations until EndRulesetGrammar.
func (p *Parser) parseDeclarations(parser *css.Parser) []Declaration {
	var decls []Declaration

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return decls

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			decls = append(decls, Declaration{
				Property: string(data),
				Value:    tokensToString(parser.Values()),
			})
		}
	}
}

// parseSelector parses a selector consisting of attribute matches only.
func (p *Parser) parseSelector(selStr string, sheet *Stylesheet) (Selector, bool) {
	selStr = strings.TrimSpace(selStr)
	sel := Selector{Raw: selStr}

	body := selStr
	if inner, found := strings.CutPrefix(body, ":where("); found {
		inner, found = strings.CutSuffix(inner, ")")
		if !found {
			sheet.Warnings = append(sheet.Warnings, "unbalanced :where selector: "+selStr)
			return sel, false
		}
		sel.Where = true
		body = strings.TrimSpace(inner)
	}

	matches := attributeMatchPattern.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		sheet.Warnings = append(sheet.Warnings, "unsupported selector: "+selStr)
		p.log.Debug("Skipping selector", zap.String("selector", selStr))
		return sel, false
	}

	// every byte of the selector must belong to an attribute match, anything
	// else (combinators, classes, elements) is not produced by styler
	pos := 0
	for _, m := range matches {
		if strings.TrimSpace(body[pos:m[0]]) != "" {
			sheet.Warnings = append(sheet.Warnings, "unsupported selector: "+selStr)
			p.log.Debug("Skipping selector", zap.String("selector", selStr))
			return sel, false
		}
		pos = m[1]

		am := AttributeMatch{Name: body[m[2]:m[3]]}
		if m[4] >= 0 {
			am.Op = MatchOp(body[m[4]:m[5]])
			switch {
			case m[6] >= 0:
				am.Value = unescapeDoubleQuoted(body[m[6]:m[7]])
			case m[8] >= 0:
				am.Value = body[m[8]:m[9]]
			case m[10] >= 0:
				am.Value = body[m[10]:m[11]]
			}
		}
		sel.Attributes = append(sel.Attributes, am)
	}
	if strings.TrimSpace(body[pos:]) != "" {
		sheet.Warnings = append(sheet.Warnings, "unsupported selector: "+selStr)
		return sel, false
	}
	return sel, true
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// tokensToString builds raw value string from CSS tokens collapsing
// whitespace.
func tokensToString(tokens []css.Token) string {
	var rawParts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			// Add space between non-whitespace tokens
			rawParts = append(rawParts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(rawParts, ""))
}
