// Package dom is a small host tree over golang.org/x/net/html. It provides
// what the styling engine needs from a document: attribute access, inline
// style, style blocks in head, event listeners and batched mutation records.
package dom

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"lastcss/css"
)

// ErrNoHead is returned when a style block cannot be placed because document
// has no <html> element.
var ErrNoHead = errors.New("document has no html element")

// Document wraps parsed HTML tree. It is not safe for concurrent use, all
// access is expected to happen from a single goroutine.
type Document struct {
	root   *html.Node
	log    *zap.Logger
	parser *css.Parser

	origin     Origin
	pending    []MutationRecord
	observers  []*observer
	listeners  map[*html.Node][]*listener
	nextHandle int
}

// New wraps existing tree. root is normally a html.DocumentNode.
func New(root *html.Node, log *zap.Logger) *Document {
	if log == nil {
		log = zap.NewNop()
	}
	return &Document{
		root:      root,
		log:       log.Named("dom"),
		parser:    css.NewParser(log),
		listeners: make(map[*html.Node][]*listener),
	}
}

// Parse reads HTML document from r.
func Parse(r io.Reader, log *zap.Logger) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("unable to parse document: %w", err)
	}
	return New(root, log), nil
}

// Empty returns document without any elements, the state of a host before
// body was created.
func Empty(log *zap.Logger) *Document {
	return New(&html.Node{Type: html.DocumentNode}, log)
}

// Root returns document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Body returns <body> element or nil.
func (d *Document) Body() *html.Node {
	return findElement(d.root, atom.Body)
}

// Head returns <head> element or nil.
func (d *Document) Head() *html.Node {
	return findElement(d.root, atom.Head)
}

func (d *Document) ensureHead() (*html.Node, error) {
	if head := d.Head(); head != nil {
		return head, nil
	}
	htmlNode := findElement(d.root, atom.Html)
	if htmlNode == nil {
		return nil, ErrNoHead
	}
	head := CreateElement("head")
	d.InsertBefore(htmlNode, head, htmlNode.FirstChild)
	return head, nil
}

// CreateElement returns new detached element.
func CreateElement(tag string) *html.Node {
	tag = strings.ToLower(tag)
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// Attribute returns value of attribute name on n.
func (d *Document) Attribute(n *html.Node, name string) (string, bool) {
	return attr(n, name)
}

// HasAttribute reports whether n carries attribute name.
func (d *Document) HasAttribute(n *html.Node, name string) bool {
	_, ok := attr(n, name)
	return ok
}

// SetAttribute sets attribute name on n, adding it when missing.
func (d *Document) SetAttribute(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == name {
			old := n.Attr[i].Val
			n.Attr[i].Val = value
			d.record(MutationRecord{Kind: AttributeChanged, Target: n, Name: name, OldValue: &old})
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
	d.record(MutationRecord{Kind: AttributeChanged, Target: n, Name: name})
}

// RemoveAttribute removes attribute name from n if present.
func (d *Document) RemoveAttribute(n *html.Node, name string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == name {
			old := n.Attr[i].Val
			n.Attr = slices.Delete(n.Attr, i, i+1)
			d.record(MutationRecord{Kind: AttributeChanged, Target: n, Name: name, OldValue: &old})
			return
		}
	}
}

// StyleProperty returns value of property from inline style of n.
func (d *Document) StyleProperty(n *html.Node, property string) (string, bool) {
	style, ok := attr(n, "style")
	if !ok {
		return "", false
	}
	var (
		val   string
		found bool
	)
	for _, decl := range d.parser.ParseInline([]byte(style)) {
		if decl.Property == property {
			val, found = decl.Value, true
		}
	}
	return val, found
}

// SetStyleProperty merges property into inline style of n. Existing
// declaration of the same property is replaced in place, empty value removes
// it.
func (d *Document) SetStyleProperty(n *html.Node, property, value string) {
	var decls []css.Declaration
	if style, ok := attr(n, "style"); ok {
		decls = d.parser.ParseInline([]byte(style))
	}

	merged := make([]css.Declaration, 0, len(decls)+1)
	placed := false
	for _, decl := range decls {
		if decl.Property != property {
			merged = append(merged, decl)
			continue
		}
		if value == "" || placed {
			continue
		}
		merged = append(merged, css.Declaration{Property: property, Value: value})
		placed = true
	}
	if value != "" && !placed {
		merged = append(merged, css.Declaration{Property: property, Value: value})
	}
	decls = merged

	if len(decls) == 0 {
		d.RemoveAttribute(n, "style")
		return
	}
	d.SetAttribute(n, "style", css.FormatInline(decls))
}

// AppendChild adds child as the last child of parent.
func (d *Document) AppendChild(parent, child *html.Node) {
	d.InsertBefore(parent, child, nil)
}

// InsertBefore inserts child into parent before ref, ref nil appends.
func (d *Document) InsertBefore(parent, child, ref *html.Node) {
	if child.Parent != nil {
		d.RemoveChild(child.Parent, child)
	}
	parent.InsertBefore(child, ref)
	d.record(MutationRecord{Kind: NodeAdded, Target: parent, Added: []*html.Node{child}})
}

// RemoveChild detaches child from parent.
func (d *Document) RemoveChild(parent, child *html.Node) {
	if child.Parent != parent {
		return
	}
	parent.RemoveChild(child)
	d.record(MutationRecord{Kind: NodeRemoved, Target: parent, Removed: []*html.Node{child}})
}

// Text returns concatenated text content of n.
func Text(n *html.Node) string {
	var sb strings.Builder
	for c := range n.Descendants() {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// SetText replaces all children of n with a single text node.
func (d *Document) SetText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		d.RemoveChild(n, c)
		c = next
	}
	d.AppendChild(n, &html.Node{Type: html.TextNode, Data: text})
}

// Contains reports whether n is attached to the document tree.
func (d *Document) Contains(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

// Render writes serialized document to w.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String returns serialized document.
func (d *Document) String() string {
	var sb strings.Builder
	if err := d.Render(&sb); err != nil {
		return ""
	}
	return sb.String()
}

func attr(n *html.Node, name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func findElement(root *html.Node, a atom.Atom) *html.Node {
	for n := range root.Descendants() {
		if n.Type == html.ElementNode && n.DataAtom == a {
			return n
		}
	}
	return nil
}
