package dom

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// AppendStyle adds <style> element with text after all other children of
// head. Head is created when missing.
func (d *Document) AppendStyle(text string, attrs ...html.Attribute) (*html.Node, error) {
	head, err := d.ensureHead()
	if err != nil {
		return nil, err
	}
	n := d.newStyle(text, attrs)
	d.AppendChild(head, n)
	return n, nil
}

// PrependStyle adds <style> element before every other style block or style
// sheet link of head, so its rules lose to all others with equal specificity.
func (d *Document) PrependStyle(text string, attrs ...html.Attribute) (*html.Node, error) {
	head, err := d.ensureHead()
	if err != nil {
		return nil, err
	}

	var ref *html.Node
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if isStyleSource(c) {
			ref = c
			break
		}
	}
	n := d.newStyle(text, attrs)
	d.InsertBefore(head, n, ref)
	return n, nil
}

// StyleText returns text of style element.
func StyleText(n *html.Node) string {
	return Text(n)
}

// SetStyleText replaces content of style element.
func (d *Document) SetStyleText(n *html.Node, text string) {
	d.SetText(n, text)
}

// StyleBlocks returns <style> elements of head carrying attribute marker, in
// document order.
func (d *Document) StyleBlocks(marker string) []*html.Node {
	head := d.Head()
	if head == nil {
		return nil
	}
	var res []*html.Node
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Style && d.HasAttribute(c, marker) {
			res = append(res, c)
		}
	}
	return res
}

// QueryAll returns all elements matching CSS selector in document order.
// Content of <template> elements is included.
func (d *Document) QueryAll(selector string) ([]*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("bad selector %q: %w", selector, err)
	}
	return cascadia.QueryAll(d.root, sel), nil
}

// QueryAllWithin is QueryAll limited to n and its descendants.
func QueryAllWithin(n *html.Node, selector string) ([]*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("bad selector %q: %w", selector, err)
	}
	var res []*html.Node
	if n.Type == html.ElementNode && sel.Match(n) {
		res = append(res, n)
	}
	return append(res, cascadia.QueryAll(n, sel)...), nil
}

func (d *Document) newStyle(text string, attrs []html.Attribute) *html.Node {
	n := CreateElement("style")
	n.Attr = append(n.Attr, attrs...)
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	return n
}

func isStyleSource(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Style:
		return true
	case atom.Link:
		rel, _ := attr(n, "rel")
		return rel == "stylesheet"
	}
	return false
}
