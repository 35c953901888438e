package dom_test

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"lastcss/dom"
)

const page = `<!DOCTYPE html><html><head><title>t</title><link rel="stylesheet" href="a.css"></head>
<body><div id="a" ui="m.10px"><span ui="p.5px">x</span></div>
<template><p ui="color.red">in template</p></template></body></html>`

func parse(t *testing.T, src string) *dom.Document {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(src), zap.NewNop())
	if err != nil {
		t.Fatalf("unable to parse: %v", err)
	}
	return doc
}

func first(t *testing.T, doc *dom.Document, selector string) *html.Node {
	t.Helper()
	nodes, err := doc.QueryAll(selector)
	if err != nil {
		t.Fatalf("QueryAll(%q): %v", selector, err)
	}
	if len(nodes) == 0 {
		t.Fatalf("QueryAll(%q) found nothing", selector)
	}
	return nodes[0]
}

func TestDocument_BodyAndEmpty(t *testing.T) {
	doc := parse(t, page)
	if doc.Body() == nil || doc.Head() == nil {
		t.Fatal("expected body and head")
	}

	empty := dom.Empty(nil)
	if empty.Body() != nil {
		t.Error("empty document should not have body")
	}
	if _, err := empty.AppendStyle("x{}"); !errors.Is(err, dom.ErrNoHead) {
		t.Errorf("AppendStyle() error = %v, want ErrNoHead", err)
	}
}

func TestDocument_QueryAllIncludesTemplates(t *testing.T) {
	doc := parse(t, page)

	nodes, err := doc.QueryAll("[ui]")
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(nodes))
	}
	if nodes[2].Data != "p" {
		t.Errorf("expected template content last, got <%s>", nodes[2].Data)
	}

	if _, err := doc.QueryAll("[[["); err == nil {
		t.Error("expected error for bad selector")
	}
}

func TestDocument_Attributes(t *testing.T) {
	doc := parse(t, page)
	div := first(t, doc, "#a")

	if v, ok := doc.Attribute(div, "ui"); !ok || v != "m.10px" {
		t.Errorf("Attribute(ui) = %q, %v", v, ok)
	}
	doc.SetAttribute(div, "ui", "1")
	if v, _ := doc.Attribute(div, "ui"); v != "1" {
		t.Errorf("after SetAttribute got %q", v)
	}
	doc.RemoveAttribute(div, "ui")
	if doc.HasAttribute(div, "ui") {
		t.Error("attribute should be removed")
	}
}

func TestDocument_SetStyleProperty(t *testing.T) {
	doc := parse(t, `<html><body><div style="color: red; margin: 0"></div></body></html>`)
	div := first(t, doc, "div")

	doc.SetStyleProperty(div, "margin", "10px")
	doc.SetStyleProperty(div, "transform", "scale(0.5)")
	if v, _ := doc.Attribute(div, "style"); v != "color: red; margin: 10px; transform: scale(0.5);" {
		t.Errorf("unexpected style %q", v)
	}
	if v, ok := doc.StyleProperty(div, "transform"); !ok || v != "scale(0.5)" {
		t.Errorf("StyleProperty(transform) = %q, %v", v, ok)
	}

	doc.SetStyleProperty(div, "color", "")
	doc.SetStyleProperty(div, "margin", "")
	doc.SetStyleProperty(div, "transform", "")
	if doc.HasAttribute(div, "style") {
		t.Error("style attribute should be removed when empty")
	}
}

func TestDocument_StyleBlocks(t *testing.T) {
	doc := parse(t, page)

	last, err := doc.AppendStyle(`[ui="1"]{margin:0;}`, html.Attribute{Key: "data-ui"})
	if err != nil {
		t.Fatal(err)
	}
	firstStyle, err := doc.PrependStyle(`:where([ui-component="button"]){color:red;}`, html.Attribute{Key: "data-ui"})
	if err != nil {
		t.Fatal(err)
	}

	head := doc.Head()
	var order []string
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			order = append(order, c.Data)
		}
	}
	if strings.Join(order, ",") != "title,style,link,style" {
		t.Errorf("unexpected head order %v", order)
	}

	blocks := doc.StyleBlocks("data-ui")
	if len(blocks) != 2 || blocks[0] != firstStyle || blocks[1] != last {
		t.Fatalf("unexpected style blocks %v", blocks)
	}

	doc.SetStyleText(last, `[ui="2"]{padding:0;}`)
	if got := dom.StyleText(last); got != `[ui="2"]{padding:0;}` {
		t.Errorf("StyleText() = %q", got)
	}
	if !strings.Contains(doc.String(), `[ui="2"]{padding:0;}`) {
		t.Error("rendered document should contain new rule")
	}
}

func TestDocument_CreatesHead(t *testing.T) {
	root := &html.Node{Type: html.DocumentNode}
	htmlNode := dom.CreateElement("html")
	body := dom.CreateElement("body")
	root.AppendChild(htmlNode)
	htmlNode.AppendChild(body)

	doc := dom.New(root, nil)
	if _, err := doc.AppendStyle("x"); err != nil {
		t.Fatal(err)
	}
	if doc.Head() == nil || htmlNode.FirstChild != doc.Head() {
		t.Error("head should be created as first child of html")
	}
}

func TestDocument_Events(t *testing.T) {
	doc := parse(t, page)
	span := first(t, doc, "span")
	div := first(t, doc, "#a")

	var calls []string
	remove := doc.AddEventListener(span, "click", func(_ *dom.Document, ev *dom.Event) {
		calls = append(calls, "span")
	})
	doc.AddEventListener(div, "click", func(_ *dom.Document, ev *dom.Event) {
		if ev.Target != span {
			t.Error("target should be span")
		}
		calls = append(calls, "div")
	})
	doc.AddEventListener(doc.Root(), "click", func(_ *dom.Document, ev *dom.Event) {
		calls = append(calls, "root")
	})

	doc.Dispatch(span, &dom.Event{Type: "click", Bubbles: true})
	if strings.Join(calls, ",") != "span,div,root" {
		t.Errorf("unexpected call order %v", calls)
	}

	calls = nil
	doc.Dispatch(span, &dom.Event{Type: "click"})
	if strings.Join(calls, ",") != "span" {
		t.Errorf("non bubbling event reached %v", calls)
	}

	remove()
	if doc.ListenerCount(span, "click") != 0 {
		t.Error("listener should be removed")
	}
	if doc.ListenerCount(div, "") != 1 {
		t.Error("div listener should stay")
	}
}

func TestDocument_StopPropagation(t *testing.T) {
	doc := parse(t, page)
	span := first(t, doc, "span")
	div := first(t, doc, "#a")

	reached := false
	doc.AddEventListener(span, "x", func(_ *dom.Document, ev *dom.Event) { ev.StopPropagation() })
	doc.AddEventListener(div, "x", func(_ *dom.Document, ev *dom.Event) { reached = true })

	doc.Dispatch(span, &dom.Event{Type: "x", Bubbles: true})
	if reached {
		t.Error("propagation should stop")
	}
}
