package dom

import (
	"slices"

	"golang.org/x/net/html"
)

// Event is dispatched to listeners of a node and, when Bubbles is set, to
// listeners of its ancestors.
type Event struct {
	Type     string
	Target   *html.Node
	Current  *html.Node
	Detail   any
	Bubbles  bool
	Composed bool

	stopped bool
}

// StopPropagation prevents further bubbling.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Handler is an event listener.
type Handler func(doc *Document, ev *Event)

type listener struct {
	handle int
	typ    string
	fn     Handler
}

// AddEventListener attaches fn to n for events of type typ. Returned function
// removes the listener.
func (d *Document) AddEventListener(n *html.Node, typ string, fn Handler) (remove func()) {
	d.nextHandle++
	l := &listener{handle: d.nextHandle, typ: typ, fn: fn}
	d.listeners[n] = append(d.listeners[n], l)
	return func() {
		d.listeners[n] = slices.DeleteFunc(d.listeners[n], func(e *listener) bool {
			return e.handle == l.handle
		})
		if len(d.listeners[n]) == 0 {
			delete(d.listeners, n)
		}
	}
}

// ListenerCount returns number of listeners of type typ attached to n, empty
// typ counts all.
func (d *Document) ListenerCount(n *html.Node, typ string) int {
	var count int
	for _, l := range d.listeners[n] {
		if typ == "" || l.typ == typ {
			count++
		}
	}
	return count
}

// Dispatch delivers ev to listeners of target and, if ev bubbles, to
// listeners of every ancestor up to the document node.
func (d *Document) Dispatch(target *html.Node, ev *Event) {
	ev.Target = target
	for n := target; n != nil; n = n.Parent {
		ev.Current = n
		for _, l := range slices.Clone(d.listeners[n]) {
			if l.typ == ev.Type {
				l.fn(d, ev)
			}
		}
		if !ev.Bubbles || ev.stopped {
			break
		}
	}
	ev.Current = nil
}
