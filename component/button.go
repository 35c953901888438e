package component

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"lastcss/dom"
)

// Button returns built-in "button" preset with "secondary" modifier.
func Button(log *zap.Logger) Preset {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("button")

	return Preset{
		Name: "button",
		Base: "bg-color.var(--ui-primary-color) color.#fff border.none p.10px border-radius.5px font-size.18px font-weight.bold cursor.pointer",
		Modifiers: map[string]string{
			"secondary": "bg-color.var(--ui-secondary-color)",
		},
		OnInit: func(_ *dom.Document, n *html.Node) {
			log.Debug("Button component init", zap.String("element", n.Data))
		},
		Events: map[string]dom.Handler{
			"click": func(_ *dom.Document, ev *dom.Event) {
				log.Debug("Button component clicked", zap.String("target", ev.Target.Data))
			},
		},
	}
}

// Builtins returns all built-in presets.
func Builtins(log *zap.Logger) []Preset {
	return []Preset{Button(log)}
}
