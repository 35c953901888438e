package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"lastcss/config"
	"lastcss/dom"
	"lastcss/engine"
	"lastcss/state"
	"lastcss/tag"
	"lastcss/utils/debug"
)

// Expand prints how tags given on command line are resolved.
func Expand(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("expand")

	if cmd.Args().Len() == 0 {
		return errors.New("no tags to expand have been specified")
	}

	e, err := detachedEngine(env.Engine(), log)
	if err != nil {
		return err
	}
	defer e.Close()

	_, err = fmt.Fprint(os.Stdout, describe(e, cmd.Args().Slice()))
	return err
}

// Shortcuts prints substitution table and registered components.
func Shortcuts(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("shortcuts")

	e, err := detachedEngine(env.Engine(), log)
	if err != nil {
		return err
	}
	defer e.Close()

	_, err = fmt.Fprint(os.Stdout, listing(e))
	return err
}

// detachedEngine returns engine over an empty document, used for its
// configured table and components only.
func detachedEngine(cfg config.EngineConfig, log *zap.Logger) (*engine.Engine, error) {
	doc, err := dom.Parse(strings.NewReader(""), log)
	if err != nil {
		return nil, err
	}
	e, err := engine.Initialize(doc, cfg, log, engine.WithoutReconciler())
	if err != nil {
		return nil, fmt.Errorf("unable to initialize styling engine: %w", err)
	}
	return e, nil
}

func describe(e *engine.Engine, tags []string) string {
	tw := debug.NewTreeWriter()
	for _, raw := range tags {
		tw.TextBlock(0, "tag", raw)

		res, err := e.Registry().Resolve(tag.Tokens(raw))
		if err != nil {
			tw.Line(1, "error: %v", err)
			continue
		}
		if res.Preset != nil {
			tw.Line(1, "component: %s", res.Preset.Name)
			tw.List(2, "modifiers", res.Modifiers)
		}
		tw.List(1, "expanded", e.Parser().Expand(res.Tag()))

		set := e.Parser().Parse(res.Tag())
		if len(set) == 0 {
			tw.Line(1, "no declarations")
			continue
		}
		tw.Line(1, "declarations:")
		for _, d := range set {
			tw.Pair(2, d.Property, d.Value)
		}
		tw.TextBlock(1, "canonical", set.Tag())
	}
	return tw.String()
}

func listing(e *engine.Engine) string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "shortcuts:")
	for _, key := range e.Table().Keys() {
		expansion, _ := e.Table().Lookup(key)
		tw.Pair(1, key, expansion)
	}

	names := e.Registry().Names()
	if len(names) == 0 {
		return tw.String()
	}
	tw.Line(0, "components:")
	for _, name := range names {
		p, _ := e.Registry().Lookup(name)
		tw.TextBlock(1, name, p.Base)
		for _, m := range p.ModifierNames() {
			tw.TextBlock(2, m, p.Modifiers[m])
		}
	}
	return tw.String()
}
