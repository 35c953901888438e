// Package convert implements subcommands styling HTML documents on disk.
package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"lastcss/archive"
	"lastcss/config"
	"lastcss/dom"
	"lastcss/engine"
	"lastcss/state"
)

// Run styles SOURCE file, every HTML file under SOURCE directory or every
// HTML file packed into SOURCE zip archive and writes results into
// DESTINATION directory.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("apply")

	src, dst, err := paths(cmd, log)
	if err != nil {
		return err
	}
	prepareEnv(cmd, env, log)

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.String("mode", env.Engine().Mode))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	env.Rpt.StoreSource(src)
	return process(ctx, src, dst, log)
}

// paths returns absolute source and destination from command line.
func paths(cmd *cli.Command, log *zap.Logger) (src, dst string, err error) {
	src = cmd.Args().Get(0)
	if len(src) == 0 {
		return "", "", errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return "", "", err
	}

	dst = cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return "", "", fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return "", "", err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	return src, dst, nil
}

func prepareEnv(cmd *cli.Command, env *state.LocalEnv, log *zap.Logger) {
	env.Mode, env.Attribute = cmd.String("mode"), cmd.String("attr")
	env.Overwrite = cmd.Bool("overwrite")

	// input without proper charset declaration may need forced code page
	if cp := cmd.String("force-cp"); len(cp) > 0 {
		enc, err := ianaindex.IANA.Encoding(cp)
		if err != nil || enc == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			return
		}
		env.CodePage = enc
		n, _ := ianaindex.IANA.Name(enc)
		log.Debug("Forcefully decoding input", zap.String("charset", n))
	}
}

// process handles directory, zip archive or single file source.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("input source was not found (%s): %w", src, err)
	}
	if fi.IsDir() {
		return processDir(ctx, src, dst, log)
	}
	if ok, err := archive.IsArchive(src); err != nil {
		return fmt.Errorf("unable to check input source (%s): %w", src, err)
	} else if ok {
		return processArchive(ctx, src, dst, log)
	}
	return processFile(ctx, src, buildOutputPath(filepath.Base(src), dst), log)
}

func processDir(ctx context.Context, dir, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(filepath.Clean(path)+string(filepath.Separator), filepath.Clean(dst)+string(filepath.Separator)) {
				// destination inside of source tree
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if !isHTMLFile(path) {
			if strings.EqualFold(filepath.Ext(path), ".zip") {
				if ok, err := archive.IsArchive(path); err == nil && ok {
					count++
					// archive content goes into directory named after archive
					out := buildOutputPath(strings.TrimSuffix(rel, filepath.Ext(rel)), dst)
					if err := processArchive(ctx, path, out, log); err != nil {
						log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
					}
				}
			}
			return nil
		}

		count++
		if err := processFile(ctx, path, buildOutputPath(rel, dst), log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
}

// processArchive styles every HTML document packed into zip archive src.
// Results are written under dst keeping their path inside of archive.
func processArchive(ctx context.Context, src, dst string, log *zap.Logger) error {
	count := 0
	err := archive.Walk(src, isHTMLFile, func(_ string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		count++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to open archived file", zap.String("archive", src), zap.String("file", f.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		if err := processReader(ctx, r, src+"/"+f.Name, buildOutputPath(filepath.FromSlash(f.Name), dst), log); err != nil {
			log.Error("Unable to process archived file", zap.String("archive", src), zap.String("file", f.Name), zap.Error(err))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("unable to walk archive (%s): %w", src, err)
	}
	if count == 0 {
		log.Debug("Nothing to process", zap.String("archive", src))
	}
	return nil
}

// processFile styles single document. Elements which could not be styled
// are reported and left as they are.
func processFile(ctx context.Context, src, out string, log *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("unable to open source: %w", err)
	}
	defer in.Close()

	return processReader(ctx, in, src, out, log)
}

// processReader styles document read from r and writes result to out. Name
// identifies source in log messages.
func processReader(ctx context.Context, in io.Reader, name, out string, log *zap.Logger) (rerr error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)

	if err := checkOutputPath(name, out, env.Overwrite); err != nil {
		return err
	}

	r, err := selectReader(in, env.CodePage)
	if err != nil {
		return fmt.Errorf("unable to detect source encoding: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("unable to create destination directory: %w", err)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("unable to create destination: %w", err)
	}
	defer func() {
		rerr = multierr.Append(rerr, f.Close())
		if rerr == nil {
			rerr = env.Rpt.StoreResult(out)
		}
	}()

	start := time.Now()
	res, err := styleDocument(r, f, env.Engine(), log)
	if err != nil {
		return err
	}
	if len(res.styles) > 0 {
		env.Rpt.StoreStyles(filepath.Base(out), res.styles)
	}
	log.Debug("Document styled", zap.String("source", name), zap.String("destination", out),
		zap.Int("elements", res.elements), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// selectReader decodes input either from requested code page or from
// encoding declared by the document itself.
func selectReader(r io.Reader, cp encoding.Encoding) (io.Reader, error) {
	if cp != nil {
		return transform.NewReader(r, cp.NewDecoder()), nil
	}
	return charset.NewReader(r, "text/html")
}

// styled is what styling of a single document produced.
type styled struct {
	elements int
	// generated style blocks in document order, empty in inline mode
	styles string
}

// styleDocument parses HTML from r, runs full styling pass and renders result
// into w.
func styleDocument(r io.Reader, w io.Writer, cfg config.EngineConfig, log *zap.Logger) (styled, error) {
	var res styled

	doc, err := dom.Parse(r, log)
	if err != nil {
		return res, fmt.Errorf("unable to parse document: %w", err)
	}

	doc.AddEventListener(doc.Root(), engine.EventApplied, func(_ *dom.Document, ev *dom.Event) {
		res.elements = ev.Detail.(int)
	})

	e, err := engine.Initialize(doc, cfg, log, engine.WithoutReconciler())
	if e == nil {
		return res, fmt.Errorf("unable to initialize styling engine: %w", err)
	}
	defer e.Close()

	for _, err := range multierr.Errors(err) {
		log.Warn("Element left unstyled", zap.Error(err))
	}

	var blocks []string
	for _, b := range doc.StyleBlocks(e.Styler().MarkerAttribute()) {
		blocks = append(blocks, dom.StyleText(b))
	}
	res.styles = strings.Join(blocks, "\n")

	if err := doc.Render(w); err != nil {
		return res, fmt.Errorf("unable to write document: %w", err)
	}
	return res, nil
}
