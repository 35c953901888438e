package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"lastcss/archive"
	"lastcss/state"
)

// settle is how long source must stay unchanged before it is styled again.
const settle = 200 * time.Millisecond

// Watch styles SOURCE file into DESTINATION directory and does it again
// every time source changes until interrupted.
func Watch(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("watch")

	src, dst, err := paths(cmd, log)
	if err != nil {
		return err
	}
	if fi, err := os.Stat(src); err != nil {
		return fmt.Errorf("input source was not found (%s): %w", src, err)
	} else if fi.IsDir() {
		return errors.New("only single file could be watched")
	}
	if ok, err := archive.IsArchive(src); err != nil {
		return fmt.Errorf("unable to check input source (%s): %w", src, err)
	} else if ok {
		return errors.New("archives could not be watched")
	}
	prepareEnv(cmd, env, log)
	out := buildOutputPath(filepath.Base(src), dst)
	env.Rpt.StoreSource(src)

	if err := processFile(ctx, src, out, log); err != nil {
		return err
	}
	// result is ours from now on
	env.Overwrite = true

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create file watcher: %w", err)
	}
	defer w.Close()

	// editors often replace file instead of writing it, watching directory
	// keeps us informed
	if err := w.Add(filepath.Dir(src)); err != nil {
		return fmt.Errorf("unable to watch %s: %w", filepath.Dir(src), err)
	}
	log.Info("Watching for changes", zap.String("source", src), zap.String("destination", out))

	return watchLoop(ctx, w, src, func() error {
		return processFile(ctx, src, out, log)
	}, log)
}

// watchLoop calls restyle after changes of src settle. Errors of restyle are
// logged, watching continues.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, src string, restyle func() error, log *zap.Logger) error {
	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	passes := 0
	for {
		select {
		case <-ctx.Done():
			log.Info("Watching stopped", zap.Int("passes", passes))
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != src || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			log.Debug("Source changed", zap.Stringer("op", ev.Op))
			timer.Reset(settle)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("File watcher error", zap.Error(err))

		case <-timer.C:
			passes++
			start := time.Now()
			if err := restyle(); err != nil {
				log.Error("Unable to style document", zap.Error(err))
				continue
			}
			log.Info("Document styled", zap.Int("pass", passes), zap.Duration("elapsed", time.Since(start)))
		}
	}
}
