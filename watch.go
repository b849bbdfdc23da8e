package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchAndRun re-executes the pipeline whenever the input metadata file
// changes. Bursts of filesystem events are merged: the run starts only after
// the file has been quiet for the debounce window.
func watchAndRun(ctx context.Context, log *slog.Logger, p *Pipeline, input string, debounce time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(input)); err != nil {
		return fmt.Errorf("unable to watch %s: %w", filepath.Dir(input), err)
	}

	log.Info("watching for changes", "path", input)

	target := filepath.Clean(input)
	pending := false
	var quiet <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}

			pending = true
			quiet = time.After(debounce)

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error("watch error", "error", werr)

		case <-quiet:
			if !pending {
				continue
			}
			pending = false
			quiet = nil

			log.Info("input changed, re-running pipeline", "path", input)
			if err := p.Execute(ctx, input); err != nil {
				log.Error("pipeline run failed", "error", err)
			}
		}
	}
}
