// Package logging sets up the pipeline's structured logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// LevelCritical marks failures that degrade the run severely but do not
// necessarily abort it, such as a vector index that could not be rebuilt.
const LevelCritical = slog.LevelError + 4

// New returns a JSON logger writing to the given file, or to stderr when the
// path is empty. The returned closer releases the log file.
func New(path string) (*slog.Logger, func() error, error) {
	var w io.Writer = os.Stderr
	closer := func() error { return nil }

	if path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}

		w = f
		closer = f.Close
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl >= LevelCritical {
					a.Value = slog.StringValue("CRITICAL")
				}
			}
			return a
		},
	})

	return slog.New(h), closer, nil
}
