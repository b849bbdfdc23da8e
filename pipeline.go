package main

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/haein-lab/rag-ingest/extract"
	"github.com/haein-lab/rag-ingest/load"
	"github.com/haein-lab/rag-ingest/logging"
	"github.com/haein-lab/rag-ingest/transform"
)

// Pipeline runs the three stages in order: extract the record array from raw
// PDFs and metadata, transform it into the chunk stream, load the chunk
// stream into the three indexes.
type Pipeline struct {
	log         *slog.Logger
	extractor   *extract.Extractor
	transformer *transform.Transformer
	loader      *load.Loader
}

// Execute runs one full pipeline pass for the given metadata file. Any stage
// failure or panic is logged at critical severity and returned, so the caller
// exits non-zero; per-item failures inside a stage never surface here.
func (p *Pipeline) Execute(ctx context.Context, metadataPath string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panicked: %v", r)
			p.log.Log(ctx, logging.LevelCritical, "pipeline panicked",
				"panic", r, "stack", string(debug.Stack()))
		}
	}()

	recordsPath, err := p.extractor.Run(metadataPath)
	if err != nil {
		p.log.Log(ctx, logging.LevelCritical, "extract stage failed", "error", err)
		return fmt.Errorf("extract stage: %w", err)
	}

	chunksPath, count, err := p.transformer.Run(recordsPath)
	if err != nil {
		p.log.Log(ctx, logging.LevelCritical, "transform stage failed", "error", err)
		return fmt.Errorf("transform stage: %w", err)
	}

	if err := p.loader.Run(ctx, chunksPath); err != nil {
		p.log.Log(ctx, logging.LevelCritical, "load stage failed", "error", err)
		return fmt.Errorf("load stage: %w", err)
	}

	p.log.Info("pipeline finished", "chunks", count)
	return nil
}
