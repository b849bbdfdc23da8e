package transform

import (
	"log/slog"

	"github.com/haein-lab/rag-ingest/splitter"
)

const (
	// contentField holds the full document body on a record.
	contentField = "contents"
	// sourceField is the record's file-name-like source key.
	sourceField = "pdf_filename"
	// unknownSource is the lineage used when a record has no source key.
	unknownSource = "unknown"
)

// Record is one extracted document: arbitrary metadata plus the contents
// field holding the full text.
type Record map[string]any

// ChunkerConfig sets the parent and child character budgets. Zero values fall
// back to the defaults.
type ChunkerConfig struct {
	ParentSize    int
	ParentOverlap int
	ChildSize     int
	ChildOverlap  int
}

func (c ChunkerConfig) withDefaults() ChunkerConfig {
	if c.ParentSize == 0 {
		c.ParentSize = 2000
	}
	if c.ParentOverlap == 0 {
		c.ParentOverlap = 200
	}
	if c.ChildSize == 0 {
		c.ChildSize = 400
	}
	if c.ChildOverlap == 0 {
		c.ChildOverlap = 50
	}
	return c
}

// Chunker implements the parent-document strategy: records are split along
// header boundaries, sized into parents, and each parent is re-split into the
// small children used for similarity search.
type Chunker struct {
	log      *slog.Logger
	markdown *splitter.Markdown
	parents  *splitter.Recursive
	children *splitter.Recursive
}

// NewChunker builds a chunker with the default header rules and the budgets
// from cfg.
func NewChunker(log *slog.Logger, cfg ChunkerConfig) *Chunker {
	cfg = cfg.withDefaults()

	return &Chunker{
		log:      log,
		markdown: splitter.NewMarkdown(),
		parents:  splitter.NewRecursive(cfg.ParentSize, cfg.ParentOverlap),
		children: splitter.NewRecursive(cfg.ChildSize, cfg.ChildOverlap),
	}
}

// Split turns one record into its ordered chunk list: each parent followed
// immediately by its children. A record with empty or missing contents
// contributes nothing. The output is deterministic for deterministic input.
func (c *Chunker) Split(rec Record) []Chunk {
	contents, _ := rec[contentField].(string)
	if contents == "" {
		c.log.Debug("record has no contents, skipping", "source", rec[sourceField])
		return nil
	}

	base := make(map[string]any, len(rec)-1)
	for k, v := range rec {
		if k != contentField {
			base[k] = v
		}
	}

	source := unknownSource
	if s, ok := base[sourceField].(string); ok && s != "" {
		source = s
	}

	var chunks []Chunk
	parentIndex := 0

	for _, frag := range c.markdown.Split(contents) {
		for _, parentText := range c.parents.Split(frag.Content) {
			meta := make(map[string]any, len(base)+len(frag.Metadata))
			for k, v := range base {
				meta[k] = v
			}
			for k, v := range frag.Metadata {
				meta[k] = v
			}

			parentID := DeriveID(parentIndex, source, parentText, string(DocTypeParent))
			chunks = append(chunks, Chunk{
				ID:          parentID,
				DocType:     DocTypeParent,
				PageContent: parentText,
				Metadata:    meta,
			})

			for childIndex, childText := range c.children.Split(parentText) {
				pid := parentID
				chunks = append(chunks, Chunk{
					ID:          DeriveID(childIndex, parentID, childText, string(DocTypeChild)),
					DocType:     DocTypeChild,
					ParentID:    &pid,
					PageContent: childText,
					Metadata:    meta,
				})
			}

			parentIndex++
		}
	}

	return chunks
}
