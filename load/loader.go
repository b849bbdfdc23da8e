// Package load reads the persisted chunk stream back, routes chunks by type,
// and injects the three destination stores: the parent document store, the
// dense vector index and the lexical BM25 index.
package load

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/haein-lab/rag-ingest/bm25"
	"github.com/haein-lab/rag-ingest/logging"
	"github.com/haein-lab/rag-ingest/tokenizer"
	"github.com/haein-lab/rag-ingest/transform"
)

const (
	documentStoreFile = "document_store.json"
	lexicalIndexFile  = "bm25_index.gob"
)

// lexicalTags are the grammatical categories retained for the lexical index:
// general nouns, proper nouns, foreign-script tokens and numbers. Everything
// else is filtered out in place of a stopword list.
var lexicalTags = map[string]bool{
	tokenizer.TagCommonNoun: true,
	tokenizer.TagProperNoun: true,
	tokenizer.TagForeign:    true,
	tokenizer.TagNumber:     true,
}

// VectorDoc is one child chunk prepared for the vector index: its content and
// metadata augmented with the owning parent id and its own chunk id.
type VectorDoc struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// VectorIndexer rebuilds the dense vector index from scratch.
type VectorIndexer interface {
	Rebuild(ctx context.Context, docs []VectorDoc) error
}

// Loader runs the three index injections for one chunk file.
type Loader struct {
	log       *slog.Logger
	exportDir string
	vectors   VectorIndexer
	tok       tokenizer.Tokenizer
}

// NewLoader creates a loader writing its artifacts into exportDir.
func NewLoader(log *slog.Logger, exportDir string, vectors VectorIndexer, tok tokenizer.Tokenizer) *Loader {
	return &Loader{
		log:       log,
		exportDir: exportDir,
		vectors:   vectors,
		tok:       tok,
	}
}

// Run loads the chunk file, classifies it and runs the three injectors. The
// injectors are order-insensitive and a failing one does not stop its
// siblings; only an unreadable chunk file fails the stage.
func (l *Loader) Run(ctx context.Context, chunksPath string) error {
	data, err := os.ReadFile(chunksPath)
	if err != nil {
		return fmt.Errorf("unable to read chunk file: %w", err)
	}

	var chunks []transform.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return fmt.Errorf("unable to parse chunk file: %w", err)
	}

	l.log.Info("chunk data loaded", "count", len(chunks))

	parents, vecDocs, texts, ids := classify(chunks)

	l.injectDocumentStore(parents)
	l.injectVectorIndex(ctx, vecDocs)
	l.injectLexicalIndex(ctx, texts, ids)

	l.log.Info("load stage complete")
	return nil
}

// classify partitions chunks by type in a single pass: parents keyed by id,
// and for every child a vector document plus the parallel text/id slices for
// the lexical index. Unrecognized types are dropped.
func classify(chunks []transform.Chunk) (map[string]transform.Chunk, []VectorDoc, []string, []string) {
	parents := make(map[string]transform.Chunk)
	var vecDocs []VectorDoc
	var texts, ids []string

	for _, ch := range chunks {
		switch ch.DocType {
		case transform.DocTypeParent:
			parents[ch.ID] = ch

		case transform.DocTypeChild:
			meta := make(map[string]any, len(ch.Metadata)+2)
			for k, v := range ch.Metadata {
				meta[k] = v
			}
			if ch.ParentID != nil {
				meta["parent_id"] = *ch.ParentID
			}
			meta["chunk_id"] = ch.ID

			vecDocs = append(vecDocs, VectorDoc{
				ID:       ch.ID,
				Content:  ch.PageContent,
				Metadata: meta,
			})
			texts = append(texts, ch.PageContent)
			ids = append(ids, ch.ID)
		}
	}

	return parents, vecDocs, texts, ids
}

// injectDocumentStore persists the parent chunks as a single id-keyed JSON
// object. A failure here degrades retrieval (no parent expansion) but does
// not stop the run.
func (l *Loader) injectDocumentStore(parents map[string]transform.Chunk) {
	path := filepath.Join(l.exportDir, documentStoreFile)

	data, err := json.MarshalIndent(parents, "", "    ")
	if err != nil {
		l.log.Error("unable to serialize document store", "path", path, "error", err)
		return
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		l.log.Error("unable to save document store", "path", path, "error", err)
		return
	}

	l.log.Info("document store saved", "path", path, "parents", len(parents))
}

// injectVectorIndex rebuilds the vector index from the child documents. A
// run without a usable vector index is a severe degradation, so failures log
// at critical severity, but sibling injectors still run.
func (l *Loader) injectVectorIndex(ctx context.Context, docs []VectorDoc) {
	if len(docs) == 0 {
		return
	}

	if err := l.vectors.Rebuild(ctx, docs); err != nil {
		l.log.Log(ctx, logging.LevelCritical, "vector index build failed", "error", err)
		return
	}

	l.log.Info("vector index built", "documents", len(docs))
}

// injectLexicalIndex tokenizes every child text, fits the BM25 model and
// persists it with the parallel id list. A text that fails to tokenize
// contributes an empty token list rather than aborting the build.
func (l *Loader) injectLexicalIndex(ctx context.Context, texts, ids []string) {
	if len(texts) == 0 {
		return
	}

	path := filepath.Join(l.exportDir, lexicalIndexFile)

	corpus := make([][]string, len(texts))
	for i, text := range texts {
		tokens, err := l.tok.Tokenize(text)
		if err != nil {
			l.log.Debug("tokenization failed", "chunk_id", ids[i], "error", err)
			continue
		}

		var kept []string
		for _, t := range tokens {
			if lexicalTags[t.Tag] {
				kept = append(kept, t.Form)
			}
		}
		corpus[i] = kept
	}

	idx := bm25.Index{
		Model:  bm25.NewOkapi(corpus, bm25.DefaultK1, bm25.DefaultB, bm25.DefaultEpsilon),
		DocIDs: ids,
	}

	if err := idx.Save(path); err != nil {
		l.log.Log(ctx, logging.LevelCritical, "lexical index build failed", "path", path, "error", err)
		return
	}

	l.log.Info("lexical index saved", "path", path, "documents", len(ids))
}
