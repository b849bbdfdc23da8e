package load

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

const defaultRequestSize = 64

// ChromaConfig locates the Chroma server and the collection to rebuild.
type ChromaConfig struct {
	BaseURL     string
	Collection  string
	RequestSize int
}

// ChromaIndexer rebuilds a Chroma collection from child documents with
// full-replace semantics: the existing collection is destroyed first.
type ChromaIndexer struct {
	log         *slog.Logger
	cfg         ChromaConfig
	embed       embeddings.EmbeddingFunction
	requestSize int
}

// NewChromaIndexer creates an indexer embedding documents through ef.
func NewChromaIndexer(log *slog.Logger, cfg ChromaConfig, ef embeddings.EmbeddingFunction) *ChromaIndexer {
	size := cfg.RequestSize
	if size <= 0 {
		size = defaultRequestSize
	}

	return &ChromaIndexer{
		log:         log,
		cfg:         cfg,
		embed:       ef,
		requestSize: size,
	}
}

// Rebuild drops any existing collection and adds every document in
// request-size batches.
func (ci *ChromaIndexer) Rebuild(ctx context.Context, docs []VectorDoc) error {
	client, err := chroma.NewHTTPClient(chroma.WithBaseURL(ci.cfg.BaseURL))
	if err != nil {
		return fmt.Errorf("failed to create chroma client: %w", err)
	}
	defer client.Close()

	if err := client.DeleteCollection(ctx, ci.cfg.Collection); err != nil {
		ci.log.Debug("no existing collection to delete", "collection", ci.cfg.Collection, "error", err)
	}

	col, err := client.GetOrCreateCollection(ctx, ci.cfg.Collection,
		chroma.WithEmbeddingFunctionCreate(ci.embed))
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", ci.cfg.Collection, err)
	}

	for start := 0; start < len(docs); start += ci.requestSize {
		end := min(start+ci.requestSize, len(docs))
		batch := docs[start:end]

		ids := make([]chroma.DocumentID, 0, len(batch))
		texts := make([]string, 0, len(batch))
		metas := make([]chroma.DocumentMetadata, 0, len(batch))
		for _, d := range batch {
			ids = append(ids, chroma.DocumentID(d.ID))
			texts = append(texts, d.Content)
			metas = append(metas, toMetadata(d.Metadata))
		}

		err := col.Add(ctx,
			chroma.WithIDs(ids...),
			chroma.WithTexts(texts...),
			chroma.WithMetadatas(metas...),
		)
		if err != nil {
			return fmt.Errorf("failed to add documents to collection: %w", err)
		}
	}

	return nil
}

// toMetadata converts a chunk metadata map to Chroma attributes. Keys are
// sorted so the attribute order is deterministic; nil values are dropped and
// unsupported types stored as their string form.
func toMetadata(meta map[string]any) chroma.DocumentMetadata {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]*chroma.MetaAttribute, 0, len(meta))
	for _, k := range keys {
		switch v := meta[k].(type) {
		case nil:
			continue
		case string:
			attrs = append(attrs, chroma.NewStringAttribute(k, v))
		case bool:
			attrs = append(attrs, chroma.NewBoolAttribute(k, v))
		case int:
			attrs = append(attrs, chroma.NewIntAttribute(k, int64(v)))
		case int64:
			attrs = append(attrs, chroma.NewIntAttribute(k, v))
		case float64:
			attrs = append(attrs, chroma.NewFloatAttribute(k, v))
		default:
			attrs = append(attrs, chroma.NewStringAttribute(k, fmt.Sprint(v)))
		}
	}

	return chroma.NewDocumentMetadata(attrs...)
}
