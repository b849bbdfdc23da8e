package load

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haein-lab/rag-ingest/bm25"
	"github.com/haein-lab/rag-ingest/tokenizer"
	"github.com/haein-lab/rag-ingest/transform"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeVectorIndexer struct {
	docs  []VectorDoc
	calls int
	err   error
}

func (f *fakeVectorIndexer) Rebuild(_ context.Context, docs []VectorDoc) error {
	f.calls++
	f.docs = docs
	return f.err
}

// fieldTokenizer tags every whitespace-separated field as a common noun.
type fieldTokenizer struct{}

func (fieldTokenizer) Tokenize(text string) ([]tokenizer.Token, error) {
	var out []tokenizer.Token
	for _, f := range strings.Fields(text) {
		out = append(out, tokenizer.Token{Form: f, Tag: tokenizer.TagCommonNoun})
	}
	return out, nil
}

func testChunks() []transform.Chunk {
	pid := "parent-1"
	return []transform.Chunk{
		{
			ID:          pid,
			DocType:     transform.DocTypeParent,
			PageContent: "full parent text",
			Metadata:    map[string]any{"pdf_filename": "a.pdf"},
		},
		{
			ID:          "child-1",
			DocType:     transform.DocTypeChild,
			ParentID:    &pid,
			PageContent: "small child text",
			Metadata:    map[string]any{"pdf_filename": "a.pdf"},
		},
		{
			ID:          "weird-1",
			DocType:     transform.DocType("banner"),
			PageContent: "not indexed",
		},
	}
}

func writeChunks(t *testing.T, chunks []transform.Chunk) string {
	t.Helper()

	data, err := json.Marshal(chunks)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "chunked_records.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	return path
}

func Test_Classify(t *testing.T) {
	chunks := testChunks()

	parents, vecDocs, texts, ids := classify(chunks)

	require.Len(t, parents, 1)
	assert.Equal(t, "full parent text", parents["parent-1"].PageContent)

	require.Len(t, vecDocs, 1)
	assert.Equal(t, "child-1", vecDocs[0].ID)
	assert.Equal(t, "small child text", vecDocs[0].Content)
	assert.Equal(t, "parent-1", vecDocs[0].Metadata["parent_id"])
	assert.Equal(t, "child-1", vecDocs[0].Metadata["chunk_id"])
	assert.Equal(t, "a.pdf", vecDocs[0].Metadata["pdf_filename"])

	assert.Equal(t, []string{"small child text"}, texts)
	assert.Equal(t, []string{"child-1"}, ids)

	// augmentation must not leak back into the chunk's own metadata
	assert.NotContains(t, chunks[1].Metadata, "chunk_id")
	assert.NotContains(t, chunks[1].Metadata, "parent_id")
}

func Test_LoaderRun(t *testing.T) {
	exportDir := t.TempDir()
	vectors := &fakeVectorIndexer{}
	l := NewLoader(testLogger(), exportDir, vectors, fieldTokenizer{})

	err := l.Run(context.Background(), writeChunks(t, testChunks()))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(exportDir, documentStoreFile))
	require.NoError(t, err)

	var store map[string]transform.Chunk
	require.NoError(t, json.Unmarshal(data, &store))
	require.Len(t, store, 1)
	assert.Equal(t, "full parent text", store["parent-1"].PageContent)

	assert.Equal(t, 1, vectors.calls)
	require.Len(t, vectors.docs, 1)
	assert.Equal(t, "child-1", vectors.docs[0].ID)

	idx, err := bm25.Load(filepath.Join(exportDir, lexicalIndexFile))
	require.NoError(t, err)
	assert.Equal(t, []string{"child-1"}, idx.DocIDs)
	assert.Equal(t, []int{0}, idx.Model.TopN([]string{"child"}, 1))
}

func Test_LoaderRun_VectorFailureDoesNotStopSiblings(t *testing.T) {
	exportDir := t.TempDir()
	vectors := &fakeVectorIndexer{err: errors.New("connection refused")}
	l := NewLoader(testLogger(), exportDir, vectors, fieldTokenizer{})

	err := l.Run(context.Background(), writeChunks(t, testChunks()))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(exportDir, documentStoreFile))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(exportDir, lexicalIndexFile))
	assert.NoError(t, err)
}

func Test_LoaderRun_EmptyChunkFile(t *testing.T) {
	exportDir := t.TempDir()
	vectors := &fakeVectorIndexer{}
	l := NewLoader(testLogger(), exportDir, vectors, fieldTokenizer{})

	err := l.Run(context.Background(), writeChunks(t, []transform.Chunk{}))
	require.NoError(t, err)

	// nothing to index, so the index injectors stay idle
	assert.Zero(t, vectors.calls)
	_, statErr := os.Stat(filepath.Join(exportDir, lexicalIndexFile))
	assert.True(t, os.IsNotExist(statErr))

	data, err := os.ReadFile(filepath.Join(exportDir, documentStoreFile))
	require.NoError(t, err)

	var store map[string]transform.Chunk
	require.NoError(t, json.Unmarshal(data, &store))
	assert.Empty(t, store)
}

func Test_LoaderRun_UnreadableChunkFile(t *testing.T) {
	l := NewLoader(testLogger(), t.TempDir(), &fakeVectorIndexer{}, fieldTokenizer{})

	err := l.Run(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
