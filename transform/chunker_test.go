package transform

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func Test_ChunkerSplit(t *testing.T) {
	c := NewChunker(testLogger(), ChunkerConfig{})
	rec := Record{
		"pdf_filename": "a.pdf",
		"title":        "report",
		"contents":     "# H1\n\npara one\n\n## H2\n\npara two",
	}

	chunks := c.Split(rec)

	require.Len(t, chunks, 4)

	p0, c0, p1, c1 := chunks[0], chunks[1], chunks[2], chunks[3]

	assert.Equal(t, DocTypeParent, p0.DocType)
	assert.Equal(t, DocTypeChild, c0.DocType)
	assert.Equal(t, DocTypeParent, p1.DocType)
	assert.Equal(t, DocTypeChild, c1.DocType)

	assert.Equal(t, "# H1\n\npara one", p0.PageContent)
	assert.Equal(t, "## H2\n\npara two", p1.PageContent)

	// children point at the parent directly preceding them
	assert.Nil(t, p0.ParentID)
	require.NotNil(t, c0.ParentID)
	assert.Equal(t, p0.ID, *c0.ParentID)
	require.NotNil(t, c1.ParentID)
	assert.Equal(t, p1.ID, *c1.ParentID)

	// record metadata is inherited, header labels are section-local
	assert.Equal(t, "a.pdf", p0.Metadata["pdf_filename"])
	assert.Equal(t, "report", p0.Metadata["title"])
	assert.Equal(t, "H1", p0.Metadata["h1"])
	assert.NotContains(t, p0.Metadata, "h2")
	assert.Equal(t, "H1", p1.Metadata["h1"])
	assert.Equal(t, "H2", p1.Metadata["h2"])
	assert.Equal(t, p0.Metadata, c0.Metadata)

	assert.NotContains(t, p0.Metadata, "contents")

	seen := map[string]bool{}
	for _, ch := range chunks {
		assert.False(t, seen[ch.ID], "duplicate id %s", ch.ID)
		seen[ch.ID] = true
	}
}

func Test_ChunkerSplit_Deterministic(t *testing.T) {
	c := NewChunker(testLogger(), ChunkerConfig{})
	rec := Record{"pdf_filename": "a.pdf", "contents": "# H1\n\nsome body text"}

	assert.Equal(t, c.Split(rec), c.Split(rec))
}

func Test_ChunkerSplit_ChildrenWithinParent(t *testing.T) {
	c := NewChunker(testLogger(), ChunkerConfig{
		ParentSize:    200,
		ParentOverlap: 20,
		ChildSize:     50,
		ChildOverlap:  10,
	})
	rec := Record{
		"pdf_filename": "a.pdf",
		"contents": "The quick brown fox jumps over the lazy dog. " +
			"Pack my box with five dozen liquor jugs. " +
			"How vexingly quick daft zebras jump.",
	}

	chunks := c.Split(rec)

	require.NotEmpty(t, chunks)
	require.Equal(t, DocTypeParent, chunks[0].DocType)
	parent := chunks[0]

	children := chunks[1:]
	require.NotEmpty(t, children)
	for _, ch := range children {
		assert.Equal(t, DocTypeChild, ch.DocType)
		require.NotNil(t, ch.ParentID)
		assert.Equal(t, parent.ID, *ch.ParentID)
		assert.LessOrEqual(t, len(ch.PageContent), 50)
		assert.True(t, strings.Contains(parent.PageContent, ch.PageContent),
			"child text must come from its parent")
	}
}

func Test_ChunkerSplit_SkipsEmptyRecords(t *testing.T) {
	c := NewChunker(testLogger(), ChunkerConfig{})

	assert.Nil(t, c.Split(Record{"pdf_filename": "a.pdf", "contents": ""}))
	assert.Nil(t, c.Split(Record{"pdf_filename": "a.pdf"}))
	assert.Nil(t, c.Split(Record{"pdf_filename": "a.pdf", "contents": nil}))
}

func Test_ChunkerSplit_UnknownSource(t *testing.T) {
	c := NewChunker(testLogger(), ChunkerConfig{})

	a := c.Split(Record{"contents": "body text"})
	b := c.Split(Record{"pdf_filename": "a.pdf", "contents": "body text"})

	require.NotEmpty(t, a)
	require.NotEmpty(t, b)
	// the source file participates in id derivation
	assert.NotEqual(t, a[0].ID, b[0].ID)
}
