package splitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MarkdownSplit(t *testing.T) {
	out := NewMarkdown().Split("# H1\n\npara one\n\n## H2\n\npara two")

	require.Len(t, out, 2)
	assert.Equal(t, "# H1\n\npara one", out[0].Content)
	assert.Equal(t, map[string]string{"h1": "H1"}, out[0].Metadata)
	assert.Equal(t, "## H2\n\npara two", out[1].Content)
	assert.Equal(t, map[string]string{"h1": "H1", "h2": "H2"}, out[1].Metadata)
}

func Test_MarkdownSplit_Preamble(t *testing.T) {
	out := NewMarkdown().Split("intro\n\n# A\nbody")

	require.Len(t, out, 2)
	assert.Equal(t, "intro", out[0].Content)
	assert.Empty(t, out[0].Metadata)
	assert.Equal(t, "# A\nbody", out[1].Content)
	assert.Equal(t, map[string]string{"h1": "A"}, out[1].Metadata)
}

func Test_MarkdownSplit_DeeperLabelsCleared(t *testing.T) {
	out := NewMarkdown().Split("# A\n## B\ntext\n# C\ntail")

	require.Len(t, out, 3)
	assert.Equal(t, map[string]string{"h1": "A"}, out[0].Metadata)
	assert.Equal(t, map[string]string{"h1": "A", "h2": "B"}, out[1].Metadata)
	// a new h1 drops the stale h2 label
	assert.Equal(t, map[string]string{"h1": "C"}, out[2].Metadata)
	assert.Equal(t, "# C\ntail", out[2].Content)
}

func Test_MarkdownSplit_FencedCodeIsNotABoundary(t *testing.T) {
	text := "# A\n\n```\n# not a heading\n```\n\ntail"

	out := NewMarkdown().Split(text)

	require.Len(t, out, 1)
	assert.Equal(t, text, out[0].Content)
	assert.Equal(t, map[string]string{"h1": "A"}, out[0].Metadata)
}

func Test_MarkdownSplit_UnruledLevelIgnored(t *testing.T) {
	out := NewMarkdown().Split("# A\n\n#### deep\ntext")

	require.Len(t, out, 1)
	assert.Equal(t, map[string]string{"h1": "A"}, out[0].Metadata)
}

func Test_MarkdownSplit_NoHeadings(t *testing.T) {
	out := NewMarkdown().Split("plain text")

	require.Len(t, out, 1)
	assert.Equal(t, "plain text", out[0].Content)
	assert.Empty(t, out[0].Metadata)
}

func Test_MarkdownSplit_Empty(t *testing.T) {
	assert.Nil(t, NewMarkdown().Split(""))
}
