package splitter

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// HeaderRule maps a markdown heading marker to the metadata label recorded on
// fragments under that heading.
type HeaderRule struct {
	Marker string
	Label  string
}

// DefaultHeaderRules covers the three heading levels the chunker preserves
// context for.
var DefaultHeaderRules = []HeaderRule{
	{Marker: "#", Label: "h1"},
	{Marker: "##", Label: "h2"},
	{Marker: "###", Label: "h3"},
}

// Fragment is one structural section of a document: its raw text (heading
// line included) and the heading labels active at that point.
type Fragment struct {
	Content  string
	Metadata map[string]string
}

// Markdown splits text into sections at the headings named by its rules.
// Heading detection runs through the markdown AST, so heading-like lines
// inside fenced code blocks are not treated as boundaries.
type Markdown struct {
	labels map[int]string // heading level -> metadata label
}

// NewMarkdown creates a structural splitter for the given header rules, or
// DefaultHeaderRules when none are given.
func NewMarkdown(rules ...HeaderRule) *Markdown {
	if len(rules) == 0 {
		rules = DefaultHeaderRules
	}

	labels := make(map[int]string, len(rules))
	for _, r := range rules {
		labels[len(r.Marker)] = r.Label
	}

	return &Markdown{labels: labels}
}

type headingMark struct {
	start int
	level int
	title string
}

// Split cuts text at every heading covered by the rules. Each fragment keeps
// the heading line in its content and carries the labels of all enclosing
// headings; a deeper label is cleared when a shallower heading starts a new
// section. Text before the first heading yields an unlabeled fragment.
// Whitespace-only sections are dropped.
func (m *Markdown) Split(text string) []Fragment {
	if text == "" {
		return nil
	}

	src := []byte(text)
	heads := m.collectHeadings(src)

	active := make(map[string]string)
	var frags []Fragment
	cur := 0

	emit := func(end int) {
		content := strings.TrimSpace(string(src[cur:end]))
		if content == "" {
			return
		}

		meta := make(map[string]string, len(active))
		for k, v := range active {
			meta[k] = v
		}
		frags = append(frags, Fragment{Content: content, Metadata: meta})
	}

	for _, h := range heads {
		emit(h.start)
		cur = h.start

		for lvl, label := range m.labels {
			if lvl >= h.level {
				delete(active, label)
			}
		}
		active[m.labels[h.level]] = h.title
	}
	emit(len(src))

	return frags
}

// collectHeadings walks the top-level AST nodes and records the source offset,
// level and title of every heading that has a configured rule.
func (m *Markdown) collectHeadings(src []byte) []headingMark {
	root := goldmark.New().Parser().Parse(gmtext.NewReader(src))

	var heads []headingMark
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		if _, ok := m.labels[h.Level]; !ok {
			continue
		}

		var title strings.Builder
		for i := 0; i < h.Lines().Len(); i++ {
			seg := h.Lines().At(i)
			title.Write(seg.Value(src))
		}

		heads = append(heads, headingMark{
			start: lineStart(src, h.Lines().At(0).Start),
			level: h.Level,
			title: strings.TrimSpace(title.String()),
		})
	}

	return heads
}

// lineStart returns the offset of the first byte of the line containing off.
func lineStart(src []byte, off int) int {
	return bytes.LastIndexByte(src[:off], '\n') + 1
}
