// Package splitter cuts document text into fragments: first along structural
// markdown boundaries, then down to a configured character budget.
package splitter

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators is the separator priority for length-bounded splitting:
// paragraph breaks, line breaks, word breaks, and finally raw characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Recursive splits text to a character budget with overlap, preferring the
// highest-priority separator that still fits. A separator only falls through
// to the next one when a piece still exceeds the budget.
type Recursive struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewRecursive creates a splitter with the given budget and overlap. An
// overlap at or above the budget is clamped to a quarter of it.
func NewRecursive(chunkSize, chunkOverlap int) *Recursive {
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 4
	}

	return &Recursive{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   DefaultSeparators,
	}
}

// Split cuts text into fragments no longer than the budget, with consecutive
// fragments sharing up to the configured overlap. Fragments are trimmed and
// empty ones dropped.
func (s *Recursive) Split(text string) []string {
	if text == "" {
		return nil
	}

	return s.split(text, s.separators)
}

func (s *Recursive) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	rest := []string{}
	for i, c := range separators {
		if c == "" || strings.Contains(text, c) {
			sep = c
			rest = separators[i+1:]
			break
		}
	}

	var out []string
	var good []string
	for _, piece := range splitWithSeparator(text, sep) {
		if utf8.RuneCountInString(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}

		if len(good) > 0 {
			out = append(out, s.merge(good)...)
			good = nil
		}

		if len(rest) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, s.split(piece, rest)...)
		}
	}

	if len(good) > 0 {
		out = append(out, s.merge(good)...)
	}

	return out
}

// splitWithSeparator cuts text at sep, keeping each separator attached to the
// piece that follows it so the original text can be reassembled. The empty
// separator splits into single runes.
func splitWithSeparator(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, len(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}

	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	if parts[0] != "" {
		out = append(out, parts[0])
	}
	for _, p := range parts[1:] {
		out = append(out, sep+p)
	}

	return out
}

// merge packs consecutive pieces into budget-sized fragments, carrying a tail
// of up to chunkOverlap characters into the next fragment. Lengths count
// runes, not bytes, so multi-byte scripts get the full budget.
func (s *Recursive) merge(pieces []string) []string {
	var out []string
	var current []string
	total := 0

	for _, p := range pieces {
		plen := utf8.RuneCountInString(p)
		if total+plen > s.chunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
				out = append(out, doc)
			}
			for total > s.chunkOverlap || (total+plen > s.chunkSize && total > 0) {
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}

		current = append(current, p)
		total += plen
	}

	if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
		out = append(out, doc)
	}

	return out
}
