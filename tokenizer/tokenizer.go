// Package tokenizer provides morphological tokenization for lexical indexing.
// Tokens carry a grammatical category tag so callers can filter by category
// instead of by a fixed stopword list.
package tokenizer

import "unicode"

// Grammatical category tags, following the Sejong tag set used by Korean
// morphological analyzers.
const (
	TagCommonNoun = "NNG" // general noun
	TagProperNoun = "NNP" // proper noun
	TagBoundNoun  = "NNB" // bound noun / counter
	TagParticle   = "J"   // postposition (josa)
	TagForeign    = "SL"  // foreign-script token
	TagNumber     = "SN"  // number
)

// Token is one surface form with its grammatical category.
type Token struct {
	Form string
	Tag  string
}

// Tokenizer turns text into tagged tokens. Implementations must treat
// malformed input as a per-text failure, not a reason to panic.
type Tokenizer interface {
	Tokenize(text string) ([]Token, error)
}

// Rule is a dictionary-free tokenizer for mixed Korean text. It segments by
// script class, splits trailing particles off Hangul runs, tags counters that
// follow numbers as bound nouns, and recognizes proper nouns by a small set
// of institutional suffixes.
type Rule struct{}

// NewRule returns the rule-based tokenizer.
func NewRule() *Rule {
	return &Rule{}
}

// particles are postpositions split off the end of a Hangul run. Ordered
// longest-first so the longest suffix wins.
var particles = []string{
	"으로써", "으로서", "에서는", "에게서",
	"으로", "에서", "에게", "한테", "까지", "부터", "처럼", "보다", "라는",
	"은", "는", "이", "가", "을", "를", "에", "의", "와", "과", "도", "만", "로",
}

// counters are bound nouns that quantify a preceding number, e.g. 2023년.
var counters = map[string]bool{
	"년": true, "월": true, "일": true, "시": true, "분": true, "초": true,
	"개": true, "명": true, "원": true, "회": true, "번": true, "차": true,
	"건": true, "호": true, "층": true, "쪽": true,
}

// properSuffixes mark administrative or institutional names.
var properSuffixes = []string{"특별시", "광역시", "자치도", "대학교", "연구원", "공사", "청"}

type runeClass int

const (
	classOther runeClass = iota
	classHangul
	classLatin
	classDigit
)

func classify(r rune) runeClass {
	switch {
	case unicode.Is(unicode.Hangul, r):
		return classHangul
	case unicode.IsDigit(r):
		return classDigit
	case unicode.IsLetter(r):
		return classLatin
	default:
		return classOther
	}
}

// Tokenize splits text into tagged tokens. It never fails on valid UTF-8; the
// error return exists for the Tokenizer contract.
func (t *Rule) Tokenize(text string) ([]Token, error) {
	var tokens []Token
	var run []rune
	cls := classOther
	prevNumber := false

	flush := func() {
		if len(run) == 0 {
			return
		}

		switch cls {
		case classDigit:
			tokens = append(tokens, Token{Form: string(run), Tag: TagNumber})
			prevNumber = true
		case classLatin:
			tokens = append(tokens, Token{Form: string(run), Tag: TagForeign})
			prevNumber = false
		case classHangul:
			tokens = append(tokens, t.splitHangul(run, prevNumber)...)
			prevNumber = false
		}
		run = run[:0]
	}

	for _, r := range text {
		c := classify(r)
		if c != cls {
			flush()
			cls = c
		}
		if c != classOther {
			run = append(run, r)
		} else {
			// separators between runs break the number-counter adjacency
			if !unicode.IsSpace(r) {
				prevNumber = false
			}
		}
	}
	flush()

	return tokens, nil
}

// splitHangul tags one Hangul run, splitting off a trailing particle when the
// remaining stem keeps at least two syllables.
func (t *Rule) splitHangul(run []rune, afterNumber bool) []Token {
	word := string(run)

	if afterNumber && counters[word] {
		return []Token{{Form: word, Tag: TagBoundNoun}}
	}

	stem, josa := stripParticle(word)
	out := []Token{{Form: stem, Tag: nounTag(stem)}}
	if josa != "" {
		out = append(out, Token{Form: josa, Tag: TagParticle})
	}

	return out
}

func stripParticle(word string) (stem, josa string) {
	runes := []rune(word)
	for _, p := range particles {
		pr := []rune(p)
		if len(runes)-len(pr) < 2 {
			continue
		}
		if string(runes[len(runes)-len(pr):]) == p {
			return string(runes[:len(runes)-len(pr)]), p
		}
	}

	return word, ""
}

func nounTag(stem string) string {
	for _, s := range properSuffixes {
		if len(stem) > len(s) && stem[len(stem)-len(s):] == s {
			return TagProperNoun
		}
	}

	return TagCommonNoun
}
