// Package bm25 implements Okapi BM25 term-statistics ranking with binary
// persistence of the fitted model.
package bm25

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"sort"
)

// Default parameters match the common Okapi BM25 settings.
const (
	DefaultK1      = 1.5
	DefaultB       = 0.75
	DefaultEpsilon = 0.25
)

// Okapi is a BM25 model fitted over a tokenized corpus. All fields are
// exported so the model can be gob-encoded.
type Okapi struct {
	K1      float64
	B       float64
	Epsilon float64

	CorpusSize int
	AvgDocLen  float64
	DocLens    []int
	TermFreqs  []map[string]int
	IDF        map[string]float64
}

// NewOkapi fits a model over the corpus, one token list per document. Terms
// whose raw IDF is negative are floored at epsilon times the average IDF.
func NewOkapi(corpus [][]string, k1, b, epsilon float64) *Okapi {
	m := &Okapi{
		K1:         k1,
		B:          b,
		Epsilon:    epsilon,
		CorpusSize: len(corpus),
		DocLens:    make([]int, len(corpus)),
		TermFreqs:  make([]map[string]int, len(corpus)),
		IDF:        make(map[string]float64),
	}

	docFreq := make(map[string]int)
	total := 0

	for i, doc := range corpus {
		m.DocLens[i] = len(doc)
		total += len(doc)

		tf := make(map[string]int, len(doc))
		for _, term := range doc {
			tf[term]++
		}
		m.TermFreqs[i] = tf

		for term := range tf {
			docFreq[term]++
		}
	}

	if m.CorpusSize > 0 {
		m.AvgDocLen = float64(total) / float64(m.CorpusSize)
	}

	n := float64(m.CorpusSize)
	idfSum := 0.0
	var negative []string
	for term, df := range docFreq {
		idf := math.Log(n-float64(df)+0.5) - math.Log(float64(df)+0.5)
		m.IDF[term] = idf
		idfSum += idf
		if idf < 0 {
			negative = append(negative, term)
		}
	}

	if len(m.IDF) > 0 {
		floor := m.Epsilon * (idfSum / float64(len(m.IDF)))
		for _, term := range negative {
			m.IDF[term] = floor
		}
	}

	return m
}

// Scores returns the BM25 score of every corpus document against the query.
func (m *Okapi) Scores(query []string) []float64 {
	scores := make([]float64, m.CorpusSize)

	for _, term := range query {
		idf, ok := m.IDF[term]
		if !ok {
			continue
		}

		for i, tf := range m.TermFreqs {
			freq := float64(tf[term])
			if freq == 0 {
				continue
			}

			dl := float64(m.DocLens[i])
			norm := m.K1 * (1 - m.B + m.B*dl/m.AvgDocLen)
			scores[i] += idf * (freq * (m.K1 + 1)) / (freq + norm)
		}
	}

	return scores
}

// TopN returns the indices of the n highest-scoring documents, best first.
// Ties keep corpus order.
func (m *Okapi) TopN(query []string, n int) []int {
	scores := m.Scores(query)

	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})

	if n < len(idx) {
		idx = idx[:n]
	}

	return idx
}

// Index pairs a fitted model with the ordered chunk ids of its corpus:
// document i of the model corresponds to DocIDs[i].
type Index struct {
	Model  *Okapi
	DocIDs []string
}

// Save writes the index to path as a gob blob, replacing any existing file.
func (x *Index) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(x); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode index: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to close index file: %w", err)
	}

	return nil
}

// Load reads an index previously written by Save.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer f.Close()

	var x Index
	if err := gob.NewDecoder(f).Decode(&x); err != nil {
		return nil, fmt.Errorf("failed to decode index: %w", err)
	}

	return &x, nil
}
