package transform

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Transformer runs the chunker across a record file and persists the result
// incrementally, so the full chunk set never sits in memory at once.
type Transformer struct {
	log     *slog.Logger
	outDir  string
	chunker *Chunker
}

// NewTransformer creates a transformer writing its chunk file into outDir.
func NewTransformer(log *slog.Logger, outDir string, chunker *Chunker) *Transformer {
	return &Transformer{
		log:     log,
		outDir:  outDir,
		chunker: chunker,
	}
}

// Run chunks every record in the input file and streams the result to
// chunked_<name>.json in the output directory. It returns the output path and
// the number of chunks written. A failure mid-write removes the partial file
// and propagates.
func (t *Transformer) Run(inputPath string) (string, int, error) {
	f, err := os.Open(inputPath)
	if err != nil {
		return "", 0, fmt.Errorf("unable to open record file: %w", err)
	}
	defer f.Close()

	name := filepath.Base(inputPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	outPath := filepath.Join(t.outDir, "chunked_"+stem+".json")

	count, err := WriteChunks(outPath, t.Stream(f))
	if err != nil {
		return "", 0, err
	}

	t.log.Info("transformation complete", "path", outPath, "chunks", count)
	return outPath, count, nil
}

// Stream lazily decodes the record array from r and yields each record's
// chunks in order. The producer advances one record at a time as the consumer
// pulls, so memory stays bounded by a single record's chunks. A decode
// failure is yielded once and ends the sequence.
func (t *Transformer) Stream(r io.Reader) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		dec := json.NewDecoder(r)

		if _, err := dec.Token(); err != nil {
			yield(Chunk{}, fmt.Errorf("unable to read record array: %w", err))
			return
		}

		for dec.More() {
			var rec Record
			if err := dec.Decode(&rec); err != nil {
				yield(Chunk{}, fmt.Errorf("unable to decode record: %w", err))
				return
			}

			for _, ch := range t.chunker.Split(rec) {
				if !yield(ch, nil) {
					return
				}
			}
		}
	}
}

// WriteChunks serializes the chunk sequence to path as a JSON array, written
// incrementally element by element. On any failure the partially written file
// is deleted so no corrupt artifact is left behind.
func WriteChunks(path string, chunks iter.Seq2[Chunk, error]) (count int, err error) {
	f, cerr := os.Create(path)
	if cerr != nil {
		return 0, fmt.Errorf("unable to create chunk file: %w", cerr)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(path)
		}
	}()

	w := bufio.NewWriter(f)
	if _, err = w.WriteString("[\n"); err != nil {
		return 0, err
	}

	for ch, serr := range chunks {
		if serr != nil {
			err = serr
			return 0, err
		}

		data, merr := json.MarshalIndent(ch, "", "    ")
		if merr != nil {
			err = fmt.Errorf("unable to serialize chunk %s: %w", ch.ID, merr)
			return 0, err
		}

		if count > 0 {
			if _, err = w.WriteString(",\n"); err != nil {
				return 0, err
			}
		}
		if _, err = w.Write(data); err != nil {
			return 0, err
		}

		count++
	}

	if _, err = w.WriteString("\n]"); err != nil {
		return 0, err
	}
	if err = w.Flush(); err != nil {
		return 0, fmt.Errorf("unable to flush chunk file: %w", err)
	}
	if err = f.Close(); err != nil {
		return 0, fmt.Errorf("unable to close chunk file: %w", err)
	}

	return count, nil
}
