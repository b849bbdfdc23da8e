// Package extract prepares the record array consumed by chunking: it flattens
// the source metadata to one record per PDF, converts the PDFs to text, and
// merges text and metadata into a single JSON file.
package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"
)

// Converter turns a document file into its full text.
type Converter interface {
	Convert(path string) (string, error)
}

// DocconvConverter reads PDF bodies through docconv.
type DocconvConverter struct{}

func (DocconvConverter) Convert(path string) (string, error) {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}

	return res.Body, nil
}

// Dirs is the directory layout the extractor works in.
type Dirs struct {
	Raw      string // source PDFs
	Markdown string // converted document text
	Metadata string // flattened metadata
	Import   string // merged records handed to the transform stage
}

// Extractor produces the final record array for one metadata file.
type Extractor struct {
	log       *slog.Logger
	dirs      Dirs
	converter Converter
}

// NewExtractor validates the directory layout and returns an extractor.
func NewExtractor(log *slog.Logger, dirs Dirs, conv Converter) (*Extractor, error) {
	for _, d := range []string{dirs.Raw, dirs.Markdown, dirs.Metadata, dirs.Import} {
		info, err := os.Stat(d)
		if err != nil {
			return nil, fmt.Errorf("extractor directory unavailable: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("extractor path is not a directory: %s", d)
		}
	}

	if conv == nil {
		conv = DocconvConverter{}
	}

	return &Extractor{log: log, dirs: dirs, converter: conv}, nil
}

// Run executes the extract stage: flatten, convert, merge. It returns the
// path of the merged record file.
func (e *Extractor) Run(metadataPath string) (string, error) {
	raw, err := loadRecords(metadataPath)
	if err != nil {
		return "", err
	}

	flattened := e.flatten(raw)
	name := filepath.Base(metadataPath)

	flatPath := filepath.Join(e.dirs.Metadata, "flattened_"+name)
	if err := saveRecords(flatPath, flattened); err != nil {
		return "", err
	}

	e.convertPDFs()
	e.merge(flattened)

	finalPath := filepath.Join(e.dirs.Import, "final_"+name)
	if err := saveRecords(finalPath, flattened); err != nil {
		return "", err
	}

	e.log.Info("extract stage complete", "path", finalPath, "records", len(flattened))
	return finalPath, nil
}

// flatten expands each metadata item into one record per listed PDF, moving
// the matching file name and link onto scalar fields. Items without a
// pdf_filenames list are dropped.
func (e *Extractor) flatten(raw []map[string]any) []map[string]any {
	var out []map[string]any

	for _, item := range raw {
		names, _ := item["pdf_filenames"].([]any)
		links, _ := item["pdf_files"].([]any)
		if len(names) == 0 {
			continue
		}

		for i, n := range names {
			rec := make(map[string]any, len(item))
			for k, v := range item {
				if k != "pdf_filenames" && k != "pdf_files" {
					rec[k] = v
				}
			}

			rec["pdf_filename"] = n
			if i < len(links) {
				rec["pdf_file"] = links[i]
			} else {
				rec["pdf_file"] = nil
			}

			out = append(out, rec)
		}
	}

	e.log.Info("metadata flattened", "records", len(out))
	return out
}

// convertPDFs writes the text of every raw PDF to the markdown directory.
// Already-converted files are skipped; a failed conversion is logged and the
// loop continues with the next file.
func (e *Extractor) convertPDFs() {
	files, err := filepath.Glob(filepath.Join(e.dirs.Raw, "*.pdf"))
	if err != nil || len(files) == 0 {
		e.log.Warn("no PDF files to convert", "dir", e.dirs.Raw)
		return
	}

	e.log.Info("converting PDF files", "count", len(files))

	for i, path := range files {
		outPath := filepath.Join(e.dirs.Markdown, stem(path)+".md")
		if _, err := os.Stat(outPath); err == nil {
			e.log.Debug("already converted, skipping", "file", filepath.Base(path), "index", i+1)
			continue
		}

		text, err := e.converter.Convert(path)
		if err != nil {
			e.log.Error("document conversion failed", "file", filepath.Base(path), "error", err)
			continue
		}

		if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
			e.log.Error("unable to save converted text", "file", filepath.Base(path), "error", err)
			continue
		}

		e.log.Debug("converted", "file", filepath.Base(path), "index", i+1, "total", len(files))
	}
}

// merge attaches each record's converted text as its contents field, nil when
// no converted file exists.
func (e *Extractor) merge(records []map[string]any) {
	for _, rec := range records {
		name, _ := rec["pdf_filename"].(string)
		if name == "" {
			rec["contents"] = nil
			continue
		}

		data, err := os.ReadFile(filepath.Join(e.dirs.Markdown, stem(name)+".md"))
		if err != nil {
			rec["contents"] = nil
			e.log.Debug("no converted text for record", "file", name)
			continue
		}

		rec["contents"] = string(data)
	}
}

func loadRecords(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read metadata file: %w", err)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unable to parse metadata file: %w", err)
	}

	return records, nil
}

func saveRecords(path string, records []map[string]any) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("unable to serialize records: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("unable to save records: %w", err)
	}

	return nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
