package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	gemini "github.com/amikos-tech/chroma-go/pkg/embeddings/gemini"
	openai "github.com/amikos-tech/chroma-go/pkg/embeddings/openai"

	"github.com/haein-lab/rag-ingest/extract"
	"github.com/haein-lab/rag-ingest/load"
	"github.com/haein-lab/rag-ingest/logging"
	"github.com/haein-lab/rag-ingest/tokenizer"
	"github.com/haein-lab/rag-ingest/transform"
)

func createEmbeddingFunction(cfg *Config) (embeddings.EmbeddingFunction, error) {
	if cfg.OpenAI != nil {
		ef, err := openai.NewOpenAIEmbeddingFunction(
			cfg.OpenAI.ApiKey,
			openai.WithModel(openai.EmbeddingModel(cfg.OpenAI.Model)))
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI embedding function: %w", err)
		}

		return ef, nil
	}

	if cfg.Gemini != nil {
		ef, err := gemini.NewGeminiEmbeddingFunction(
			gemini.WithAPIKey(cfg.Gemini.ApiKey),
			gemini.WithDefaultModel(embeddings.EmbeddingModel(cfg.Gemini.Model)))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini embedding function: %w", err)
		}

		return ef, nil
	}

	return nil, errors.New("invalid embeddings provider configuration")
}

func main() {
	cfgPath := flag.String("config", "cfg/config.yaml", "Configuration file for the pipeline")
	input := flag.String("input", "", "Metadata JSON file describing the source documents")
	watch := flag.Bool("watch", false, "Keep running and re-execute when the input file changes")
	flag.Parse()

	if *input == "" {
		log.Fatal("missing required -input flag")
	}

	cfg, err := readConfig(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	if err := cfg.ensureDirs(); err != nil {
		log.Fatal(err)
	}

	logger, closeLog, err := logging.New(cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to set up logging: %s", err)
	}
	defer closeLog()

	// Collaborators that cannot be constructed abort the run before any
	// chunking happens.
	ef, err := createEmbeddingFunction(cfg)
	if err != nil {
		log.Fatal(err)
	}

	extractor, err := extract.NewExtractor(logger, extract.Dirs{
		Raw:      cfg.rawdataDir(),
		Markdown: cfg.markdownDir(),
		Metadata: cfg.metadataDir(),
		Import:   cfg.importDir(),
	}, nil)
	if err != nil {
		log.Fatal(err)
	}

	chunker := transform.NewChunker(logger, transform.ChunkerConfig{
		ParentSize:    cfg.ParentChunkSize,
		ParentOverlap: cfg.ParentChunkOverlap,
		ChildSize:     cfg.ChildChunkSize,
		ChildOverlap:  cfg.ChildChunkOverlap,
	})

	indexer := load.NewChromaIndexer(logger, load.ChromaConfig{
		BaseURL:     cfg.ChromaAddr,
		Collection:  cfg.Collection,
		RequestSize: cfg.RequestSize,
	}, ef)

	pipeline := &Pipeline{
		log:         logger,
		extractor:   extractor,
		transformer: transform.NewTransformer(logger, cfg.modifyDir(), chunker),
		loader:      load.NewLoader(logger, cfg.exportDir(), indexer, tokenizer.NewRule()),
	}

	ctx := context.Background()

	if err := pipeline.Execute(ctx, *input); err != nil {
		if !*watch {
			log.Fatal(err)
		}
		// in watch mode a failed run is retried on the next change
		log.Println(err)
	}

	if *watch {
		debounce := time.Duration(cfg.WriteDebounceMs) * time.Millisecond
		if err := watchAndRun(ctx, logger, pipeline, *input, debounce); err != nil {
			log.Fatal(err)
		}
	}
}
