package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogFile            string `yaml:"log"`
	DataRoot           string `yaml:"data_root"`
	ParentChunkSize    int    `yaml:"parent_chunk_size"`
	ParentChunkOverlap int    `yaml:"parent_chunk_overlap"`
	ChildChunkSize     int    `yaml:"child_chunk_size"`
	ChildChunkOverlap  int    `yaml:"child_chunk_overlap"`
	ChromaAddr         string `yaml:"chroma_addr"`
	Collection         string `yaml:"collection"`
	RequestSize        int    `yaml:"request_size"`
	WriteDebounceMs    int    `yaml:"write_debounce_ms"`
	OpenAI             *struct {
		Model  string `yaml:"model"`
		ApiKey string `yaml:"api_key"`
	} `yaml:"open_ai"`
	Gemini *struct {
		Model  string `yaml:"model"`
		ApiKey string `yaml:"api_key"`
	} `yaml:"gemini"`
}

func readConfig(cfgPath string) (*Config, error) {
	cfgFile, err := os.Open(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open config file: %w", err)
	}
	defer cfgFile.Close()

	cfg := &Config{}
	dec := yaml.NewDecoder(cfgFile)
	err = dec.Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataRoot == "" {
		c.DataRoot = "data"
	}
	if c.ParentChunkSize == 0 {
		c.ParentChunkSize = 2000
	}
	if c.ParentChunkOverlap == 0 {
		c.ParentChunkOverlap = 200
	}
	if c.ChildChunkSize == 0 {
		c.ChildChunkSize = 400
	}
	if c.ChildChunkOverlap == 0 {
		c.ChildChunkOverlap = 50
	}
	if c.ChromaAddr == "" {
		c.ChromaAddr = "http://localhost:8000"
	}
	if c.Collection == "" {
		c.Collection = "rag_collection"
	}
	if c.WriteDebounceMs == 0 {
		c.WriteDebounceMs = 500
	}
}

func (c *Config) validate() error {
	if c.ParentChunkOverlap >= c.ParentChunkSize {
		return fmt.Errorf("parent overlap %d must be below parent size %d", c.ParentChunkOverlap, c.ParentChunkSize)
	}
	if c.ChildChunkOverlap >= c.ChildChunkSize {
		return fmt.Errorf("child overlap %d must be below child size %d", c.ChildChunkOverlap, c.ChildChunkSize)
	}
	if c.ChildChunkSize > c.ParentChunkSize {
		return fmt.Errorf("child size %d must not exceed parent size %d", c.ChildChunkSize, c.ParentChunkSize)
	}

	return nil
}

// Directory layout under the data root. The markdown directory sits inside
// the import stage because converted text is an extract artifact.
func (c *Config) rawdataDir() string  { return filepath.Join(c.DataRoot, "rawdata") }
func (c *Config) metadataDir() string { return filepath.Join(c.DataRoot, "metadata") }
func (c *Config) importDir() string   { return filepath.Join(c.DataRoot, "pipeline", "import") }
func (c *Config) markdownDir() string { return filepath.Join(c.importDir(), "markdown") }
func (c *Config) modifyDir() string   { return filepath.Join(c.DataRoot, "pipeline", "modify") }
func (c *Config) exportDir() string   { return filepath.Join(c.DataRoot, "pipeline", "export") }

// ensureDirs creates the full directory tree, including the log directory
// when logging goes to a file.
func (c *Config) ensureDirs() error {
	dirs := []string{
		c.rawdataDir(), c.metadataDir(),
		c.importDir(), c.markdownDir(), c.modifyDir(), c.exportDir(),
	}
	if c.LogFile != "" {
		dirs = append(dirs, filepath.Dir(c.LogFile))
	}

	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("unable to create directory %s: %w", d, err)
		}
	}

	return nil
}
