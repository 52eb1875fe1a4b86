package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/KasperOmsK/pipetab"
	"github.com/KasperOmsK/pipetab/internal/charset"
)

const (
	// DataDir is the directory, relative to the project root, holding both
	// the source and the destination by default.
	DataDir = "data/raw"
	// SourceName is the default source file name.
	SourceName = "AviationData.txt"
	// DestinationName is the default destination file name. The content
	// is tab-delimited despite the extension.
	DestinationName = "AviationDataCleaned.csv"
)

// Config holds all pipetab settings.
type Config struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`

	// Strict rejects lines without a trailing pipe.
	Strict bool `yaml:"strict"`

	// Encoding of the source file. Empty means UTF-8.
	Encoding     string `yaml:"encoding"`
	MaxLineBytes int    `yaml:"max_line_bytes"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
	JSON    bool `yaml:"json"`
}

// ProjectRoot returns the project root for an executable installed one
// directory below it, e.g. <root>/bin/pipetab.
func ProjectRoot(exe string) string {
	return filepath.Dir(filepath.Dir(exe))
}

// DefaultPaths returns the source and destination used when none is
// configured, derived from the executable location.
func DefaultPaths(exe string) (src, dst string) {
	dir := filepath.Join(ProjectRoot(exe), filepath.FromSlash(DataDir))
	return filepath.Join(dir, SourceName), filepath.Join(dir, DestinationName)
}

// Default returns the configuration used when nothing is configured.
func Default(exe string) Config {
	src, dst := DefaultPaths(exe)
	return Config{
		Input:        src,
		Output:       dst,
		Encoding:     "utf-8",
		MaxLineBytes: pipetab.DefaultMaxLineBytes,
	}
}

// Load reads a YAML configuration file. Unknown keys are rejected. Relative
// paths in the file are resolved against the file's directory.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	base := filepath.Dir(path)
	cfg.Input = resolve(base, cfg.Input)
	cfg.Output = resolve(base, cfg.Output)
	return cfg, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Merge returns c with every non-zero setting of o applied on top.
func (c Config) Merge(o Config) Config {
	if o.Input != "" {
		c.Input = o.Input
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.Strict {
		c.Strict = true
	}
	if o.Encoding != "" {
		c.Encoding = o.Encoding
	}
	if o.MaxLineBytes != 0 {
		c.MaxLineBytes = o.MaxLineBytes
	}
	if o.Logging.Verbose {
		c.Logging.Verbose = true
	}
	if o.Logging.JSON {
		c.Logging.JSON = true
	}
	return c
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if c.Input == "" {
		return errors.New("input path is required")
	}
	if c.Output == "" {
		return errors.New("output path is required")
	}
	if filepath.Clean(c.Input) == filepath.Clean(c.Output) {
		return fmt.Errorf("input and output are the same file: %s", c.Input)
	}
	if c.MaxLineBytes < 0 {
		return fmt.Errorf("max_line_bytes must not be negative, got %d", c.MaxLineBytes)
	}
	if _, err := charset.Lookup(c.Encoding); err != nil {
		return err
	}
	return nil
}

// Options translates the conversion settings into pipetab options.
func (c Config) Options() []pipetab.Option {
	return []pipetab.Option{
		pipetab.WithStrict(c.Strict),
		pipetab.WithEncoding(c.Encoding),
		pipetab.WithMaxLineBytes(c.MaxLineBytes),
	}
}
