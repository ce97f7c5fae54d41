package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/docidx/docidx/internal/document"
	"github.com/docidx/docidx/internal/indexdef"
)

// FieldSpec is the on-disk, human-editable shape of one declared field —
// indexdef.Definition generalized into something a config file or a CLI
// flag can describe.
type FieldSpec struct {
	Name     string `yaml:"name"`
	Analyzer string `yaml:"analyzer,omitempty"`
	Mode     string `yaml:"mode"` // "analyzed", "not_analyzed", or "default"
}

// Schema is what Create persists under an index's data directory so a
// later process can reopen the same Definition.
type Schema struct {
	Name            string      `yaml:"name"`
	IsTemp          bool        `yaml:"is_temp"`
	IsMapReduce     bool        `yaml:"is_map_reduce"`
	DefaultAnalyzer string      `yaml:"default_analyzer,omitempty"`
	Fields          []FieldSpec `yaml:"fields"`
}

// Definition builds the indexdef.Definition the rest of the write and
// query path consumes.
func (s Schema) Definition() *indexdef.Definition {
	def := indexdef.New(s.Name)
	def.IsTemp = s.IsTemp
	def.IsMapReduce = s.IsMapReduce
	for _, f := range s.Fields {
		def.DeclareField(f.Name, f.Analyzer, parseMode(f.Mode))
	}
	return def
}

func parseMode(s string) document.IndexingMode {
	switch s {
	case "analyzed":
		return document.IndexingModeAnalyzed
	case "not_analyzed":
		return document.IndexingModeNotAnalyzed
	default:
		return document.IndexingModeDefault
	}
}

func schemaPath(indexDir string) string {
	return filepath.Join(indexDir, "schema.yaml")
}

func writeSchema(indexDir string, s Schema) error {
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling schema: %w", err)
	}
	return os.WriteFile(schemaPath(indexDir), data, 0o644)
}

func readSchema(indexDir string) (Schema, error) {
	data, err := os.ReadFile(schemaPath(indexDir))
	if err != nil {
		return Schema{}, fmt.Errorf("reading schema for %q: %w", filepath.Base(indexDir), err)
	}
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schema{}, fmt.Errorf("parsing schema: %w", err)
	}
	return s, nil
}
