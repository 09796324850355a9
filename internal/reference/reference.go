// Package reference loads the read-only data a run is checked against: the
// column schema, the finish table, the material and category lookups, the
// run document and the active grade list.
//
// Documents are YAML. Because YAML is a superset of JSON, the JSON files
// produced by older tooling load unchanged.
package reference

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/slexa/internal/config"
	"github.com/JonMunkholm/slexa/internal/core"
)

// Set is every reference document a run needs, resolved once per run.
// Materials and Categories are nil when their documents are absent.
type Set struct {
	Schema     core.Schema
	Finishes   *core.FinishResolver
	Materials  *core.MaterialTable
	Categories *core.CategoryMatrix
	Run        RunDocument
}

// Load reads every document named in cfg. The schema and finish table are
// required; a missing material table, category matrix or run document is
// logged and surfaces later as configuration issues on each file.
func Load(cfg config.ReferenceConfig) (*Set, error) {
	schema, err := LoadSchema(cfg.SchemaPath)
	if err != nil {
		return nil, err
	}
	finishes, err := LoadFinishes(cfg.FinishPath)
	if err != nil {
		return nil, err
	}

	set := &Set{Schema: schema, Finishes: core.NewFinishResolver(finishes)}

	if set.Materials, err = LoadMaterials(cfg.MaterialTablePath); optional(err, "material table", cfg.MaterialTablePath) != nil {
		return nil, err
	}
	if set.Categories, err = LoadCategories(cfg.CategoryMatrixPath); optional(err, "category matrix", cfg.CategoryMatrixPath) != nil {
		return nil, err
	}
	if set.Run, err = LoadRunDocument(cfg.RunConfigPath); optional(err, "run document", cfg.RunConfigPath) != nil {
		return nil, err
	}
	return set, nil
}

// AugmentConfig combines the lookups with run settings for the augmenter.
func (s *Set) AugmentConfig(formWidthThreshold float64, tr core.Translator) core.AugmentConfig {
	return core.AugmentConfig{
		FormWidthThreshold: formWidthThreshold,
		Locations:          s.Run.Locations,
		Template:           s.Run.Template,
		Materials:          s.Materials,
		Categories:         s.Categories,
		Translator:         tr,
	}
}

// optional swallows not-exist errors for documents the run can do without.
func optional(err error, what, path string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("reference document not found", "document", what, "path", path)
		return nil
	}
	return err
}

// decodeFile reads path and decodes it into out.
func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// scalar decodes any YAML scalar as its literal text, so a finish id written
// as 7 and one written as "7" are the same key.
type scalar string

func (s *scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", node.Line)
	}
	*s = scalar(node.Value)
	return nil
}

// stringMap reads a mapping of scalars. An absent node yields nil.
func stringMap(node *yaml.Node) (map[string]string, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	out := make(map[string]string, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: expected scalar key and value", k.Line)
		}
		if v.ShortTag() == "!!null" {
			continue
		}
		out[k.Value] = v.Value
	}
	return out, nil
}
