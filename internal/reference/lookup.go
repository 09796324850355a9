package reference

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/slexa/internal/core"
)

// LoadMaterials reads the grade to material family table. Keys are matched
// case-insensitively, so both grade_suffix and Grade_Suffix are accepted.
func LoadMaterials(path string) (*core.MaterialTable, error) {
	var rows []yaml.Node
	if err := decodeFile(path, &rows); err != nil {
		return nil, fmt.Errorf("material table: %w", err)
	}

	entries := make([]core.MaterialEntry, 0, len(rows))
	for i := range rows {
		m, err := stringMap(&rows[i])
		if err != nil {
			return nil, fmt.Errorf("material table %s: %w", path, err)
		}
		m = lowerKeys(m)
		e := core.MaterialEntry{
			GradeSuffix: m["grade_suffix"],
			Grade:       m["grade"],
			Suffix:      m["suffix"],
			Material:    m["material"],
		}
		if e.Material == "" {
			return nil, fmt.Errorf("material table %s: entry %d has no material", path, i)
		}
		entries = append(entries, e)
	}
	return core.NewMaterialTable(entries), nil
}

// categoryDoc is the mapping form of the category matrix.
type categoryDoc struct {
	Matrix           map[string]yaml.Node `yaml:"matrix"`
	FinishCategories yaml.Node            `yaml:"finish_categories"`
}

// Column names of the record form exported from the category spreadsheet.
const (
	recordFormKey        = "Forms"
	recordFinishKey      = "Finish Long"
	recordFinishCategory = "Carbon Steel Flat"
)

// LoadCategories reads the form x material category matrix. Two layouts are
// accepted: a mapping with matrix and finish_categories keys, or the list of
// spreadsheet records where each record with a Forms value is a matrix row
// and each record with a Finish Long value maps that finish to its
// Carbon Steel Flat category.
func LoadCategories(path string) (*core.CategoryMatrix, error) {
	var root yaml.Node
	if err := decodeFile(path, &root); err != nil {
		return nil, fmt.Errorf("category matrix: %w", err)
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
		doc = doc.Content[0]
	}

	var (
		cm  *core.CategoryMatrix
		err error
	)
	switch doc.Kind {
	case yaml.MappingNode:
		cm, err = categoriesFromMatrix(doc)
	case yaml.SequenceNode:
		cm, err = categoriesFromRecords(doc)
	default:
		err = fmt.Errorf("line %d: expected a mapping or a list", doc.Line)
	}
	if err != nil {
		return nil, fmt.Errorf("category matrix %s: %w", path, err)
	}
	return cm, nil
}

func categoriesFromMatrix(node *yaml.Node) (*core.CategoryMatrix, error) {
	var doc categoryDoc
	if err := node.Decode(&doc); err != nil {
		return nil, err
	}
	cells := make(map[string]map[string]string, len(doc.Matrix))
	for form, row := range doc.Matrix {
		m, err := stringMap(&row)
		if err != nil {
			return nil, fmt.Errorf("form %q: %w", form, err)
		}
		cells[form] = m
	}
	byFinish, err := stringMap(&doc.FinishCategories)
	if err != nil {
		return nil, fmt.Errorf("finish_categories: %w", err)
	}
	return core.NewCategoryMatrix(cells, byFinish), nil
}

func categoriesFromRecords(node *yaml.Node) (*core.CategoryMatrix, error) {
	cells := make(map[string]map[string]string)
	byFinish := make(map[string]string)
	for _, rec := range node.Content {
		m, err := stringMap(rec)
		if err != nil {
			return nil, err
		}
		if finish := m[recordFinishKey]; finish != "" {
			if cat := m[recordFinishCategory]; cat != "" {
				byFinish[finish] = cat
			}
		}
		form := m[recordFormKey]
		if form == "" {
			continue
		}
		if _, ok := cells[form]; ok {
			continue
		}
		row := make(map[string]string, len(m))
		for k, v := range m {
			if k != recordFormKey && k != recordFinishKey {
				row[k] = v
			}
		}
		cells[form] = row
	}
	return core.NewCategoryMatrix(cells, byFinish), nil
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}
