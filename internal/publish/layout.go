// Package publish hands processed tables to their destination. A layout
// reorders and renames the columns, then a publisher writes the table and
// returns where it went.
package publish

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/slexa/internal/core"
)

// LayoutColumn names one output column and the table column it reads.
type LayoutColumn struct {
	Name   string `yaml:"name"`
	Source string `yaml:"map"`
}

// Layout is the ordered list of output columns.
type Layout struct {
	Columns []LayoutColumn `yaml:"columns"`
}

// LoadLayout reads a layout document. Both a bare list of columns and a
// mapping with a columns key are accepted.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}

	var l Layout
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse layout %s: %w", path, err)
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		err = node.Content[0].Decode(&l.Columns)
	} else {
		err = node.Decode(&l)
	}
	if err != nil {
		return nil, fmt.Errorf("parse layout %s: %w", path, err)
	}

	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return &l, nil
}

// Validate checks that every column has a name and a source and that output
// names are unique.
func (l *Layout) Validate() error {
	if len(l.Columns) == 0 {
		return errors.New("no columns")
	}
	seen := make(map[string]bool, len(l.Columns))
	for i, c := range l.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" || strings.TrimSpace(c.Source) == "" {
			return fmt.Errorf("column %d: name and map are required", i+1)
		}
		if seen[name] {
			return fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = true
	}
	return nil
}

// Apply returns a copy of t with the layout's columns in layout order.
// Sources the table does not have are written as missing. A nil layout
// returns t unchanged.
func (l *Layout) Apply(t *core.Table) *core.Table {
	if l == nil {
		return t
	}
	names := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		names[i] = c.Name
	}
	out := core.NewTable(names...)
	for _, r := range t.Rows {
		nr := core.NewRow(r.Line)
		for _, c := range l.Columns {
			nr.Set(c.Name, r.Get(c.Source))
		}
		out.Append(nr)
	}
	return out
}
