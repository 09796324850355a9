package reference

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/slexa/internal/core"
)

// LoadSchema reads the expected column schema.
func LoadSchema(path string) (core.Schema, error) {
	var s core.Schema
	if err := decodeFile(path, &s); err != nil {
		return core.Schema{}, fmt.Errorf("schema: %w", err)
	}
	if err := ValidateSchema(s); err != nil {
		return core.Schema{}, fmt.Errorf("schema %s: %w", path, err)
	}
	return s, nil
}

// ValidateSchema checks that columns are named, unique and typed, and that
// at least one column is mandatory.
func ValidateSchema(s core.Schema) error {
	var errs []string
	seen := make(map[string]bool)
	for i, c := range s.Columns {
		switch {
		case strings.TrimSpace(c.Name) == "":
			errs = append(errs, fmt.Sprintf("column %d has no name", i))
		case seen[c.Name]:
			errs = append(errs, fmt.Sprintf("column %q declared twice", c.Name))
		}
		seen[c.Name] = true
		if !c.DType.Valid() {
			errs = append(errs, fmt.Sprintf("column %q has unknown dtype %q", c.Name, c.DType))
		}
	}
	if len(s.Mandatory()) == 0 {
		errs = append(errs, "no mandatory columns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid schema: %s", strings.Join(errs, "; "))
	}
	return nil
}
