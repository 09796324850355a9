// Package staging persists the intermediate state of a run on disk.
//
// The staging root holds four areas: raw input files, interim artifacts
// written by extract, processed artifacts written by transform, and run
// reports written by load. Artifacts are JSON encodings of core.FileResult
// named after their source file.
package staging

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JonMunkholm/slexa/internal/core"
)

// Area is one directory under the staging root.
type Area string

const (
	AreaRaw       Area = "raw"
	AreaInterim   Area = "interim"
	AreaProcessed Area = "processed"
	AreaReports   Area = "reports"
)

var areas = []Area{AreaRaw, AreaInterim, AreaProcessed, AreaReports}

const jsonExt = ".json"

var (
	// ErrArtifactNotFound is returned when an artifact or report does not exist.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrInvalidName rejects names that are not plain file names.
	ErrInvalidName = errors.New("invalid artifact name")
)

// Store reads and writes the staging areas under one root directory.
type Store struct {
	root string
}

// NewStore creates any missing area directories under root.
func NewStore(root string) (*Store, error) {
	for _, a := range areas {
		if err := os.MkdirAll(filepath.Join(root, string(a)), 0o755); err != nil {
			return nil, fmt.Errorf("create staging area %s: %w", a, err)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the staging root directory.
func (s *Store) Root() string { return s.root }

// Path returns the location of name inside area.
func (s *Store) Path(area Area, name string) string {
	return filepath.Join(s.root, string(area), name)
}

// ListRaw returns the raw input files whose extension is in exts, sorted by
// name. Extensions are compared case-insensitively.
func (s *Store) ListRaw(exts []string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, string(AreaRaw)))
	if err != nil {
		return nil, fmt.Errorf("list raw files: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == want {
				names = append(names, e.Name())
				break
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// WriteArtifact stores a file result in area, replacing any previous one.
func (s *Store) WriteArtifact(area Area, res *core.FileResult) error {
	if err := validName(res.FileName); err != nil {
		return err
	}
	return s.writeJSON(s.Path(area, res.FileName+jsonExt), res)
}

// ReadArtifact loads the artifact for fileName from area.
func (s *Store) ReadArtifact(area Area, fileName string) (*core.FileResult, error) {
	if err := validName(fileName); err != nil {
		return nil, err
	}
	var res core.FileResult
	if err := s.readJSON(s.Path(area, fileName+jsonExt), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListArtifacts returns the source file names that have an artifact in
// area, sorted.
func (s *Store) ListArtifacts(area Area) ([]string, error) {
	return s.listJSON(area)
}

// RemoveArtifact deletes the artifact for fileName. Removing an absent
// artifact is not an error.
func (s *Store) RemoveArtifact(area Area, fileName string) error {
	if err := validName(fileName); err != nil {
		return err
	}
	err := os.Remove(s.Path(area, fileName+jsonExt))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove artifact %s/%s: %w", area, fileName, err)
	}
	return nil
}

// WriteReport stores a run report under its run id.
func (s *Store) WriteReport(runID string, report any) error {
	if err := validName(runID); err != nil {
		return err
	}
	return s.writeJSON(s.Path(AreaReports, runID+jsonExt), report)
}

// ReadReport decodes the report for runID into out.
func (s *Store) ReadReport(runID string, out any) error {
	if err := validName(runID); err != nil {
		return err
	}
	return s.readJSON(s.Path(AreaReports, runID+jsonExt), out)
}

// ListReports returns the run ids that have a report, sorted.
func (s *Store) ListReports() ([]string, error) {
	return s.listJSON(AreaReports)
}

// writeJSON writes to a temp file and renames it into place, so a crash
// never leaves a half-written artifact behind.
func (s *Store) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Store) readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrArtifactNotFound, filepath.Base(path))
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Store) listJSON(area Area) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, string(area)))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", area, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), jsonExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), jsonExt))
	}
	sort.Strings(names)
	return names, nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
