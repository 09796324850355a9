package publish

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/slexa/internal/config"
	"github.com/JonMunkholm/slexa/internal/core"
)

// Publisher sends one processed table to its destination and returns a URL
// for it.
type Publisher interface {
	Publish(ctx context.Context, fileName string, t *core.Table) (string, error)
}

// FilePublisher writes tables into a directory as xlsx or csv.
type FilePublisher struct {
	dir    string
	format string
	layout *Layout
}

// NewFilePublisher creates the output directory if needed.
func NewFilePublisher(dir, format string, layout *Layout) (*FilePublisher, error) {
	switch format {
	case config.PublishXLSX, config.PublishCSV:
	default:
		return nil, fmt.Errorf("publish: unknown format %q", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("publish: create %s: %w", dir, err)
	}
	return &FilePublisher{dir: dir, format: format, layout: layout}, nil
}

// New returns the publisher described by cfg, or nil when publishing is
// disabled.
func New(cfg config.PublishConfig) (Publisher, error) {
	if cfg.Dir == "" {
		return nil, nil
	}
	var layout *Layout
	if cfg.LayoutPath != "" {
		l, err := LoadLayout(cfg.LayoutPath)
		if err != nil {
			return nil, err
		}
		layout = l
	}
	p, err := NewFilePublisher(cfg.Dir, cfg.Format, layout)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// OutputName is the published file name for a source file. The source
// extension stays in the name, so stock.csv and stock.xlsx publish to
// stock_csv_processed and stock_xlsx_processed.
func OutputName(fileName, format string) string {
	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	if ext != "" {
		base += "_" + strings.ToLower(strings.TrimPrefix(ext, "."))
	}
	return base + "_processed." + format
}

// Publish implements Publisher. The file is written under a temporary name
// and renamed into place.
func (p *FilePublisher) Publish(ctx context.Context, fileName string, t *core.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(p.dir, OutputName(fileName, p.format))
	out := p.layout.Apply(t)

	if err := p.write(path, out); err != nil {
		return "", fmt.Errorf("publish %s: %w", fileName, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

func (p *FilePublisher) write(path string, t *core.Table) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	var write func(io.Writer, *core.Table) error = WriteXLSX
	if p.format == config.PublishCSV {
		write = WriteCSV
	}
	if err := write(f, t); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
