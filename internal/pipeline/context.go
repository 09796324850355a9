package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/slexa/internal/config"
	"github.com/JonMunkholm/slexa/internal/logging"
	"github.com/JonMunkholm/slexa/internal/reference"
)

// RunContext is the read-only state shared by every stage of one run.
type RunContext struct {
	ID        uuid.UUID
	StartedAt time.Time
	Logger    *slog.Logger
	Refs      *reference.Set
}

// ReferenceLoader resolves the reference documents at the start of a run.
type ReferenceLoader interface {
	LoadReferences() (*reference.Set, error)
}

// ReferenceLoaderFunc adapts a function to ReferenceLoader.
type ReferenceLoaderFunc func() (*reference.Set, error)

func (f ReferenceLoaderFunc) LoadReferences() (*reference.Set, error) { return f() }

// FileReferences reads the documents named in cfg on every run, so edits
// take effect without a restart.
func FileReferences(cfg config.ReferenceConfig) ReferenceLoader {
	return ReferenceLoaderFunc(func() (*reference.Set, error) {
		return reference.Load(cfg)
	})
}

// StaticReferences always returns set.
func StaticReferences(set *reference.Set) ReferenceLoader {
	return ReferenceLoaderFunc(func() (*reference.Set, error) { return set, nil })
}

// NewRunContext loads the references and assigns a fresh run id. The run
// logger is derived from the one stored in ctx.
func (p *Pipeline) NewRunContext(ctx context.Context) (*RunContext, error) {
	refs, err := p.refs.LoadReferences()
	if err != nil {
		return nil, fmt.Errorf("load reference documents: %w", err)
	}
	id := uuid.New()
	return &RunContext{
		ID:        id,
		StartedAt: time.Now().UTC(),
		Logger:    logging.FromContext(ctx).With("run_id", id.String()),
		Refs:      refs,
	}, nil
}

// context attaches the run logger so collaborators log with the run id.
func (rc *RunContext) context(ctx context.Context) context.Context {
	return logging.WithLogger(ctx, rc.Logger)
}
