// Package pipeline runs the three stages that carry raw spreadsheets to
// published catalog tables.
//
// Extract loads every raw file and reconciles its headers with the schema.
// Transform coerces, prunes, normalizes and aggregates the rows, then
// resolves grades and finishes and derives the catalog fields. Load hands
// the results to the publisher and writes the run report. Each stage reads
// its input from, and writes its output to, the staging store, so stages can
// run separately.
//
// Execution is strictly sequential and files are processed in name order.
// A file that fails keeps its status and error log through every later
// stage, so callers always get one result per input file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/slexa/internal/config"
	"github.com/JonMunkholm/slexa/internal/core"
	"github.com/JonMunkholm/slexa/internal/loader"
	"github.com/JonMunkholm/slexa/internal/logging"
	"github.com/JonMunkholm/slexa/internal/metrics"
	"github.com/JonMunkholm/slexa/internal/publish"
	"github.com/JonMunkholm/slexa/internal/reference"
	"github.com/JonMunkholm/slexa/internal/staging"
	"github.com/JonMunkholm/slexa/internal/translate"
)

// Stage names, used in logs, metrics and the run guard.
const (
	StageExtract   = "extract"
	StageTransform = "transform"
	StageLoad      = "load"
	StageRun       = "run"
)

// Options holds the stage thresholds.
type Options struct {
	ColumnMatchThreshold int
	RowMissingThreshold  float64
	FormWidthThreshold   float64
	DimensionColumns     []string
	Loader               loader.Options
}

// DefaultOptions returns the thresholds the engine was tuned with.
func DefaultOptions() Options {
	return Options{
		ColumnMatchThreshold: core.DefaultColumnMatchThreshold,
		RowMissingThreshold:  core.DefaultRowMissingThreshold,
		FormWidthThreshold:   core.DefaultFormWidthThreshold,
		DimensionColumns:     core.DimensionColumns,
	}
}

// OptionsFromConfig builds Options from the environment configuration.
func OptionsFromConfig(cfg config.PipelineConfig) Options {
	opts := DefaultOptions()
	opts.ColumnMatchThreshold = cfg.ColumnMatchThreshold
	opts.RowMissingThreshold = cfg.RowMissingThreshold
	opts.FormWidthThreshold = cfg.FormWidthThreshold
	opts.Loader.Sheet = cfg.ExcelSheet
	return opts
}

// Deps are the collaborators a pipeline works with. Store, References and
// Grades are required; the rest may be nil.
type Deps struct {
	Store      *staging.Store
	References ReferenceLoader
	Grades     reference.GradeSource
	Translator core.Translator
	Publisher  publish.Publisher
	Metrics    *metrics.Metrics
}

// Pipeline orchestrates the stages over one staging store.
type Pipeline struct {
	store      *staging.Store
	refs       ReferenceLoader
	grades     reference.GradeSource
	translator core.Translator
	publisher  publish.Publisher
	metrics    *metrics.Metrics
	guard      *RunGuard
	opts       Options
}

// New creates a pipeline.
func New(deps Deps, opts Options) *Pipeline {
	tr := deps.Translator
	if tr == nil {
		tr = translate.Passthrough{}
	}
	if len(opts.DimensionColumns) == 0 {
		opts.DimensionColumns = core.DimensionColumns
	}
	return &Pipeline{
		store:      deps.Store,
		refs:       deps.References,
		grades:     deps.Grades,
		translator: tr,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
		guard:      NewRunGuard(),
		opts:       opts,
	}
}

// Guard exposes the run guard so servers can report on it and drain it.
func (p *Pipeline) Guard() *RunGuard { return p.guard }

// Run executes extract, transform and load under a fresh run context and
// returns the run report. It fails with ErrRunInProgress if another run is
// active.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	rc, err := p.NewRunContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.guard.TryAcquire(rc.ID.String(), StageRun); err != nil {
		return nil, err
	}
	defer p.guard.Release()

	report, err := p.run(ctx, rc)
	p.metrics.RecordRun(err)
	return report, err
}

func (p *Pipeline) run(ctx context.Context, rc *RunContext) (*RunReport, error) {
	rc.Logger.Info("run started")

	if _, err := p.extract(ctx, rc); err != nil {
		return nil, err
	}
	if _, err := p.transform(ctx, rc); err != nil {
		return nil, err
	}
	report, err := p.load(ctx, rc)
	if err != nil {
		return nil, err
	}

	rc.Logger.Info("run finished",
		"files", len(report.Files),
		"failed", report.Failed(),
		"duration", report.FinishedAt.Sub(rc.StartedAt),
	)
	return report, nil
}

// Extract runs only the extract stage.
func (p *Pipeline) Extract(ctx context.Context, rc *RunContext) ([]*core.FileResult, error) {
	if err := p.guard.TryAcquire(rc.ID.String(), StageExtract); err != nil {
		return nil, err
	}
	defer p.guard.Release()
	return p.extract(ctx, rc)
}

// Transform runs only the transform stage.
func (p *Pipeline) Transform(ctx context.Context, rc *RunContext) ([]*core.FileResult, error) {
	if err := p.guard.TryAcquire(rc.ID.String(), StageTransform); err != nil {
		return nil, err
	}
	defer p.guard.Release()
	return p.transform(ctx, rc)
}

// Load runs only the load stage and returns the file results it reported.
func (p *Pipeline) Load(ctx context.Context, rc *RunContext) ([]*core.FileResult, error) {
	if err := p.guard.TryAcquire(rc.ID.String(), StageLoad); err != nil {
		return nil, err
	}
	defer p.guard.Release()
	report, err := p.load(ctx, rc)
	if err != nil {
		return nil, err
	}
	return report.Files, nil
}

// ----------------------------------------------------------------------------
// Extract
// ----------------------------------------------------------------------------

func (p *Pipeline) extract(ctx context.Context, rc *RunContext) ([]*core.FileResult, error) {
	start := time.Now()
	log := rc.Logger.With("stage", StageExtract)

	names, err := p.store.ListRaw(loader.Extensions)
	if err != nil {
		return nil, err
	}
	log.Info("stage started", "files", len(names))

	results := make([]*core.FileResult, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		flog := log.With("file", name)
		res := p.extractFile(rc, flog, name)
		if err := p.writeArtifact(flog, staging.AreaInterim, res); err != nil {
			return results, err
		}
		p.record(StageExtract, res)
		results = append(results, res)
	}

	p.metrics.ObserveStage(StageExtract, time.Since(start))
	log.Info("stage finished", "files", len(results), "duration", time.Since(start))
	return results, nil
}

func (p *Pipeline) extractFile(rc *RunContext, log *slog.Logger, name string) *core.FileResult {
	res := core.NewFileResult(name)

	t, err := loader.Load(p.store.Path(staging.AreaRaw, name), p.opts.Loader)
	if err != nil {
		log.Error("load failed", "error", err)
		res.Fail(core.IssueFromError(err))
		return res
	}

	m := core.MatchSchema(t, rc.Refs.Schema, p.opts.ColumnMatchThreshold)
	if err := m.Err(); err != nil {
		log.Error("schema mismatch", "missing", m.Missing, "empty", m.Empty)
		res.Fail(core.IssueFromError(err))
		return res
	}
	core.StandardizeMissing(t)

	res.Table = t
	log.Info("file extracted", "rows", t.Len(), "renamed", len(m.Renamed))
	return res
}

// ----------------------------------------------------------------------------
// Transform
// ----------------------------------------------------------------------------

func (p *Pipeline) transform(ctx context.Context, rc *RunContext) ([]*core.FileResult, error) {
	start := time.Now()
	log := rc.Logger.With("stage", StageTransform)
	ctx = rc.context(ctx)

	names, err := p.store.ListArtifacts(staging.AreaInterim)
	if err != nil {
		return nil, err
	}
	log.Info("stage started", "files", len(names))

	// One grade session serves the whole stage.
	var session reference.GradeSession
	var sessionErr error
	if len(names) > 0 {
		session, sessionErr = p.grades.Open(ctx)
		if sessionErr != nil {
			log.Error("grade reference unavailable", "error", sessionErr)
		} else {
			defer session.Release()
		}
	}

	augmenter := core.NewAugmenter(rc.Refs.AugmentConfig(p.opts.FormWidthThreshold, p.translator))

	results := make([]*core.FileResult, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		flog := log.With("file", name)
		res := p.readArtifact(flog, staging.AreaInterim, name)
		if res.Status && res.Table != nil {
			grades := gradeLoader(session, sessionErr)
			p.transformFile(logging.WithLogger(ctx, flog), rc, flog, res, grades, augmenter)
		} else {
			flog.Info("carrying failed file forward")
		}

		if err := p.writeArtifact(flog, staging.AreaProcessed, res); err != nil {
			return results, err
		}
		if err := p.store.RemoveArtifact(staging.AreaInterim, name); err != nil {
			return results, err
		}
		p.record(StageTransform, res)
		results = append(results, res)
	}

	p.metrics.ObserveStage(StageTransform, time.Since(start))
	log.Info("stage finished", "files", len(results), "duration", time.Since(start))
	return results, nil
}

// gradeLoader defers the grade query to the file that needs it, so a query
// failure only affects files that reached grade resolution.
func gradeLoader(session reference.GradeSession, openErr error) func(context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		if openErr != nil {
			return nil, openErr
		}
		return session.ActiveGrades(ctx)
	}
}

func (p *Pipeline) transformFile(
	ctx context.Context,
	rc *RunContext,
	log *slog.Logger,
	res *core.FileResult,
	grades func(context.Context) ([]string, error),
	augmenter *core.Augmenter,
) {
	t := res.Table
	schema := rc.Refs.Schema

	p.add(log, res, core.CoerceTypes(t, schema)...)

	pruned := core.PruneRows(t, schema.Mandatory(), p.opts.RowMissingThreshold)
	if pruned.Dropped > 0 {
		log.Info("sparse rows dropped",
			"dropped", pruned.Dropped,
			"min_non_missing", pruned.MinNonMissing,
			"lines", pruned.DroppedLines,
		)
	}

	p.add(log, res, core.NormalizeDimensions(t, p.opts.DimensionColumns)...)

	agg, err := core.AggregateBundles(t)
	if err != nil {
		log.Error("aggregation failed", "error", err)
		res.Fail(core.IssueFromError(err))
		return
	}
	res.Table = agg.Table
	p.add(log, res, agg.Issues()...)
	p.metrics.RecordBundles(agg.Table.Len())

	if !agg.Consistent {
		res.Status = false
		log.Error("inconsistent bundles", "pairs", len(agg.Inconsistencies))
		return
	}

	refs, err := grades(ctx)
	if err != nil {
		var ext *core.ExternalServiceError
		if !errors.As(err, &ext) {
			err = &core.ExternalServiceError{Service: "grade reference", Err: err}
		}
		log.Error("grade resolution skipped", "error", err)
		res.Fail(core.IssueFromError(err))
	} else {
		p.add(log, res, core.NewGradeResolver(refs).ResolveTable(agg.Table, core.ColGrade)...)
	}

	p.add(log, res, rc.Refs.Finishes.ResolveTable(agg.Table)...)
	p.add(log, res, augmenter.Apply(ctx, agg.Table)...)

	log.Info("file transformed",
		"bundles", agg.Table.Len(),
		"status", res.Status,
		"issues", len(res.ErrorLog),
	)
}

// ----------------------------------------------------------------------------
// Load
// ----------------------------------------------------------------------------

func (p *Pipeline) load(ctx context.Context, rc *RunContext) (*RunReport, error) {
	start := time.Now()
	log := rc.Logger.With("stage", StageLoad)
	ctx = rc.context(ctx)

	names, err := p.store.ListArtifacts(staging.AreaProcessed)
	if err != nil {
		return nil, err
	}
	log.Info("stage started", "files", len(names))

	report := &RunReport{
		RunID:     rc.ID.String(),
		StartedAt: rc.StartedAt,
		Files:     make([]*core.FileResult, 0, len(names)),
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		flog := log.With("file", name)
		res := p.readArtifact(flog, staging.AreaProcessed, name)
		if res.Status && res.Table != nil && p.publisher != nil {
			p.publish(ctx, flog, res)
		}
		p.record(StageLoad, res)
		report.Files = append(report.Files, res)
	}
	report.FinishedAt = time.Now().UTC()

	if err := p.store.WriteReport(report.RunID, report); err != nil {
		return nil, fmt.Errorf("write run report: %w", err)
	}
	for _, name := range names {
		if err := p.store.RemoveArtifact(staging.AreaProcessed, name); err != nil {
			return nil, err
		}
	}

	p.metrics.ObserveStage(StageLoad, time.Since(start))
	log.Info("stage finished", "files", len(report.Files), "duration", time.Since(start))
	return report, nil
}

func (p *Pipeline) publish(ctx context.Context, log *slog.Logger, res *core.FileResult) {
	url, err := p.publisher.Publish(ctx, res.FileName, res.Table)
	if err != nil {
		log.Error("publish failed", "error", err)
		res.Fail(core.NewIssue(core.IssueDistribution, "%s", err.Error()))
		return
	}
	res.URL = url
	log.Info("file published", "url", url)
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

// writeArtifact stores res in area. A result that cannot be stored is
// failed, stripped of its table and stored again, so the file still reaches
// the report. Only a store that rejects the stripped result too is an error.
func (p *Pipeline) writeArtifact(log *slog.Logger, area staging.Area, res *core.FileResult) error {
	err := p.store.WriteArtifact(area, res)
	if err == nil {
		return nil
	}
	log.Error("artifact write failed", "area", area, "error", err)
	res.Fail(core.NewIssue(core.IssueArtifact, "write %s artifact: %v", area, err))
	res.Table = nil
	if err := p.store.WriteArtifact(area, res); err != nil {
		return fmt.Errorf("write %s artifact: %w", area, err)
	}
	return nil
}

// readArtifact loads the artifact for name from area. An unreadable
// artifact yields a failed result for that file instead of an error.
func (p *Pipeline) readArtifact(log *slog.Logger, area staging.Area, name string) *core.FileResult {
	res, err := p.store.ReadArtifact(area, name)
	if err == nil {
		return res
	}
	log.Error("artifact read failed", "area", area, "error", err)
	res = core.NewFileResult(name)
	res.Fail(core.NewIssue(core.IssueArtifact, "read %s artifact: %v", area, err))
	return res
}

// add appends issues to the file log, logging each at its severity.
func (p *Pipeline) add(log *slog.Logger, res *core.FileResult, issues ...core.Issue) {
	for _, is := range issues {
		level := slog.LevelWarn
		if is.Fatal() {
			level = slog.LevelError
		}
		log.Log(context.Background(), level, is.Message,
			"code", is.Code,
			"bundle", is.Bundle,
			"column", is.Column,
		)
	}
	res.Add(issues...)
}

// record feeds the file outcome and its new issues into the metrics.
func (p *Pipeline) record(stage string, res *core.FileResult) {
	p.metrics.RecordFile(stage, res.Status)
	if stage != StageLoad {
		return
	}
	for _, is := range res.ErrorLog {
		p.metrics.RecordIssue(is.Code, string(is.Severity))
	}
}
