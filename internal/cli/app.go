package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/slexa/internal/config"
	"github.com/JonMunkholm/slexa/internal/metrics"
	"github.com/JonMunkholm/slexa/internal/pipeline"
	"github.com/JonMunkholm/slexa/internal/publish"
	"github.com/JonMunkholm/slexa/internal/reference"
	"github.com/JonMunkholm/slexa/internal/staging"
	"github.com/JonMunkholm/slexa/internal/translate"
)

// app holds everything a command builds from the config.
type app struct {
	cfg      *config.Config
	pool     *pgxpool.Pool
	metrics  *metrics.Metrics
	pipeline *pipeline.Pipeline
}

// newApp wires a pipeline from cfg. The grade source is only opened when
// withGrades is set: extract and load never consult it.
func newApp(ctx context.Context, cfg *config.Config, withGrades bool) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.New()}

	store, err := staging.NewStore(cfg.Staging.Dir)
	if err != nil {
		return nil, err
	}

	publisher, err := publish.New(cfg.Publish)
	if err != nil {
		return nil, err
	}

	var grades reference.GradeSource = reference.StaticGrades(nil)
	if withGrades {
		if grades, err = a.openGrades(ctx); err != nil {
			return nil, err
		}
	}

	a.pipeline = pipeline.New(pipeline.Deps{
		Store:      store,
		References: pipeline.FileReferences(cfg.Reference),
		Grades:     grades,
		Translator: translate.New(cfg.Translate),
		Publisher:  publisher,
		Metrics:    a.metrics,
	}, pipeline.OptionsFromConfig(cfg.Pipeline))

	slog.Debug("pipeline configured",
		"staging_dir", store.Root(),
		"grade_source", cfg.Reference.GradeSource,
		"publish_dir", cfg.Publish.Dir,
		"translate", cfg.Translate.URL != "",
	)
	return a, nil
}

// openGrades returns the configured grade source.
func (a *app) openGrades(ctx context.Context) (reference.GradeSource, error) {
	switch a.cfg.Reference.GradeSource {
	case config.GradeSourceFile:
		grades, err := reference.LoadGradeList(a.cfg.Reference.GradeListPath)
		if err != nil {
			return nil, err
		}
		slog.Info("grade list loaded", "path", a.cfg.Reference.GradeListPath, "grades", len(grades))
		return grades, nil
	default:
		pool, err := openPool(ctx, a.cfg.Database)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		return reference.NewPgGrades(pool), nil
	}
}

// Close releases the database pool, if one was opened.
func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// openPool connects to the grade database and verifies the connection.
func openPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
