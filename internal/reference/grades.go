package reference

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/slexa/internal/core"
)

const activeGradesSQL = `SELECT name FROM grade WHERE active = TRUE`

const gradeService = "grade database"

// GradeSource opens sessions against the active grade list. The transform
// stage opens one session for all of its files and releases it when done.
type GradeSource interface {
	Open(ctx context.Context) (GradeSession, error)
}

// GradeSession reads the active grades. Release must be called exactly once.
type GradeSession interface {
	ActiveGrades(ctx context.Context) ([]string, error)
	Release()
}

// Querier is the subset of pgx connections the grade query needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgGrades reads grades from the grade table through a connection pool.
type PgGrades struct {
	pool *pgxpool.Pool
}

// NewPgGrades wraps a pool.
func NewPgGrades(pool *pgxpool.Pool) *PgGrades {
	return &PgGrades{pool: pool}
}

// Open acquires one pooled connection for the session.
func (g *PgGrades) Open(ctx context.Context) (GradeSession, error) {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return nil, &core.ExternalServiceError{Service: gradeService, Err: err}
	}
	return &pgGradeSession{conn: conn}, nil
}

type pgGradeSession struct {
	conn *pgxpool.Conn
}

func (s *pgGradeSession) ActiveGrades(ctx context.Context) ([]string, error) {
	return queryActiveGrades(ctx, s.conn)
}

func (s *pgGradeSession) Release() { s.conn.Release() }

func queryActiveGrades(ctx context.Context, q Querier) ([]string, error) {
	rows, err := q.Query(ctx, activeGradesSQL)
	if err != nil {
		return nil, &core.ExternalServiceError{Service: gradeService, Err: err}
	}
	grades, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, &core.ExternalServiceError{Service: gradeService, Err: fmt.Errorf("read grades: %w", err)}
	}
	return grades, nil
}

// StaticGrades serves a fixed grade list, read from a file or built in tests.
type StaticGrades []string

// Open never fails.
func (g StaticGrades) Open(context.Context) (GradeSession, error) {
	return staticSession(g), nil
}

type staticSession []string

func (s staticSession) ActiveGrades(context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}

func (staticSession) Release() {}

// LoadGradeList reads a grade list document: either a plain list of names or
// a mapping with a grades key.
func LoadGradeList(path string) (StaticGrades, error) {
	var doc struct {
		Grades []scalar `yaml:"grades"`
	}
	var list []scalar
	if err := decodeFile(path, &list); err != nil {
		if err := decodeFile(path, &doc); err != nil {
			return nil, fmt.Errorf("grade list: %w", err)
		}
		list = doc.Grades
	}

	out := make(StaticGrades, 0, len(list))
	for _, g := range list {
		if name := strings.TrimSpace(string(g)); name != "" {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("grade list %s: no grades", path)
	}
	return out, nil
}
