package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLoad marks a file that could not be read or parsed.
var ErrLoad = errors.New("load error")

// SchemaMismatchError rejects a table whose columns do not satisfy the schema.
type SchemaMismatchError struct {
	Missing []string
	Empty   []string
}

func (e *SchemaMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required columns: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Empty) > 0 {
		parts = append(parts, "empty required columns: "+strings.Join(e.Empty, ", "))
	}
	return "schema mismatch: " + strings.Join(parts, "; ")
}

// StructuralError reports columns a stage needs but the table lacks.
type StructuralError struct {
	Stage   string
	Missing []string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error: %s requires missing columns: %s", e.Stage, strings.Join(e.Missing, ", "))
}

// ConfigurationError reports an absent run configuration key.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: required key %q is not set", e.Key)
}

// ExternalServiceError wraps a failure of a reference database or other collaborator.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("external service %s unavailable: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// IssueKind classifies an error log entry.
type IssueKind string

const (
	IssueLoad               IssueKind = "LoadError"
	IssueSchemaMismatch     IssueKind = "SchemaMismatchError"
	IssueCoercion           IssueKind = "CoercionWarning"
	IssueStructural         IssueKind = "StructuralError"
	IssueAggregation        IssueKind = "AggregationInconsistencyError"
	IssueUnkeyedRows        IssueKind = "UnkeyedRowsWarning"
	IssueWeightOverflow     IssueKind = "WeightOverflowWarning"
	IssueUnresolvedGrade    IssueKind = "UnresolvedGradeWarning"
	IssueUnresolvedFinish   IssueKind = "UnresolvedFinishWarning"
	IssueUnresolvedLocation IssueKind = "UnresolvedLocationWarning"
	IssueUnresolvedMaterial IssueKind = "UnresolvedMaterialWarning"
	IssueUnresolvedCategory IssueKind = "UnresolvedCategoryWarning"
	IssueDerivedField       IssueKind = "DerivedFieldWarning"
	IssueConfiguration      IssueKind = "ConfigurationError"
	IssueExternalService    IssueKind = "ExternalServiceError"
	IssueDistribution       IssueKind = "DistributionError"
	IssueArtifact           IssueKind = "ArtifactError"
)

// Severity tells whether an issue stops the file from progressing.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Report is a small tabular attachment to an issue, e.g. the list of
// inconsistent bundle/column pairs.
type Report struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Issue is one entry in a file's error log.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Code     string    `json:"code"`
	Severity Severity  `json:"severity"`
	Bundle   string    `json:"bundle,omitempty"`
	Column   string    `json:"column,omitempty"`
	Message  string    `json:"message"`
	Report   *Report   `json:"report,omitempty"`
}

// NewIssue builds an issue with the code and severity registered for kind.
func NewIssue(kind IssueKind, format string, args ...any) Issue {
	info := issueInfoFor(kind)
	return Issue{
		Kind:     kind,
		Code:     info.code,
		Severity: info.severity,
		Message:  fmt.Sprintf(format, args...),
	}
}

// ForBundle attaches the owning bundle.
func (i Issue) ForBundle(bundle string) Issue {
	i.Bundle = bundle
	return i
}

// ForColumn attaches the affected column.
func (i Issue) ForColumn(col string) Issue {
	i.Column = col
	return i
}

// Fatal reports whether the issue stops the file from progressing.
func (i Issue) Fatal() bool { return i.Severity == SeverityError }

func (i Issue) String() string {
	var b strings.Builder
	b.WriteString("[" + i.Code + "] ")
	if i.Bundle != "" {
		b.WriteString("bundle " + i.Bundle + ": ")
	}
	b.WriteString(i.Message)
	return b.String()
}

// IssueFromError converts a typed pipeline error into an error log entry.
func IssueFromError(err error) Issue {
	var (
		schemaErr *SchemaMismatchError
		structErr *StructuralError
		cfgErr    *ConfigurationError
		extErr    *ExternalServiceError
	)
	switch {
	case errors.As(err, &schemaErr):
		is := NewIssue(IssueSchemaMismatch, "%s", schemaErr.Error())
		is.Report = &Report{Columns: []string{"column", "problem"}}
		for _, c := range schemaErr.Missing {
			is.Report.Rows = append(is.Report.Rows, []string{c, "missing"})
		}
		for _, c := range schemaErr.Empty {
			is.Report.Rows = append(is.Report.Rows, []string{c, "empty"})
		}
		return is
	case errors.As(err, &structErr):
		return NewIssue(IssueStructural, "%s", structErr.Error())
	case errors.As(err, &cfgErr):
		return NewIssue(IssueConfiguration, "%s", cfgErr.Error())
	case errors.As(err, &extErr):
		return NewIssue(IssueExternalService, "%s", extErr.Error())
	case errors.Is(err, ErrLoad):
		is := NewIssue(IssueLoad, "%s", err.Error())
		is.Code = MapError(err).Code
		return is
	default:
		return Issue{Kind: IssueLoad, Code: defaultMessage.Code, Severity: SeverityError, Message: err.Error()}
	}
}

// FileResult is the per-file state carried between stages and returned to
// callers: success flag, best-effort table and the full error log.
type FileResult struct {
	FileName string  `json:"file_name"`
	Status   bool    `json:"status"`
	ErrorLog []Issue `json:"error_log"`
	Table    *Table  `json:"table"`
	URL      string  `json:"url,omitempty"`
}

// NewFileResult starts a successful result with an empty log.
func NewFileResult(fileName string) *FileResult {
	return &FileResult{FileName: fileName, Status: true, ErrorLog: []Issue{}}
}

// Add appends issues without changing the status.
func (r *FileResult) Add(issues ...Issue) {
	r.ErrorLog = append(r.ErrorLog, issues...)
}

// Fail appends issues and marks the file failed.
func (r *FileResult) Fail(issues ...Issue) {
	r.Status = false
	r.Add(issues...)
}

// Count returns the number of log entries with the given severity.
func (r *FileResult) Count(sev Severity) int {
	n := 0
	for _, is := range r.ErrorLog {
		if is.Severity == sev {
			n++
		}
	}
	return n
}
