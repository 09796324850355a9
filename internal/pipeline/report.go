package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/slexa/internal/core"
	"github.com/JonMunkholm/slexa/internal/staging"
)

// ErrReportNotFound is returned for an unknown run id.
var ErrReportNotFound = errors.New("report not found")

// RunReport is the record a load stage leaves behind.
type RunReport struct {
	RunID      string             `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Files      []*core.FileResult `json:"files"`
}

// FileSummary is one line of a run overview.
type FileSummary struct {
	FileName string `json:"file_name"`
	Status   bool   `json:"status"`
	Rows     int    `json:"rows"`
	Errors   int    `json:"errors"`
	Warnings int    `json:"warnings"`
	URL      string `json:"url,omitempty"`
}

// Summary condenses every file result.
func (r *RunReport) Summary() []FileSummary {
	out := make([]FileSummary, len(r.Files))
	for i, f := range r.Files {
		out[i] = Summarize(f)
	}
	return out
}

// Failed counts files whose status is false.
func (r *RunReport) Failed() int {
	n := 0
	for _, f := range r.Files {
		if !f.Status {
			n++
		}
	}
	return n
}

// File returns the result for fileName.
func (r *RunReport) File(fileName string) (*core.FileResult, bool) {
	for _, f := range r.Files {
		if f.FileName == fileName {
			return f, true
		}
	}
	return nil, false
}

// Summarize condenses one file result.
func Summarize(f *core.FileResult) FileSummary {
	s := FileSummary{
		FileName: f.FileName,
		Status:   f.Status,
		Errors:   f.Count(core.SeverityError),
		Warnings: f.Count(core.SeverityWarning),
		URL:      f.URL,
	}
	if f.Table != nil {
		s.Rows = f.Table.Len()
	}
	return s
}

// Reports lists the run ids that have a stored report.
func (p *Pipeline) Reports() ([]string, error) {
	return p.store.ListReports()
}

// Report reads a stored run report.
func (p *Pipeline) Report(runID string) (*RunReport, error) {
	var r RunReport
	if err := p.store.ReadReport(runID, &r); err != nil {
		if errors.Is(err, staging.ErrArtifactNotFound) || errors.Is(err, staging.ErrInvalidName) {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, runID)
		}
		return nil, err
	}
	return &r, nil
}
