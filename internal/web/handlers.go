package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/slexa/internal/core"
	"github.com/JonMunkholm/slexa/internal/pipeline"
	"github.com/JonMunkholm/slexa/internal/publish"
)

var errFileNotFound = errors.New("file not found in report")

// RunResponse is returned by POST /api/runs.
type RunResponse struct {
	RunID      string                 `json:"run_id"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Failed     int                    `json:"failed"`
	Files      []pipeline.FileSummary `json:"files"`
}

func newRunResponse(r *pipeline.RunReport) RunResponse {
	return RunResponse{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Failed:     r.Failed(),
		Files:      r.Summary(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status": "ok",
		"run":    s.runner.Guard().Status(),
	})
}

// handleStartRun runs the whole pipeline and answers with the run summary.
// A concurrent run is rejected with 409. The run outlives the request: a
// client that hangs up or times out does not stop it halfway through a
// stage, and its report is still stored.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	report, err := s.runner.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, newRunResponse(report))
}

func (s *Server) handleActiveRun(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.runner.Guard().Status())
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	ids, err := s.runner.Reports()
	if err != nil {
		respondError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, map[string]any{"reports": ids})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.runner.Report(chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, newRunResponse(report))
}

// handleGetFile returns one file's full result: status, error log and table.
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	res, err := s.fileResult(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// handleExportFile downloads one file's result as a workbook with the table
// and the error log.
func (s *Server) handleExportFile(w http.ResponseWriter, r *http.Request) {
	res, err := s.fileResult(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	name := publish.OutputName(res.FileName, "xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sanitizeFilename(name)))
	if err := publish.WriteResultXLSX(w, res); err != nil {
		// Headers are sent; log only.
		respondErrorLogged(r, err)
	}
}

func (s *Server) handleDescribeCode(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	msg := core.Describe(code)
	if msg.Code != code {
		writeError(w, http.StatusNotFound, "RUN002", "unknown code "+code)
		return
	}
	writeJSON(w, ErrorResponse{Error: msg.Message, Message: msg.Message, Action: msg.Action, Code: msg.Code})
}

func (s *Server) fileResult(r *http.Request) (*core.FileResult, error) {
	report, err := s.runner.Report(chi.URLParam(r, "runID"))
	if err != nil {
		return nil, err
	}
	fileName := chi.URLParam(r, "fileName")
	res, ok := report.File(fileName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errFileNotFound, fileName)
	}
	return res, nil
}

// sanitizeFilename keeps a download name safe for the Content-Disposition header.
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == '"', r == '\\', r == '/':
			return '_'
		}
		return r
	}, name)
}
