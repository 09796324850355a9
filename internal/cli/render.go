package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/JonMunkholm/slexa/internal/core"
	"github.com/JonMunkholm/slexa/internal/pipeline"
)

// outputOptions are shared by every command that prints file results.
type outputOptions struct {
	JSON   bool
	Issues bool
}

func renderResults(w io.Writer, results []*core.FileResult, opts outputOptions) error {
	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(no files)")
		return nil
	}

	renderSummary(w, results)
	if opts.Issues {
		renderIssues(w, results)
	}
	return nil
}

func renderSummary(w io.Writer, results []*core.FileResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Status", "Rows", "Errors", "Warnings", "URL"})

	failed := 0
	for _, res := range results {
		s := pipeline.Summarize(res)
		status := text.FgGreen.Sprint("ok")
		if !s.Status {
			status = text.FgRed.Sprint("failed")
			failed++
		}
		t.AppendRow(table.Row{s.FileName, status, s.Rows, s.Errors, s.Warnings, s.URL})
	}

	t.AppendFooter(table.Row{fmt.Sprintf("%d files", len(results)), fmt.Sprintf("%d failed", failed)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.Render()
}

func renderIssues(w io.Writer, results []*core.FileResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Code", "Severity", "Bundle", "Column", "Message"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 6, WidthMax: 80}})

	n := 0
	for _, res := range results {
		for _, is := range res.ErrorLog {
			t.AppendRow(table.Row{res.FileName, is.Code, is.Severity, is.Bundle, is.Column, is.Message})
			n++
		}
	}
	if n == 0 {
		return
	}
	_, _ = fmt.Fprintln(w)
	t.Render()
}
