package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/slexa/internal/core"
	"github.com/JonMunkholm/slexa/internal/pipeline"
)

// errFilesFailed makes the process exit non-zero under --strict.
var errFilesFailed = errors.New("one or more files failed")

type stageFunc func(p *pipeline.Pipeline, ctx context.Context, rc *pipeline.RunContext) ([]*core.FileResult, error)

type stageOptions struct {
	outputOptions
	Strict bool
}

func newExtractCommand() *cobra.Command {
	return newStageCommand(pipeline.StageExtract,
		"Load raw files and validate them against the schema",
		`Read every supported file in the raw area, detect its header row, match the
columns against the schema and write one interim artifact per file.`,
		false, (*pipeline.Pipeline).Extract)
}

func newTransformCommand() *cobra.Command {
	return newStageCommand(pipeline.StageTransform,
		"Normalize, aggregate and enrich interim artifacts",
		`Coerce types, prune sparse rows, normalize dimensions, aggregate rows into
bundles and resolve grades, finishes and derived fields. Consults the grade
reference configured by GRADE_SOURCE.`,
		true, (*pipeline.Pipeline).Transform)
}

func newLoadCommand() *cobra.Command {
	return newStageCommand(pipeline.StageLoad,
		"Publish processed artifacts and write the run report",
		`Publish every successful processed artifact (when PUBLISH_DIR is set) and
write the run report to the reports area.`,
		false, (*pipeline.Pipeline).Load)
}

func newStageCommand(stage, short, long string, withGrades bool, run stageFunc) *cobra.Command {
	opts := &stageOptions{}

	cmd := &cobra.Command{
		Use:   stage,
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, withGrades)
			if err != nil {
				return err
			}
			defer a.Close()

			rc, err := a.pipeline.NewRunContext(ctx)
			if err != nil {
				return err
			}
			results, err := run(a.pipeline, ctx, rc)
			if err != nil {
				return fmt.Errorf("%s: %w", stage, err)
			}

			if !opts.JSON {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", stage, rc.ID)
			}
			if err := renderResults(cmd.OutOrStdout(), results, opts.outputOptions); err != nil {
				return err
			}
			return strictError(opts.Strict, results)
		},
	}

	addOutputFlags(cmd, opts)
	return cmd
}

func addOutputFlags(cmd *cobra.Command, opts *stageOptions) {
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print file results as JSON")
	cmd.Flags().BoolVar(&opts.Issues, "issues", false, "list every error log entry")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit non-zero when any file failed")
}

func strictError(strict bool, results []*core.FileResult) error {
	if !strict {
		return nil
	}
	for _, res := range results {
		if !res.Status {
			return errFilesFailed
		}
	}
	return nil
}
