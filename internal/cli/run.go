package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	opts := &stageOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run extract, transform and load",
		Long: `Run every stage in order under one run id and print the run report.

The report is also kept in the reports area, where the API serves it.`,
		Example: `  # Process everything in the raw area
  slexa run

  # Use the file grade list and show every issue
  slexa run --grade-source file --issues

  # Fail CI when any file failed
  slexa run --strict --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.pipeline.Run(ctx)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}

			if !opts.JSON {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "run %s finished in %s\n",
					report.RunID, report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
			}
			if err := renderResults(cmd.OutOrStdout(), report.Files, opts.outputOptions); err != nil {
				return err
			}
			return strictError(opts.Strict, report.Files)
		},
	}

	addOutputFlags(cmd, opts)
	return cmd
}
