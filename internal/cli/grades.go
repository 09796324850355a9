package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newGradesCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "grades",
		Short: "List the active grade reference set",
		Long: `Print the grades the transform stage resolves against, read from the source
configured by GRADE_SOURCE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a := &app{cfg: cfg}
			defer a.Close()

			source, err := a.openGrades(ctx)
			if err != nil {
				return err
			}
			session, err := source.Open(ctx)
			if err != nil {
				return err
			}
			defer session.Release()

			grades, err := session.ActiveGrades(ctx)
			if err != nil {
				return err
			}
			sort.Strings(grades)

			w := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(w).Encode(grades)
			}
			if len(grades) == 0 {
				_, _ = fmt.Fprintln(w, "(no active grades)")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(w)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"#", "Grade"})
			for i, g := range grades {
				t.AppendRow(table.Row{i + 1, g})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the grades as a JSON array")
	return cmd
}
