// Package cli provides the slexa command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/slexa/internal/config"
	"github.com/JonMunkholm/slexa/internal/logging"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// configKey stores the loaded config in the command context.
type configKey struct{}

// flagEnv maps persistent flags onto the environment variables the config
// loader reads, so a flag simply overrides its variable.
var flagEnv = map[string]string{
	"staging-dir":  "STAGING_DIR",
	"grade-source": "GRADE_SOURCE",
	"log-level":    "LOG_LEVEL",
	"log-format":   "LOG_FORMAT",
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "slexa",
		Short: "slexa - steel inventory spreadsheet ETL",
		Long: `slexa reads supplier stock spreadsheets from the staging area, validates
them against the column schema, normalizes and aggregates them into bundles,
enriches them from the reference data and publishes the result.

Configuration comes from the environment (and a .env file); the flags below
override the matching variables.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			for flag, env := range flagEnv {
				if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
					if err := os.Setenv(env, f.Value.String()); err != nil {
						return fmt.Errorf("set %s: %w", env, err)
					}
				}
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}} (" + GitCommit + ")\n")

	rootCmd.PersistentFlags().String("staging-dir", "", "staging area root (STAGING_DIR)")
	rootCmd.PersistentFlags().String("grade-source", "", "grade reference source: postgres or file (GRADE_SOURCE)")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "text or json (LOG_FORMAT)")

	_ = rootCmd.RegisterFlagCompletionFunc("grade-source", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.GradeSourcePostgres, config.GradeSourceFile}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newExtractCommand())
	rootCmd.AddCommand(newTransformCommand())
	rootCmd.AddCommand(newLoadCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newGradesCommand())

	return rootCmd
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func getConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey{}).(*config.Config)
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}
