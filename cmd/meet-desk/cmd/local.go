package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/meet-desk/internal/config"
	"github.com/oshokin/meet-desk/internal/domain/plates"
	"github.com/oshokin/meet-desk/internal/logger"
	"github.com/oshokin/meet-desk/internal/repository/contest"
	"github.com/oshokin/meet-desk/internal/service/roster"
)

var (
	// importDatabasePath overrides the SQLite file for import.
	importDatabasePath string
	// overwrite allows init to replace an existing settings file.
	overwrite bool

	importCmd = &cobra.Command{
		Use:   "import <roster.yaml>",
		Short: "Import a contest roster into the database.",
		Long: `Creates a contest with its competitors and all attempts from a YAML roster.
Openers that cannot be loaded are left undeclared and listed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logger.WithName(cmd.Context(), "meet-desk-import")

			settings, err := loadSettings(ctx)
			if err != nil {
				return err
			}

			databasePath := settings.DatabasePath
			if importDatabasePath != "" {
				databasePath = importDatabasePath
			}

			store, err := contest.Open(ctx, databasePath)
			if err != nil {
				return err
			}

			defer func() {
				_ = store.Close()
			}()

			importer := roster.NewImporter(store, plates.NewValidator(settings.PlateConfig()), nil)

			report, err := importer.ImportFile(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "contest %s: %d competitors, %d attempts\n",
				report.ContestID, report.Competitors, report.Attempts)

			for _, issue := range report.Issues {
				_, _ = fmt.Fprintf(out, "  %s %s opener %.2f kg not loadable, nearest %.2f kg\n",
					issue.Competitor, issue.LiftType, issue.Weight, issue.Check.Normalized)
			}

			return nil
		},
	}

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the standard plate set.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(configPath); err == nil && !overwrite {
				return fmt.Errorf("%s already exists, use --force to replace it", configPath) //nolint:err113 // User-facing.
			}

			if err := config.Save(configPath, config.Default()); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "settings written to %s\n", configPath)

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	importCmd.Flags().StringVarP(&importDatabasePath, "database", "d", "", "SQLite file, overrides database_path")
	initCmd.Flags().BoolVarP(&overwrite, "force", "f", false, "replace an existing settings file")

	rootCmd.AddCommand(importCmd, initCmd)
}
