package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/meet-desk/internal/config"
	"github.com/oshokin/meet-desk/internal/logger"
	"github.com/oshokin/meet-desk/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides the level from the settings.
	logLevel string

	// rootCmd is the base command; every action is a subcommand.
	rootCmd = &cobra.Command{
		Use:   "meet-desk",
		Short: "Run and drive a powerlifting judging desk.",
		Long: `meet-desk keeps the attempts of a powerlifting meet: it checks that declared
weights can be loaded with the platform plates, orders the upcoming lifters by
the rising-bar rule, and tracks the attempt on the platform for live displays.

Start the desk with "meet-desk serve"; the other commands talk to it over gRPC
or work locally on the settings and database.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := logLevel
			if level == "" {
				level = os.Getenv(config.EnvPrefix + "LOG_LEVEL")
			}

			logger.Setup(cmd.Context(), level)
		},
	}
)

// Execute runs the meet-desk CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// loadSettings reads the settings file and applies the level it names
// unless --log-level was given.
func loadSettings(ctx context.Context) (*config.Config, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if logLevel == "" {
		logger.Setup(ctx, settings.LogLevel)
	}

	return settings, nil
}
