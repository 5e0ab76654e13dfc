package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/meet-desk/internal/service/server"
)

var (
	// serveHTTPAddress overrides the display API address.
	serveHTTPAddress string
	// serveDatabasePath overrides the SQLite file.
	serveDatabasePath string

	serveCmd = &cobra.Command{
		Use:   "serve [listen-address]",
		Short: "Run the judging desk.",
		Long: `Starts the desk: the gRPC API for operator terminals and, when configured,
the HTTP display API with its live event feed.

Only the port from grpc_addr is used for listening (e.g., :7070).
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:7070).
Only one desk may serve a database file at a time.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return server.Run(cmd.Context(), &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				HTTPAddress:   serveHTTPAddress,
				DatabasePath:  serveDatabasePath,
				LogLevel:      logLevel,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	serveCmd.Flags().StringVar(&serveHTTPAddress, "http", "", "display API address, overrides http_addr")
	serveCmd.Flags().StringVarP(&serveDatabasePath, "database", "d", "", "SQLite file, overrides database_path")

	rootCmd.AddCommand(serveCmd)
}
