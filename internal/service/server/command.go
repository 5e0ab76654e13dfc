package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"

	api "github.com/oshokin/meet-desk/internal/api/grpc/desk"
	"github.com/oshokin/meet-desk/internal/api/http/display"
	"github.com/oshokin/meet-desk/internal/config"
	"github.com/oshokin/meet-desk/internal/domain/plates"
	"github.com/oshokin/meet-desk/internal/live"
	"github.com/oshokin/meet-desk/internal/live/redissink"
	"github.com/oshokin/meet-desk/internal/logger"
	"github.com/oshokin/meet-desk/internal/repository/contest"
	"github.com/oshokin/meet-desk/internal/service/desk"
	"github.com/oshokin/meet-desk/internal/version"
)

// Options controls the desk server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// HTTPAddress overrides the display API address from the settings.
	HTTPAddress string
	// DatabasePath overrides the SQLite file from the settings.
	DatabasePath string
	// LogLevel overrides the level from the settings.
	LogLevel string
	// Ready, when set, receives the bound gRPC address once the server accepts calls.
	Ready chan<- string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the desk and blocks until context is canceled or a server stops.
// Loads configuration first, then determines listen address from config or override.
//
//nolint:funlen // Wiring of every desk component happens here.
func Run(ctx context.Context, opts *Options) error {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	// The encoder must be chosen before any logger is derived into ctx.
	if format, _ := logger.ParseFormat(settings.LogFormat); format != logger.FormatConsole {
		logger.SetFormat(format)
	}

	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "meet-desk-server")

	if opts.LogLevel == "" {
		logger.Setup(ctx, settings.LogLevel)
	}

	databasePath := settings.DatabasePath
	if opts.DatabasePath != "" {
		databasePath = opts.DatabasePath
	}

	httpAddress := settings.HTTPAddress
	if opts.HTTPAddress != "" {
		httpAddress = opts.HTTPAddress
	}

	listenAddress, err := resolveListenAddress(settings.GRPCAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	// One desk per database file.
	release, err := acquireInstance(ctx, databasePath+".pid")
	if err != nil {
		return err
	}

	defer release()

	store, err := contest.Open(ctx, databasePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close store", "error", closeErr)
		}
	}()

	sinks, closeSinks := buildSinks(ctx, settings)
	defer closeSinks()

	hub := live.NewHub(live.WithSink(live.BestEffort(sinks)))

	svc, err := desk.New(desk.Options{
		Repository:  store,
		Validator:   plates.NewValidator(settings.PlateConfig()),
		Hub:         hub,
		QueueLimit:  settings.QueueLimit,
		ClampWeight: settings.ClampWeight,
		Locale:      settings.LocaleTag(),
	})
	if err != nil {
		return fmt.Errorf("initialise desk: %w", err)
	}

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(operatorInterceptor(ctx)))
	api.RegisterDeskServer(grpcServer, api.NewServer(svc))

	logger.InfoKV(ctx, "Starting meet-desk", version.KV()...)
	logger.InfoKV(ctx, "Desk server listening",
		"listen_address", lis.Addr().String(),
		"database_path", databasePath,
		"redis_enabled", settings.RedisAddress != "",
	)

	// A failing display API takes the whole desk down.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpErr := make(chan error, 1)

	if httpAddress != "" {
		e := display.NewEcho(display.NewHandlers(svc, hub, display.DefaultKeepAlive))

		go func() {
			serveErr := display.Serve(ctx, e, httpAddress, settings.Timeout)
			if serveErr != nil {
				logger.ErrorKV(ctx, "Display API stopped", "error", serveErr)
				cancel()
			}

			httpErr <- serveErr
		}()
	} else {
		close(httpErr)
	}

	if opts.Ready != nil {
		opts.Ready <- lis.Addr().String()
	}

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err = grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	if err = <-httpErr; err != nil {
		return fmt.Errorf("serve display API: %w", err)
	}

	return nil
}

// buildSinks connects the optional external live sinks.
// A Redis that cannot be reached is logged and skipped.
func buildSinks(ctx context.Context, settings *config.Config) (live.Fanout, func()) {
	var (
		sinks   live.Fanout
		closers []func() error
	)

	if settings.RedisAddress != "" {
		sink, closeRedis, err := redissink.Dial(ctx, settings.RedisAddress, settings.RedisChannelPrefix, settings.Timeout)
		if err != nil {
			logger.WarnKV(ctx, "Redis live sink disabled", "redis_address", settings.RedisAddress, "error", err)
		} else {
			sinks = append(sinks, sink)
			closers = append(closers, closeRedis)

			logger.InfoKV(ctx, "Publishing live events to Redis",
				"redis_address", settings.RedisAddress,
				"channel_prefix", settings.RedisChannelPrefix,
			)
		}
	}

	return sinks, func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				logger.WarnKV(ctx, "Failed to close live sink", "error", err)
			}
		}
	}
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	// Extract port from config address (e.g., "desk.local:7070" -> ":7070").
	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Return port-only listen address to bind on all interfaces.
	return ":" + port, nil
}
