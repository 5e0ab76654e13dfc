package display

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/oshokin/meet-desk/internal/logger"
)

// NewEcho builds the echo instance with every display route registered.
func NewEcho(handlers *Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	SetupRoutes(e, handlers)

	// Shutdown waits for idle connections and live streams never go idle.
	e.Server.RegisterOnShutdown(handlers.Close)

	return e
}

// SetupRoutes registers the display routes under /api/v1.
func SetupRoutes(e *echo.Echo, handlers *Handlers) {
	api := e.Group("/api/v1")

	// Equipment.
	api.GET("/plates/check", handlers.CheckWeight)
	api.GET("/plates/plan", handlers.PlatePlan)

	// Contest state.
	api.GET("/contests/:contestId/queue", handlers.Queue)
	api.GET("/contests/:contestId/current", handlers.Current)
	api.GET("/contests/:contestId/live", handlers.Live)
}

// Serve runs e on address until ctx is canceled, then shuts it down within timeout.
func Serve(ctx context.Context, e *echo.Echo, address string, timeout time.Duration) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- e.Start(address)
	}()

	logger.InfoKV(ctx, "Display API listening", "http_address", address)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WarnKV(ctx, "Display API did not stop cleanly", "error", err)

		return err
	}

	return nil
}
