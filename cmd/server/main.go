package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/tapevault/backoffice/infra/initializer"
	"github.com/tapevault/backoffice/pkg/app"
	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/webapi"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	logger := deps.Logger

	a := app.New(deps, cfg)
	if err := a.Scheduler.Start(ctx); err != nil {
		_ = deps.Cleanup()
		return fmt.Errorf("failed to start token scheduler: %w", err)
	}

	fiberApp := webapi.SetupApp(a)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
	)

	return serve(ctx, fiberApp, addr, logger,
		func(ctx context.Context) error {
			a.Scheduler.Stop(ctx)
			return nil
		},
		func(context.Context) error { return deps.Cleanup() },
	)
}

// serve runs the HTTP server until ctx is cancelled or Listen fails, then
// drains connections and runs the shutdown hooks in order.
func serve(
	ctx context.Context,
	fiberApp *fiber.App,
	addr string,
	logger *slog.Logger,
	hooks ...func(context.Context) error,
) error {
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- fiberApp.Listen(addr)
	}()

	var errs []error
	select {
	case err := <-listenErr:
		if err != nil {
			errs = append(errs, fmt.Errorf("listen: %w", err))
		}
	case <-ctx.Done():
		logger.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	for _, hook := range hooks {
		if err := hook(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
