// Package initializer builds the application dependencies from configuration.
package initializer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tapevault/backoffice/infra"
	"github.com/tapevault/backoffice/infra/automation"
	"github.com/tapevault/backoffice/infra/lock"
	"github.com/tapevault/backoffice/infra/mailer"
	"github.com/tapevault/backoffice/infra/provider/stripepayment"
	infra_repository "github.com/tapevault/backoffice/infra/repository"
	"github.com/tapevault/backoffice/pkg/app"
	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/pkg/scheduler"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// InitializeDependencies connects to the database, runs pending migrations and
// builds every provider the services need. Callers must invoke deps.Cleanup.
func InitializeDependencies(cfg *config.App) (deps *app.Deps, err error) {
	logger := setupLogger(cfg.Log)
	deps = &app.Deps{Logger: logger}

	var closers []func() error
	cleanup := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	deps.Cleanup = cleanup
	defer func() {
		if err != nil {
			if cerr := cleanup(); cerr != nil {
				logger.Warn("Cleanup after failed startup", "error", cerr)
			}
		}
	}()

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	closers = append(closers, sqlDB.Close)

	if cfg.DB.Migrate {
		if err = infra.RunMigrations(db, cfg.DB.MigrationsPath, logger); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	deps.Uow = infra_repository.NewUoW(db)

	deps.Payouts, err = GetPayoutRegistry(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payout registry: %w", err)
	}

	locker, closeLocker, err := lock.New(context.Background(), cfg.Redis, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize transfer lock: %w", err)
	}
	closers = append(closers, closeLocker)
	deps.Locker = locker

	deps.Mailer = mailer.New(cfg.SMTP, logger)
	deps.Notifier = automation.New(cfg.Automation, logger)
	deps.Webhooks = stripepayment.New(cfg.PaymentProviders.Stripe, logger)
	deps.Refresher = newOAuthRefresher(cfg.Google, logger)
	return deps, nil
}

func newOAuthRefresher(cfg *config.Google, logger *slog.Logger) scheduler.Refresher {
	if cfg == nil || cfg.ClientID == "" {
		logger.Warn("Google OAuth client is not configured; token refreshes will fail")
		cfg = &config.Google{}
	}
	return scheduler.OAuthRefresher{Config: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
		Endpoint:     google.Endpoint,
	}}
}
