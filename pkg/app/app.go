// Package app assembles the back-office services from their infrastructure
// dependencies.
package app

import (
	"log/slog"
	"time"

	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/pkg/lock"
	"github.com/tapevault/backoffice/pkg/provider/automation"
	"github.com/tapevault/backoffice/pkg/provider/payment"
	"github.com/tapevault/backoffice/pkg/provider/payout"
	"github.com/tapevault/backoffice/pkg/repository"
	"github.com/tapevault/backoffice/pkg/scheduler"
	calendarSvc "github.com/tapevault/backoffice/pkg/service/calendar"
	"github.com/tapevault/backoffice/pkg/service/dealpayment"
	"github.com/tapevault/backoffice/pkg/service/distribution"
	"github.com/tapevault/backoffice/pkg/service/invoice"
	"github.com/tapevault/backoffice/pkg/service/jar"
	"github.com/tapevault/backoffice/pkg/service/recipient"
	"github.com/tapevault/backoffice/pkg/service/salary"
)

// Mailer delivers a plain-text email.
type Mailer = invoice.Mailer

// Deps contains the infrastructure the services are built from.
type Deps struct {
	Uow       repository.UnitOfWork
	Payouts   payout.Registry
	Locker    lock.Locker
	Mailer    Mailer
	Notifier  automation.Notifier
	Webhooks  payment.WebhookVerifier
	Refresher scheduler.Refresher
	Logger    *slog.Logger
	// Cleanup releases connections opened while building Deps.
	Cleanup func() error
}

type App struct {
	Deps         *Deps
	Config       *config.App
	Distribution *distribution.Service
	Salary       *salary.Service
	Invoices     *invoice.Service
	Jars         *jar.Service
	Recipients   *recipient.Service
	DealPayments *dealpayment.Service
	Calendar     *calendarSvc.Service
	Scheduler    *scheduler.TokenRefresher
}

func New(deps *Deps, cfg *config.App) *App {
	a := &App{
		Deps:   deps,
		Config: cfg,
	}

	var opts []distribution.Option
	if cfg.Redis != nil && cfg.Redis.LockTTL > 0 {
		opts = append(opts, distribution.WithLockTTL(cfg.Redis.LockTTL))
	}
	a.Distribution = distribution.New(deps.Uow, deps.Payouts, deps.Locker, deps.Logger, opts...)
	a.Salary = salary.New(deps.Uow, deps.Payouts, deps.Logger)
	a.Invoices = invoice.New(invoice.Deps{
		Uow:      deps.Uow,
		Payer:    a.Salary,
		Notifier: deps.Notifier,
		Mailer:   deps.Mailer,
		Locker:   deps.Locker,
		Salary:   cfg.Salary,
		Logger:   deps.Logger,
	})
	a.Jars = jar.New(deps.Uow, deps.Logger)
	a.Recipients = recipient.New(deps.Uow, deps.Logger)
	a.DealPayments = dealpayment.New(deps.Uow, deps.Logger)

	// Zero values fall back to the refresher defaults.
	var (
		lead time.Duration
		spec string
	)
	if cfg.Google != nil {
		lead, spec = cfg.Google.RefreshLead, cfg.Google.SweepSpec
	}
	a.Scheduler = scheduler.NewTokenRefresher(deps.Uow, deps.Refresher, lead, spec, deps.Logger)
	a.Calendar = calendarSvc.New(deps.Uow, a.Scheduler, deps.Logger)
	return a
}
