package app

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tapevault/backoffice/infra/provider/mockpayout"
	"github.com/tapevault/backoffice/internal/fixtures/mocks"
	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/pkg/lock"
)

func TestNew_WiresServices(t *testing.T) {
	deps := &Deps{
		Uow:     mocks.NewUnitOfWork(t),
		Payouts: mockpayout.NewRegistry(mockpayout.New(), "GB"),
		Locker:  lock.NewLocal(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	cfg := &config.App{
		Redis:  &config.Redis{LockTTL: time.Minute},
		Salary: &config.Salary{Percentages: map[string]float64{"GB": 40}},
		Google: &config.Google{RefreshLead: time.Minute, SweepSpec: "@every 10m"},
	}

	a := New(deps, cfg)
	require.NotNil(t, a)
	assert.Same(t, deps, a.Deps)
	assert.NotNil(t, a.Distribution)
	assert.NotNil(t, a.Salary)
	assert.NotNil(t, a.Invoices)
	assert.NotNil(t, a.Jars)
	assert.NotNil(t, a.Recipients)
	assert.NotNil(t, a.DealPayments)
	assert.NotNil(t, a.Calendar)
	assert.NotNil(t, a.Scheduler)
}

func TestNew_WithoutOptionalConfig(t *testing.T) {
	deps := &Deps{
		Uow:    mocks.NewUnitOfWork(t),
		Locker: lock.NewLocal(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	a := New(deps, &config.App{})
	assert.NotNil(t, a.Scheduler)
	assert.NotNil(t, a.Calendar)
}
