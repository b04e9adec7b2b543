package jar

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tapevault/backoffice/internal/fixtures/mocks"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/domain/jar"
)

func newService(t *testing.T) (*Service, *mocks.UnitOfWork) {
	uow := mocks.NewUnitOfWork(t)
	return New(uow, slog.New(slog.NewTextHandler(io.Discard, nil))), uow
}

func stored(pct int64, active bool) *jar.Jar {
	return &jar.Jar{ID: uuid.New(), CountryCode: "GB", Currency: "GBP", TransferPercent: decimal.NewFromInt(pct), IsActive: active}
}

func input(pct int64) Input {
	return Input{Name: "Ops", CountryCode: "gb", Currency: "gbp", BalanceID: 3, TransferPercent: decimal.NewFromInt(pct), IsActive: true}
}

func TestCreate_WithinAllocation(t *testing.T) {
	svc, uow := newService(t)
	uow.Jars.On("LockCountry", mock.Anything, "GB").Return([]*jar.Jar{stored(60, true), stored(50, false)}, nil).Once()
	uow.Jars.On("Create", mock.Anything, mock.AnythingOfType("*jar.Jar")).Return(nil).Once()

	j, err := svc.Create(context.Background(), input(40))
	require.NoError(t, err)
	assert.Equal(t, "GB", j.CountryCode)
	assert.Equal(t, "GBP", j.Currency)
	assert.Equal(t, 1, uow.DoCalls)
}

func TestCreate_ExceedingAllocation(t *testing.T) {
	svc, uow := newService(t)
	uow.Jars.On("LockCountry", mock.Anything, "GB").Return([]*jar.Jar{stored(60, true)}, nil).Once()

	_, err := svc.Create(context.Background(), input(50))
	require.ErrorIs(t, err, domain.ErrAllocationExceeded)
	uow.Jars.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_FirstJarOfCountryTakesLock(t *testing.T) {
	svc, uow := newService(t)
	uow.Jars.On("LockCountry", mock.Anything, "GB").Return([]*jar.Jar{}, nil).Once()
	uow.Jars.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := svc.Create(context.Background(), input(100))
	require.NoError(t, err)
	uow.Jars.AssertCalled(t, "LockCountry", mock.Anything, "GB")

	uow.Jars.On("LockCountry", mock.Anything, "GB").Return(nil, domain.ErrConflict).Once()
	_, err = svc.Create(context.Background(), input(10))
	assert.ErrorIs(t, err, domain.ErrConflict)
	uow.Jars.AssertNumberOfCalls(t, "Create", 1)
}

func TestCreate_InactiveDoesNotCount(t *testing.T) {
	svc, uow := newService(t)
	uow.Jars.On("LockCountry", mock.Anything, "GB").Return([]*jar.Jar{stored(90, true)}, nil).Once()
	uow.Jars.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	in := input(50)
	in.IsActive = false
	_, err := svc.Create(context.Background(), in)
	assert.NoError(t, err)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newService(t)
	tests := []struct {
		name   string
		mutate func(*Input)
		want   error
	}{
		{"percent above 100", func(in *Input) { in.TransferPercent = decimal.NewFromInt(101) }, domain.ErrInvalidPercent},
		{"negative percent", func(in *Input) { in.TransferPercent = decimal.NewFromInt(-1) }, domain.ErrInvalidPercent},
		{"missing country", func(in *Input) { in.CountryCode = "" }, domain.ErrCountryRequired},
		{"bad currency", func(in *Input) { in.Currency = "POUND" }, domain.ErrValidation},
		{"missing name", func(in *Input) { in.Name = " " }, domain.ErrValidation},
		{"missing balance", func(in *Input) { in.BalanceID = 0 }, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(10)
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdate_ReplacesOwnShare(t *testing.T) {
	svc, uow := newService(t)
	existing := stored(60, true)
	other := stored(30, true)
	uow.Jars.On("Get", mock.Anything, existing.ID).Return(existing, nil).Once()
	uow.Jars.On("LockCountry", mock.Anything, "GB").Return([]*jar.Jar{existing, other}, nil).Once()
	uow.Jars.On("Update", mock.Anything, existing).Return(nil).Once()

	// 70 + 30 = 100: the old 60 must not be counted again.
	j, err := svc.Update(context.Background(), existing.ID, input(70))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(70).Equal(j.TransferPercent))
}

func TestUpdate_CountryChangeLocksBoth(t *testing.T) {
	svc, uow := newService(t)
	existing := stored(20, true)
	existing.CountryCode = "DE"
	uow.Jars.On("Get", mock.Anything, existing.ID).Return(existing, nil).Once()
	uow.Jars.On("LockCountry", mock.Anything, "DE").Return([]*jar.Jar{existing}, nil).Once()
	uow.Jars.On("LockCountry", mock.Anything, "GB").Return([]*jar.Jar{stored(90, true)}, nil).Once()

	_, err := svc.Update(context.Background(), existing.ID, input(20))
	assert.ErrorIs(t, err, domain.ErrAllocationExceeded)
}

func TestDeleteAndList(t *testing.T) {
	svc, uow := newService(t)
	id := uuid.New()
	uow.Jars.On("Delete", mock.Anything, id).Return(nil).Once()
	require.NoError(t, svc.Delete(context.Background(), id))

	missing := uuid.New()
	uow.Jars.On("Delete", mock.Anything, missing).Return(domain.ErrJarNotFound).Once()
	assert.ErrorIs(t, svc.Delete(context.Background(), missing), domain.ErrNotFound)

	uow.Jars.On("ListByCountry", mock.Anything, "GB", false).Return([]*jar.Jar{stored(10, false)}, nil).Once()
	jars, err := svc.List(context.Background(), " gb ")
	require.NoError(t, err)
	assert.Len(t, jars, 1)
}
