package distribution

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tapevault/backoffice/infra/provider/mockpayout"
	"github.com/tapevault/backoffice/internal/fixtures/mocks"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/domain/deal"
	"github.com/tapevault/backoffice/pkg/domain/jar"
	"github.com/tapevault/backoffice/pkg/lock"
)

type fixture struct {
	uow      *mocks.UnitOfWork
	provider *mockpayout.Provider
	locker   *lock.Local
	svc      *Service
	recorded []*jar.Transaction
	claimed  []jar.TransferStatus
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		uow:      mocks.NewUnitOfWork(t),
		provider: mockpayout.New(),
		locker:   lock.NewLocal(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = New(f.uow, mockpayout.NewRegistry(f.provider, "GB"), f.locker, logger, WithLedgerRetry(3, 0))
	return f
}

func (f *fixture) expectLedger(rows ...*jar.Transaction) {
	f.uow.JarTransactions.On("ListByDeal", mock.Anything, mock.Anything).Return(rows, nil).Once()
}

func (f *fixture) expectJars(jars ...*jar.Jar) {
	f.uow.Jars.On("ListByCountry", mock.Anything, "GB", true).Return(jars, nil).Once()
}

// expectRecord expects each jar's PENDING claim followed by its outcome.
func (f *fixture) expectRecord(times int) {
	f.expectClaim(times)
	f.uow.JarTransactions.On("UpdateResult", mock.Anything, mock.AnythingOfType("*jar.Transaction")).
		Return(nil).Times(times)
}

func (f *fixture) expectClaim(times int) {
	f.uow.JarTransactions.On("Create", mock.Anything, mock.AnythingOfType("*jar.Transaction")).
		Run(func(args mock.Arguments) {
			row := args.Get(1).(*jar.Transaction)
			f.claimed = append(f.claimed, row.Status)
			f.recorded = append(f.recorded, row)
		}).
		Return(nil).Times(times)
}

func newJar(name string, pct int64, balanceID int64) *jar.Jar {
	return &jar.Jar{
		ID:              uuid.New(),
		Name:            name,
		CountryCode:     "GB",
		Currency:        "GBP",
		BalanceID:       balanceID,
		TransferPercent: decimal.NewFromInt(pct),
		IsActive:        true,
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTransferDealToJars_SplitsByPercentage(t *testing.T) {
	f := newFixture(t)
	a, b := newJar("Marketing", 30, 11), newJar("Tax", 20, 12)
	f.expectLedger()
	f.expectJars(a, b)
	f.expectRecord(2)

	res, err := f.svc.TransferDealToJars(context.Background(), TransferRequest{
		DealID:      uuid.New(),
		Amount:      dec("1000"),
		Currency:    "GBP",
		CountryCode: "gb",
		Reference:   "Deal 42",
	})
	require.NoError(t, err)

	assert.False(t, res.AlreadyTransferred)
	assert.True(t, res.Success)
	require.Len(t, res.Transfers, 2)
	assert.True(t, dec("300").Equal(res.Transfers[0].Amount))
	assert.True(t, dec("200").Equal(res.Transfers[1].Amount))
	assert.True(t, dec("500").Equal(res.TotalTransferred))
	assert.True(t, dec("500").Equal(res.RemainingAmount))
	assert.True(t, dec("50").Equal(res.Summary.TotalPercentageUsed))
	assert.Equal(t, 2, res.Summary.SuccessCount)
	assert.Equal(t, 0, res.Summary.FailedCount)

	require.Len(t, f.recorded, 2)
	for i, row := range f.recorded {
		assert.Equal(t, jar.StatusCompleted, row.Status)
		assert.Equal(t, res.Transfers[i].JarID, row.JarID)
		assert.NotEmpty(t, row.QuoteID)
		assert.NotEmpty(t, row.TransferID)
		assert.Contains(t, row.Reference, "Deal 42")
	}
	movements := f.provider.Movements()
	require.Len(t, movements, 2)
	assert.Equal(t, int64(11), movements[0].TargetBalanceID)
	assert.Equal(t, int64(12), movements[1].TargetBalanceID)
}

func TestTransferDealToJars_RoundsEachShare(t *testing.T) {
	f := newFixture(t)
	a := newJar("A", 0, 1)
	a.TransferPercent = dec("33.33")
	b := newJar("B", 0, 2)
	b.TransferPercent = dec("33.33")
	f.expectLedger()
	f.expectJars(a, b)
	f.expectRecord(2)

	res, err := f.svc.TransferDealToJars(context.Background(), TransferRequest{
		DealID: uuid.New(), Amount: dec("100.01"), Currency: "GBP", CountryCode: "GB",
	})
	require.NoError(t, err)

	// round(100.01 * 33.33 / 100, 2) = 33.33
	for _, tr := range res.Transfers {
		assert.Equal(t, "33.33", tr.Amount.StringFixed(2))
	}
	assert.Equal(t, "66.66", res.TotalTransferred.StringFixed(2))
	assert.Equal(t, "33.35", res.RemainingAmount.StringFixed(2))
	assert.False(t, res.RemainingAmount.IsNegative())
}

func TestTransferDealToJars_RejectsOverAllocation(t *testing.T) {
	f := newFixture(t)
	f.expectLedger()
	f.expectJars(newJar("A", 60, 1), newJar("B", 50, 2))

	_, err := f.svc.TransferDealToJars(context.Background(), TransferRequest{
		DealID: uuid.New(), Amount: dec("1000"), Currency: "GBP", CountryCode: "GB",
	})
	require.ErrorIs(t, err, domain.ErrAllocationExceeded)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, f.provider.Quotes())
	assert.Empty(t, f.recorded)
}

func TestTransferDealToJars_IdempotentWithoutForce(t *testing.T) {
	f := newFixture(t)
	dealID := uuid.New()
	f.expectLedger(
		&jar.Transaction{DealID: dealID, Amount: dec("300"), Status: jar.StatusCompleted, CreatedAt: time.Now()},
		&jar.Transaction{DealID: dealID, Amount: dec("200"), Status: jar.StatusFailed, CreatedAt: time.Now()},
	)

	res, err := f.svc.TransferDealToJars(context.Background(), TransferRequest{
		DealID: dealID, Amount: dec("1000"), Currency: "GBP", CountryCode: "GB",
	})
	require.NoError(t, err)
	assert.True(t, res.AlreadyTransferred)
	assert.True(t, dec("300").Equal(res.TotalTransferred))
	require.NotNil(t, res.Existing)
	assert.Len(t, res.Existing.Successful, 1)
	assert.Len(t, res.Existing.Failed, 1)
	assert.Zero(t, f.provider.Quotes())
	f.uow.Jars.AssertNotCalled(t, "ListByCountry", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransferDealToJars_OnlyFailedRowsDoNotBlock(t *testing.T) {
	f := newFixture(t)
	dealID := uuid.New()
	f.expectLedger(&jar.Transaction{DealID: dealID, Amount: dec("300"), Status: jar.StatusFailed})
	f.expectJars(newJar("A", 30, 1))
	f.expectRecord(1)

	res, err := f.svc.TransferDealToJars(context.Background(), TransferRequest{
		DealID: dealID, Amount: dec("1000"), Currency: "GBP", CountryCode: "GB",
	})
	require.NoError(t, err)
	assert.False(t, res.AlreadyTransferred)
	assert.Len(t, f.recorded, 1)
}

func TestTransferDealToJars_ForceAppendsRows(t *testing.T) {
	f := newFixture(t)
	f.expectJars(newJar("A", 30, 1), newJar("B", 20, 2))
	f.expectRecord(2)

	res, err := f.svc.TransferDealToJars(context.Background(), TransferRequest{
		DealID: uuid.New(), Amount: dec("1000"), Currency: "GBP", CountryCode: "GB", Force: true,
	})
	require.NoError(t, err)
	assert.False(t, res.AlreadyTransferred)
	assert.Len(t, f.recorded, 2)
	f.uow.JarTransactions.AssertNotCalled(t, "ListByDeal", mock.Anything, mock.Anything)
}

func TestTransferDealToJars_SingleJarFailure(t *testing.T) {
	f := newFixture(t)
	a, b, c := newJar("A", 30, 1), newJar("B", 20, 2), newJar("C", 10, 3)
	f.provider.FailBalance(2, "balance is closed")
	f.expectLedger()
	f.expectJars(a, b, c)
	f.expectRecord(3)

	res, err := f.svc.TransferDealToJars(context.Background(), TransferRequest{
		DealID: uuid.New(), Amount: dec("1000"), Currency: "GBP", CountryCode: "GB", Reference: "Deal 7",
	})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, 2, res.Summary.SuccessCount)
	assert.Equal(t, 1, res.Summary.FailedCount)
	assert.True(t, dec("400").Equal(res.TotalTransferred))
	assert.True(t, dec("600").Equal(res.RemainingAmount))

	require.Len(t, f.recorded, 3)
	assert.Equal(t, jar.StatusCompleted, f.recorded[0].Status)
	assert.Equal(t, jar.StatusFailed, f.recorded[1].Status)
	assert.Equal(t, b.ID, f.recorded[1].JarID)
	assert.Contains(t, f.recorded[1].Reference, "balance is closed")
	assert.NotEmpty(t, f.recorded[1].QuoteID)
	assert.Empty(t, f.recorded[1].TransferID)
	assert.Equal(t, jar.StatusCompleted, f.recorded[2].Status)
	assert.Equal(t, "balance is closed", res.Transfers[1].Error)
}

func TestTransferDealToJars_ClaimsBeforeMoving(t *testing.T) {
	f := newFixture(t)
	f.expectLedger()
	f.expectJars(newJar("A", 30, 1))
	f.uow.JarTransactions.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			row := args.Get(1).(*jar.Transaction)
			assert.Equal(t, jar.StatusPending, row.Status)
			assert.Empty(t, row.TransferID)
			assert.Empty(t, f.provider.Movements())
		}).
		Return(nil).Once()
	f.uow.JarTransactions.On("UpdateResult", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			row := args.Get(1).(*jar.Transaction)
			assert.Equal(t, jar.StatusCompleted, row.Status)
			assert.NotEmpty(t, row.TransferID)
		}).
		Return(nil).Once()

	res, err := f.svc.TransferDealToJars(context.Background(), TransferRequest{
		DealID: uuid.New(), Amount: dec("100"), Currency: "GBP", CountryCode: "GB",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEqual(t, uuid.Nil, res.Transfers[0].TransactionID)
}

func TestTransferDealToJars_ClaimFailureMovesNothing(t *testing.T) {
	f := newFixture(t)
	f.expectLedger()
	f.expectJars(newJar("A", 30, 1))
	f.uow.JarTransactions.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	res, err := f.svc.TransferDealToJars(context.Background(), TransferRequest{
		DealID: uuid.New(), Amount: dec("100"), Currency: "GBP", CountryCode: "GB",
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Len(t, res.Transfers, 1)
	assert.Equal(t, jar.StatusFailed, res.Transfers[0].Status)
	assert.Equal(t, uuid.Nil, res.Transfers[0].TransactionID)
	assert.True(t, res.TotalTransferred.IsZero())
	assert.Zero(t, f.provider.Quotes())
	assert.Empty(t, f.provider.Movements())
}

func TestTransferDealToJars_UnrecordedOutcomeBlocksRerun(t *testing.T) {
	f := newFixture(t)
	dealID := uuid.New()
	req := TransferRequest{DealID: dealID, Amount: dec("100"), Currency: "GBP", CountryCode: "GB"}
	f.expectLedger()
	f.expectJars(newJar("A", 30, 1))
	f.expectClaim(1)
	f.uow.JarTransactions.On("UpdateResult", mock.Anything, mock.Anything).Return(errors.New("db down")).Times(3)

	res, err := f.svc.TransferDealToJars(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Summary.UnrecordedCount)
	require.Len(t, res.Transfers, 1)
	assert.True(t, res.Transfers[0].Unrecorded)
	assert.NotEmpty(t, res.Transfers[0].Error)
	assert.Equal(t, []jar.TransferStatus{jar.StatusPending}, f.claimed)
	require.Len(t, f.provider.Movements(), 1)

	// The stored row never left PENDING; the guard still counts it.
	stored := &jar.Transaction{DealID: dealID, Amount: dec("30"), Status: jar.StatusPending, CreatedAt: time.Now()}
	f.expectLedger(stored)

	again, err := f.svc.TransferDealToJars(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, again.AlreadyTransferred)
	assert.Len(t, f.provider.Movements(), 1)
}

func TestTransferDealToJars_SettleIsRetried(t *testing.T) {
	f := newFixture(t)
	f.expectLedger()
	f.expectJars(newJar("A", 30, 1))
	f.expectClaim(1)
	f.uow.JarTransactions.On("UpdateResult", mock.Anything, mock.Anything).Return(errors.New("db blip")).Once()
	f.uow.JarTransactions.On("UpdateResult", mock.Anything, mock.Anything).Return(nil).Once()

	res, err := f.svc.TransferDealToJars(context.Background(), TransferRequest{
		DealID: uuid.New(), Amount: dec("100"), Currency: "GBP", CountryCode: "GB",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Zero(t, res.Summary.UnrecordedCount)
	assert.False(t, res.Transfers[0].Unrecorded)
}

func TestTransferDealToJars_CurrencyMismatch(t *testing.T) {
	f := newFixture(t)
	usd := newJar("Dollars", 20, 2)
	usd.Currency = "USD"
	f.expectLedger()
	f.expectJars(newJar("A", 30, 1), usd)

	_, err := f.svc.TransferDealToJars(context.Background(), TransferRequest{
		DealID: uuid.New(), Amount: dec("1000"), Currency: "gbp", CountryCode: "GB",
	})
	require.ErrorIs(t, err, domain.ErrCurrencyMismatch)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, f.provider.Quotes())
	assert.Empty(t, f.recorded)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Deal", truncate("Deal", 10))
	assert.Equal(t, "Dé", truncate("Déal", 2))
	got := truncate(strings.Repeat("ü", 600), maxReferenceLength)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, maxReferenceLength, utf8.RuneCountInString(got))
}

func TestTransferDealToJars_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     TransferRequest
		setup   func(f *fixture)
		wantErr error
	}{
		{
			name:    "zero amount",
			req:     TransferRequest{Amount: decimal.Zero, Currency: "GBP", CountryCode: "GB"},
			wantErr: domain.ErrAmountMustBePositive,
		},
		{
			name:    "missing currency",
			req:     TransferRequest{Amount: dec("10"), CountryCode: "GB"},
			wantErr: domain.ErrCurrencyRequired,
		},
		{
			name:    "missing country",
			req:     TransferRequest{Amount: dec("10"), CountryCode: " "},
			wantErr: domain.ErrCountryRequired,
		},
		{
			name: "no receiving jars",
			req:  TransferRequest{Amount: dec("10"), Currency: "GBP", CountryCode: "GB"},
			setup: func(f *fixture) {
				f.expectLedger()
				f.expectJars(newJar("Zero", 0, 1))
			},
			wantErr: domain.ErrNoActiveJars,
		},
		{
			name: "unsupported country",
			req:  TransferRequest{Amount: dec("10"), Currency: "GBP", CountryCode: "FR"},
			setup: func(f *fixture) {
				f.expectLedger()
				f.uow.Jars.On("ListByCountry", mock.Anything, "FR", true).Return([]*jar.Jar{newJar("A", 10, 1)}, nil).Once()
			},
			wantErr: domain.ErrUnsupportedCountry,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}
			tt.req.DealID = uuid.New()
			_, err := f.svc.TransferDealToJars(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, f.provider.Quotes())
		})
	}
}

func TestTransferDealToJars_LockHeld(t *testing.T) {
	f := newFixture(t)
	dealID := uuid.New()
	_, err := f.locker.Obtain(context.Background(), "jar-transfer:"+dealID.String(), time.Minute)
	require.NoError(t, err)

	_, err = f.svc.TransferDealToJars(context.Background(), TransferRequest{
		DealID: dealID, Amount: dec("10"), Currency: "GBP", CountryCode: "GB",
	})
	assert.ErrorIs(t, err, domain.ErrTransferInProgress)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestTransferDealToJars_ReleasesLock(t *testing.T) {
	f := newFixture(t)
	dealID := uuid.New()
	f.expectLedger()
	f.expectJars(newJar("A", 10, 1))
	f.expectRecord(1)

	_, err := f.svc.TransferDealToJars(context.Background(), TransferRequest{DealID: dealID, Amount: dec("10"), Currency: "GBP", CountryCode: "GB"})
	require.NoError(t, err)

	release, err := f.locker.Obtain(context.Background(), "jar-transfer:"+dealID.String(), time.Minute)
	require.NoError(t, err)
	require.NoError(t, release(context.Background()))
}

func TestTransferDeal_LoadsDeal(t *testing.T) {
	f := newFixture(t)
	d := &deal.Deal{ID: uuid.New(), Amount: dec("1000"), Currency: "GBP", CountryCode: "GB"}
	f.uow.Deals.On("Get", mock.Anything, d.ID).Return(d, nil).Once()
	f.expectLedger()
	f.expectJars(newJar("A", 30, 1))
	f.expectRecord(1)

	res, err := f.svc.TransferDeal(context.Background(), d.ID, "", false)
	require.NoError(t, err)
	assert.True(t, dec("300").Equal(res.TotalTransferred))
	assert.Equal(t, "GBP", res.Currency)
	assert.True(t, strings.HasPrefix(f.recorded[0].Reference, "Deal "+d.ID.String()))

	missing := uuid.New()
	f.uow.Deals.On("Get", mock.Anything, missing).Return(nil, domain.ErrDealNotFound).Once()
	_, err = f.svc.TransferDeal(context.Background(), missing, "", false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckDealTransferStatus(t *testing.T) {
	f := newFixture(t)
	dealID := uuid.New()
	older := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	f.expectLedger(
		&jar.Transaction{Amount: dec("300"), Status: jar.StatusCompleted, CreatedAt: older},
		&jar.Transaction{Amount: dec("50"), Status: jar.StatusProcessing, CreatedAt: newer},
		&jar.Transaction{Amount: dec("200"), Status: jar.StatusFailed, CreatedAt: older},
	)

	st, err := f.svc.CheckDealTransferStatus(context.Background(), dealID)
	require.NoError(t, err)
	assert.True(t, st.HasTransfers)
	assert.Len(t, st.Successful, 2)
	assert.Len(t, st.Failed, 1)
	assert.Equal(t, "350.00", st.TotalTransferred.StringFixed(2))
	assert.Equal(t, "200.00", st.TotalFailed.StringFixed(2))
	require.NotNil(t, st.LastTransferAt)
	assert.Equal(t, newer, *st.LastTransferAt)
}
