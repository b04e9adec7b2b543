package distribution

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tapevault/backoffice/pkg/domain/jar"
)

// TransferRequest asks for a deal amount to be spread over the country's jars.
type TransferRequest struct {
	DealID      uuid.UUID
	Amount      decimal.Decimal
	// Currency of the deal; every receiving jar must hold it.
	Currency    string
	CountryCode string
	Reference   string
	// Force skips the ledger guard; new rows are appended next to the old ones.
	Force       bool
}

// JarResult is the outcome of one jar's quote and balance movement.
type JarResult struct {
	JarID         uuid.UUID
	JarName       string
	Percent       decimal.Decimal
	Amount        decimal.Decimal
	Currency      string
	Status        jar.TransferStatus
	QuoteID       string
	TransferID    string
	TransactionID uuid.UUID
	Error         string
	// Unrecorded is set when the outcome could not be written and the
	// ledger row was left PENDING.
	Unrecorded    bool
}

// Summary aggregates the jar results.
type Summary struct {
	TotalPercentageUsed decimal.Decimal
	JarCount            int
	SuccessCount        int
	FailedCount         int
	UnrecordedCount     int
}

// Result of TransferDealToJars. When AlreadyTransferred is set no provider
// call was made and Existing holds the ledger state that triggered the guard.
type Result struct {
	DealID             uuid.UUID
	AlreadyTransferred bool
	Success            bool
	Currency           string
	DealAmount         decimal.Decimal
	TotalTransferred   decimal.Decimal
	RemainingAmount    decimal.Decimal
	Transfers          []JarResult
	Summary            Summary
	Existing           *LedgerStatus
}

// LedgerStatus is the persisted transfer state of a deal.
type LedgerStatus struct {
	DealID           uuid.UUID
	HasTransfers     bool
	Successful       []*jar.Transaction
	Failed           []*jar.Transaction
	TotalTransferred decimal.Decimal
	TotalFailed      decimal.Decimal
	LastTransferAt   *time.Time
}
