// Package payout defines the contract of a Wise-like payments provider:
// quotes, transfers, funding and balance movements.
package payout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tapevault/backoffice/pkg/domain"
)

// PayOut selects how a quote is settled.
type PayOut string

const (
	// PayOutBalance settles into one of our own provider balances.
	PayOutBalance PayOut = "BALANCE"
	// PayOutBankTransfer settles to an external recipient account.
	PayOutBankTransfer PayOut = "BANK_TRANSFER"
)

type QuoteRequest struct {
	SourceCurrency string
	TargetCurrency string
	SourceAmount   decimal.Decimal
	// TargetAccount is the recipient id; zero for balance quotes.
	TargetAccount int64
	PayOut        PayOut
}

type Quote struct {
	ID           string
	Rate         decimal.Decimal
	SourceAmount decimal.Decimal
	TargetAmount decimal.Decimal
	Status       string
}

type TransferRequest struct {
	QuoteID               string
	TargetAccount         int64
	Reference             string
	CustomerTransactionID uuid.UUID
}

type Transfer struct {
	ID     string
	Status string
}

type Funding struct {
	Status    string
	ErrorCode string
}

type BalanceMovementRequest struct {
	QuoteID         string
	SourceBalanceID int64
	TargetBalanceID int64
	IdempotencyKey  uuid.UUID
}

type BalanceMovement struct {
	ID     string
	Status string
}

// Client talks to the provider on behalf of a single country's account.
type Client interface {
	CreateQuote(ctx context.Context, req *QuoteRequest) (*Quote, error)
	CreateTransfer(ctx context.Context, req *TransferRequest) (*Transfer, error)
	FundTransfer(ctx context.Context, transferID string) (*Funding, error)
	MoveBalance(ctx context.Context, req *BalanceMovementRequest) (*BalanceMovement, error)
}

// Registry resolves the client configured for a country.
type Registry interface {
	// ForCountry fails with domain.ErrUnsupportedCountry for unknown countries.
	ForCountry(country string) (Client, error)
	Countries() []string
}

// Error is a provider failure. Message is taken from the provider error
// body when present.
type Error struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: provider returned %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return domain.ErrProvider }

// Message extracts the human readable part of a provider error, falling
// back to err.Error().
func Message(err error) string {
	var perr *Error
	if errors.As(err, &perr) && perr.Message != "" {
		return perr.Message
	}
	return err.Error()
}
