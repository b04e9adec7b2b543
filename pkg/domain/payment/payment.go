// Package payment records salary disbursements to technicians.
package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tapevault/backoffice/pkg/domain/jar"
)

// WiseTransaction is the single ledger row written per salary payment attempt.
// It is created PENDING before any provider call and updated with the outcome.
type WiseTransaction struct {
	ID                 uuid.UUID
	InvoiceID          *uuid.UUID
	TechnicianID       uuid.UUID
	RecipientAccountID uuid.UUID
	Amount             decimal.Decimal
	Currency           string
	QuoteID            string
	TransferID         string
	Status             jar.TransferStatus
	Reference          string
	ErrorMessage       string
	CreatedAt          time.Time
}

// Settled reports whether the provider accepted the transfer. A PENDING row
// without a transfer id is a claim whose outcome was never written.
func (t *WiseTransaction) Settled() bool {
	return t.TransferID != "" && t.Status.IsSuccessful()
}

// TechnicianPayment captures the figures used to pay one invoice.
type TechnicianPayment struct {
	ID                uuid.UUID
	InvoiceID         uuid.UUID
	TechnicianID      uuid.UUID
	InvoicePrice      decimal.Decimal
	SalaryPercent     decimal.Decimal
	SalaryAmount      decimal.Decimal
	Currency          string
	WiseTransactionID uuid.UUID
	CreatedAt         time.Time
}
