// Package invoice implements the technician invoice lifecycle:
//
//	pending -> approved -> paid
//	pending -> rejected
//
// paid and rejected are terminal.
package invoice

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tapevault/backoffice/pkg/domain"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPaid     Status = "paid"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusPaid:
		return true
	}
	return false
}

type Item struct {
	ID        uuid.UUID
	InvoiceID uuid.UUID
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Total is quantity × unit price.
func (i *Item) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Invoice is a technician's claim for a completed order.
type Invoice struct {
	ID           uuid.UUID
	TechnicianID uuid.UUID
	OrderID      uuid.UUID
	DealID       uuid.UUID
	Number       string
	Price        decimal.Decimal
	Currency     string
	Status       Status
	Notes        string
	Items        []*Item
	ApprovedAt   *time.Time
	RejectedAt   *time.Time
	PaidAt       *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ItemsTotal sums the line items.
func (inv *Invoice) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range inv.Items {
		total = total.Add(it.Total())
	}
	return total
}

// Approve moves a pending invoice to approved.
func (inv *Invoice) Approve(at time.Time) error {
	if inv.Status != StatusPending {
		return transitionError(inv.Status, StatusApproved)
	}
	inv.Status = StatusApproved
	inv.ApprovedAt = &at
	return nil
}

// Reject moves a pending invoice to rejected.
func (inv *Invoice) Reject(at time.Time, reason string) error {
	if inv.Status != StatusPending {
		return transitionError(inv.Status, StatusRejected)
	}
	inv.Status = StatusRejected
	inv.RejectedAt = &at
	if reason != "" {
		inv.Notes = reason
	}
	return nil
}

// CanPay checks the invoice may be paid without changing it.
func (inv *Invoice) CanPay() error {
	switch inv.Status {
	case StatusPaid:
		return domain.ErrInvoiceAlreadyPaid
	case StatusApproved:
		return nil
	default:
		return transitionError(inv.Status, StatusPaid)
	}
}

// MarkPaid moves an approved invoice to paid.
func (inv *Invoice) MarkPaid(at time.Time) error {
	if err := inv.CanPay(); err != nil {
		return err
	}
	inv.Status = StatusPaid
	inv.PaidAt = &at
	return nil
}

func transitionError(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	Page         int
	Limit        int
	Search       string
	Status       Status
	TechnicianID *uuid.UUID
}

// Offset returns the row offset for the page (pages start at 1).
func (f ListFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
