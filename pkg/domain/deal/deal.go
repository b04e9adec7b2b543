// Package deal holds sale records and the orders fulfilling them.
package deal

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Deal is a sale linking a customer, a technician and an amount.
type Deal struct {
	ID              uuid.UUID
	Amount          decimal.Decimal
	Currency        string
	CountryCode     string
	CustomerID      uuid.UUID
	TechnicianID    uuid.UUID
	PipelineStage   string
	PaymentStatus   PaymentStatus
	PaidAt          *time.Time
	StripeReference string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsPaid reports whether the customer payment was recorded.
func (d *Deal) IsPaid() bool { return d.PaymentStatus == PaymentPaid }

// Product is a line on a deal.
type Product struct {
	ID        uuid.UUID
	DealID    uuid.UUID
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Total is quantity × unit price.
func (p *Product) Total() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// ProductKey normalises a product name for matching invoice items to deal products.
func ProductKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Total sums the product lines.
func Total(products []*Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Total())
	}
	return total
}

type OrderStatus string

const (
	OrderOpen      OrderStatus = "open"
	OrderCompleted OrderStatus = "completed"
)

// Order is the fulfilment job a technician performs for a deal.
type Order struct {
	ID           uuid.UUID
	DealID       uuid.UUID
	TechnicianID uuid.UUID
	CustomerID   uuid.UUID
	Status       OrderStatus
	CompletedAt  *time.Time
}

// Customer is read only here; it feeds CRM notifications.
type Customer struct {
	ID    uuid.UUID
	Name  string
	Email string
	Phone string
}
