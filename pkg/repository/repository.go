package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tapevault/backoffice/pkg/domain/calendar"
	"github.com/tapevault/backoffice/pkg/domain/deal"
	"github.com/tapevault/backoffice/pkg/domain/invoice"
	"github.com/tapevault/backoffice/pkg/domain/jar"
	"github.com/tapevault/backoffice/pkg/domain/payment"
	"github.com/tapevault/backoffice/pkg/domain/recipient"
	"github.com/tapevault/backoffice/pkg/domain/technician"
)

// All repositories exclude soft-deleted rows from reads, and Delete only
// tombstones the row.

// DealRepository defines data access for deals and their products.
type DealRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*deal.Deal, error)
	UpdateAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	MarkPaid(ctx context.Context, id uuid.UUID, reference string, at time.Time) error
	ListProducts(ctx context.Context, dealID uuid.UUID) ([]*deal.Product, error)
	CreateProduct(ctx context.Context, p *deal.Product) error
	UpdateProduct(ctx context.Context, p *deal.Product) error
}

// OrderRepository defines data access for orders.
type OrderRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*deal.Order, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error
}

// CustomerRepository is read only.
type CustomerRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*deal.Customer, error)
}

// JarRepository defines data access for jar configuration.
type JarRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*jar.Jar, error)
	// ListByCountry returns the country's jars, active only when activeOnly is set.
	ListByCountry(ctx context.Context, country string, activeOnly bool) ([]*jar.Jar, error)
	// LockCountry serialises writers for the country and returns its jars
	// row locked. Both locks are held until the surrounding transaction ends.
	LockCountry(ctx context.Context, country string) ([]*jar.Jar, error)
	Create(ctx context.Context, j *jar.Jar) error
	Update(ctx context.Context, j *jar.Jar) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// JarTransactionRepository is the transfer ledger. Rows are never deleted;
// a row is written before its transfer and updated once with the outcome.
type JarTransactionRepository interface {
	Create(ctx context.Context, tx *jar.Transaction) error
	// UpdateResult stores the quote, transfer id, status and reference.
	UpdateResult(ctx context.Context, tx *jar.Transaction) error
	ListByDeal(ctx context.Context, dealID uuid.UUID) ([]*jar.Transaction, error)
}

// InvoiceRepository defines data access for technician invoices.
type InvoiceRepository interface {
	// Get returns the invoice with its items.
	Get(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error)
	// GetForUpdate is Get with a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error)
	List(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, int64, error)
	// Create inserts the invoice and its items.
	Create(ctx context.Context, inv *invoice.Invoice) error
	// UpdateStatus persists status, timestamps and notes.
	UpdateStatus(ctx context.Context, inv *invoice.Invoice) error
}

// RecipientRepository defines data access for technician payout accounts.
type RecipientRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*recipient.Account, error)
	ListByTechnician(ctx context.Context, technicianID uuid.UUID) ([]*recipient.Account, error)
	GetDefault(ctx context.Context, technicianID uuid.UUID) (*recipient.Account, error)
	Create(ctx context.Context, acc *recipient.Account) error
	ClearDefault(ctx context.Context, technicianID uuid.UUID) error
	SetDefault(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// WiseTransactionRepository records salary payment attempts.
type WiseTransactionRepository interface {
	Create(ctx context.Context, tx *payment.WiseTransaction) error
	// UpdateResult stores the provider ids, status and error of an attempt.
	UpdateResult(ctx context.Context, tx *payment.WiseTransaction) error
	// FindActiveByInvoice returns the invoice's attempt that is not FAILED,
	// or ErrNotFound.
	FindActiveByInvoice(ctx context.Context, invoiceID uuid.UUID) (*payment.WiseTransaction, error)
}

// TechnicianPaymentRepository records paid invoices.
type TechnicianPaymentRepository interface {
	Create(ctx context.Context, p *payment.TechnicianPayment) error
	GetByInvoice(ctx context.Context, invoiceID uuid.UUID) (*payment.TechnicianPayment, error)
}

// TechnicianRepository is read only.
type TechnicianRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*technician.Technician, error)
}

// CalendarUserRepository defines data access for Google connected users.
type CalendarUserRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*calendar.User, error)
	// ListConnected returns users holding a stored token.
	ListConnected(ctx context.Context) ([]*calendar.User, error)
	// UpdateToken replaces the stored token; nil disconnects the user.
	UpdateToken(ctx context.Context, id uuid.UUID, token json.RawMessage) error
}
