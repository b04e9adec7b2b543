// Package mocks holds testify mocks for the repository and provider ports.
package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/tapevault/backoffice/pkg/domain/calendar"
	"github.com/tapevault/backoffice/pkg/domain/deal"
	"github.com/tapevault/backoffice/pkg/domain/invoice"
	"github.com/tapevault/backoffice/pkg/domain/jar"
	"github.com/tapevault/backoffice/pkg/domain/payment"
	"github.com/tapevault/backoffice/pkg/domain/recipient"
	"github.com/tapevault/backoffice/pkg/domain/technician"
)

// TestingT is what the constructors need from *testing.T.
type TestingT interface {
	mock.TestingT
	Cleanup(func())
}

func register(m *mock.Mock, t TestingT) {
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
}

// ret0 returns the first return value as T, tolerating nil.
func ret0[T any](args mock.Arguments) T {
	var zero T
	if v := args.Get(0); v != nil {
		return v.(T)
	}
	return zero
}

type DealRepository struct{ mock.Mock }

func NewDealRepository(t TestingT) *DealRepository {
	m := &DealRepository{}
	register(&m.Mock, t)
	return m
}

func (m *DealRepository) Get(ctx context.Context, id uuid.UUID) (*deal.Deal, error) {
	args := m.Called(ctx, id)
	return ret0[*deal.Deal](args), args.Error(1)
}

func (m *DealRepository) UpdateAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return m.Called(ctx, id, amount).Error(0)
}

func (m *DealRepository) MarkPaid(ctx context.Context, id uuid.UUID, reference string, at time.Time) error {
	return m.Called(ctx, id, reference, at).Error(0)
}

func (m *DealRepository) ListProducts(ctx context.Context, dealID uuid.UUID) ([]*deal.Product, error) {
	args := m.Called(ctx, dealID)
	return ret0[[]*deal.Product](args), args.Error(1)
}

func (m *DealRepository) CreateProduct(ctx context.Context, p *deal.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *DealRepository) UpdateProduct(ctx context.Context, p *deal.Product) error {
	return m.Called(ctx, p).Error(0)
}

type OrderRepository struct{ mock.Mock }

func NewOrderRepository(t TestingT) *OrderRepository {
	m := &OrderRepository{}
	register(&m.Mock, t)
	return m
}

func (m *OrderRepository) Get(ctx context.Context, id uuid.UUID) (*deal.Order, error) {
	args := m.Called(ctx, id)
	return ret0[*deal.Order](args), args.Error(1)
}

func (m *OrderRepository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

type CustomerRepository struct{ mock.Mock }

func NewCustomerRepository(t TestingT) *CustomerRepository {
	m := &CustomerRepository{}
	register(&m.Mock, t)
	return m
}

func (m *CustomerRepository) Get(ctx context.Context, id uuid.UUID) (*deal.Customer, error) {
	args := m.Called(ctx, id)
	return ret0[*deal.Customer](args), args.Error(1)
}

type JarRepository struct{ mock.Mock }

func NewJarRepository(t TestingT) *JarRepository {
	m := &JarRepository{}
	register(&m.Mock, t)
	return m
}

func (m *JarRepository) Get(ctx context.Context, id uuid.UUID) (*jar.Jar, error) {
	args := m.Called(ctx, id)
	return ret0[*jar.Jar](args), args.Error(1)
}

func (m *JarRepository) ListByCountry(ctx context.Context, country string, activeOnly bool) ([]*jar.Jar, error) {
	args := m.Called(ctx, country, activeOnly)
	return ret0[[]*jar.Jar](args), args.Error(1)
}

func (m *JarRepository) LockCountry(ctx context.Context, country string) ([]*jar.Jar, error) {
	args := m.Called(ctx, country)
	return ret0[[]*jar.Jar](args), args.Error(1)
}

func (m *JarRepository) Create(ctx context.Context, j *jar.Jar) error {
	return m.Called(ctx, j).Error(0)
}

func (m *JarRepository) Update(ctx context.Context, j *jar.Jar) error {
	return m.Called(ctx, j).Error(0)
}

func (m *JarRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type JarTransactionRepository struct{ mock.Mock }

func NewJarTransactionRepository(t TestingT) *JarTransactionRepository {
	m := &JarTransactionRepository{}
	register(&m.Mock, t)
	return m
}

func (m *JarTransactionRepository) Create(ctx context.Context, tx *jar.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *JarTransactionRepository) UpdateResult(ctx context.Context, tx *jar.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *JarTransactionRepository) ListByDeal(ctx context.Context, dealID uuid.UUID) ([]*jar.Transaction, error) {
	args := m.Called(ctx, dealID)
	return ret0[[]*jar.Transaction](args), args.Error(1)
}

type InvoiceRepository struct{ mock.Mock }

func NewInvoiceRepository(t TestingT) *InvoiceRepository {
	m := &InvoiceRepository{}
	register(&m.Mock, t)
	return m
}

func (m *InvoiceRepository) Get(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	args := m.Called(ctx, id)
	return ret0[*invoice.Invoice](args), args.Error(1)
}

func (m *InvoiceRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	args := m.Called(ctx, id)
	return ret0[*invoice.Invoice](args), args.Error(1)
}

func (m *InvoiceRepository) List(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, int64, error) {
	args := m.Called(ctx, filter)
	var total int64
	if v := args.Get(1); v != nil {
		total = v.(int64)
	}
	return ret0[[]*invoice.Invoice](args), total, args.Error(2)
}

func (m *InvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *InvoiceRepository) UpdateStatus(ctx context.Context, inv *invoice.Invoice) error {
	return m.Called(ctx, inv).Error(0)
}

type RecipientRepository struct{ mock.Mock }

func NewRecipientRepository(t TestingT) *RecipientRepository {
	m := &RecipientRepository{}
	register(&m.Mock, t)
	return m
}

func (m *RecipientRepository) Get(ctx context.Context, id uuid.UUID) (*recipient.Account, error) {
	args := m.Called(ctx, id)
	return ret0[*recipient.Account](args), args.Error(1)
}

func (m *RecipientRepository) ListByTechnician(ctx context.Context, technicianID uuid.UUID) ([]*recipient.Account, error) {
	args := m.Called(ctx, technicianID)
	return ret0[[]*recipient.Account](args), args.Error(1)
}

func (m *RecipientRepository) GetDefault(ctx context.Context, technicianID uuid.UUID) (*recipient.Account, error) {
	args := m.Called(ctx, technicianID)
	return ret0[*recipient.Account](args), args.Error(1)
}

func (m *RecipientRepository) Create(ctx context.Context, acc *recipient.Account) error {
	return m.Called(ctx, acc).Error(0)
}

func (m *RecipientRepository) ClearDefault(ctx context.Context, technicianID uuid.UUID) error {
	return m.Called(ctx, technicianID).Error(0)
}

func (m *RecipientRepository) SetDefault(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RecipientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type WiseTransactionRepository struct{ mock.Mock }

func NewWiseTransactionRepository(t TestingT) *WiseTransactionRepository {
	m := &WiseTransactionRepository{}
	register(&m.Mock, t)
	return m
}

func (m *WiseTransactionRepository) Create(ctx context.Context, tx *payment.WiseTransaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *WiseTransactionRepository) UpdateResult(ctx context.Context, tx *payment.WiseTransaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *WiseTransactionRepository) FindActiveByInvoice(ctx context.Context, invoiceID uuid.UUID) (*payment.WiseTransaction, error) {
	args := m.Called(ctx, invoiceID)
	return ret0[*payment.WiseTransaction](args), args.Error(1)
}

type TechnicianPaymentRepository struct{ mock.Mock }

func NewTechnicianPaymentRepository(t TestingT) *TechnicianPaymentRepository {
	m := &TechnicianPaymentRepository{}
	register(&m.Mock, t)
	return m
}

func (m *TechnicianPaymentRepository) Create(ctx context.Context, p *payment.TechnicianPayment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *TechnicianPaymentRepository) GetByInvoice(ctx context.Context, invoiceID uuid.UUID) (*payment.TechnicianPayment, error) {
	args := m.Called(ctx, invoiceID)
	return ret0[*payment.TechnicianPayment](args), args.Error(1)
}

type TechnicianRepository struct{ mock.Mock }

func NewTechnicianRepository(t TestingT) *TechnicianRepository {
	m := &TechnicianRepository{}
	register(&m.Mock, t)
	return m
}

func (m *TechnicianRepository) Get(ctx context.Context, id uuid.UUID) (*technician.Technician, error) {
	args := m.Called(ctx, id)
	return ret0[*technician.Technician](args), args.Error(1)
}

type CalendarUserRepository struct{ mock.Mock }

func NewCalendarUserRepository(t TestingT) *CalendarUserRepository {
	m := &CalendarUserRepository{}
	register(&m.Mock, t)
	return m
}

func (m *CalendarUserRepository) Get(ctx context.Context, id uuid.UUID) (*calendar.User, error) {
	args := m.Called(ctx, id)
	return ret0[*calendar.User](args), args.Error(1)
}

func (m *CalendarUserRepository) ListConnected(ctx context.Context) ([]*calendar.User, error) {
	args := m.Called(ctx)
	return ret0[[]*calendar.User](args), args.Error(1)
}

func (m *CalendarUserRepository) UpdateToken(ctx context.Context, id uuid.UUID, token json.RawMessage) error {
	return m.Called(ctx, id, token).Error(0)
}
