// Package invoice drives technician invoices through approval and payment.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/domain/deal"
	"github.com/tapevault/backoffice/pkg/domain/invoice"
	"github.com/tapevault/backoffice/pkg/domain/payment"
	"github.com/tapevault/backoffice/pkg/domain/recipient"
	"github.com/tapevault/backoffice/pkg/lock"
	"github.com/tapevault/backoffice/pkg/money"
	"github.com/tapevault/backoffice/pkg/provider/automation"
	"github.com/tapevault/backoffice/pkg/repository"
	"github.com/tapevault/backoffice/pkg/service/salary"
)

const payLockTTL = 2 * time.Minute

// SalaryPayer executes technician payouts.
type SalaryPayer interface {
	DefaultRecipient(ctx context.Context, technicianID uuid.UUID) (*recipient.Account, error)
	SendMoneyToTechnician(ctx context.Context, req salary.Request) (*payment.WiseTransaction, error)
	// ActivePayout returns the invoice's attempt that is not FAILED, or
	// domain.ErrNotFound.
	ActivePayout(ctx context.Context, invoiceID uuid.UUID) (*payment.WiseTransaction, error)
}

// Mailer sends plain text notifications.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Deps groups the collaborators of the invoice service.
type Deps struct {
	Uow      repository.UnitOfWork
	Payer    SalaryPayer
	Notifier automation.Notifier
	Mailer   Mailer
	Locker   lock.Locker
	Salary   *config.Salary
	Logger   *slog.Logger
}

type Service struct {
	uow      repository.UnitOfWork
	payer    SalaryPayer
	notifier automation.Notifier
	mailer   Mailer
	locker   lock.Locker
	salary   *config.Salary
	logger   *slog.Logger
	now      func() time.Time
}

func New(deps Deps) *Service {
	locker := deps.Locker
	if locker == nil {
		locker = lock.NewLocal()
	}
	sal := deps.Salary
	if sal == nil {
		sal = &config.Salary{}
	}
	return &Service{
		uow:      deps.Uow,
		payer:    deps.Payer,
		notifier: deps.Notifier,
		mailer:   deps.Mailer,
		locker:   locker,
		salary:   sal,
		logger:   deps.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SubmitItem is one line of a submitted invoice.
type SubmitItem struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// SubmitInput is what a technician sends for a completed order.
type SubmitInput struct {
	TechnicianID uuid.UUID
	OrderID      uuid.UUID
	Number       string
	Notes        string
	Items        []SubmitItem
}

// Submit creates a pending invoice for an order. The price is the sum of
// the items and the currency follows the order's deal.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (inv *invoice.Invoice, err error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyInvoice
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		orders, err := uow.OrderRepository()
		if err != nil {
			return err
		}
		order, err := orders.Get(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if order.TechnicianID != uuid.Nil && order.TechnicianID != in.TechnicianID {
			return fmt.Errorf("%w: order is assigned to another technician", domain.ErrForbidden)
		}
		deals, err := uow.DealRepository()
		if err != nil {
			return err
		}
		d, err := deals.Get(ctx, order.DealID)
		if err != nil {
			return err
		}

		inv = &invoice.Invoice{
			ID:           uuid.New(),
			TechnicianID: in.TechnicianID,
			OrderID:      order.ID,
			DealID:       d.ID,
			Number:       in.Number,
			Currency:     d.Currency,
			Status:       invoice.StatusPending,
			Notes:        in.Notes,
		}
		if inv.Number == "" {
			inv.Number = "INV-" + strings.ToUpper(inv.ID.String()[:8])
		}
		for _, it := range in.Items {
			if it.Quantity <= 0 || it.UnitPrice.IsNegative() || strings.TrimSpace(it.Name) == "" {
				return fmt.Errorf("%w: invalid item %q", domain.ErrValidation, it.Name)
			}
			inv.Items = append(inv.Items, &invoice.Item{
				ID:        uuid.New(),
				InvoiceID: inv.ID,
				Name:      strings.TrimSpace(it.Name),
				Quantity:  it.Quantity,
				UnitPrice: money.Round(it.UnitPrice),
			})
		}
		inv.Price = inv.ItemsTotal()

		invoices, err := uow.InvoiceRepository()
		if err != nil {
			return err
		}
		return invoices.Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Invoice submitted", "invoice_id", inv.ID, "technician_id", inv.TechnicianID, "price", inv.Price.StringFixed(2))
	return inv, nil
}

// Get returns one invoice with its items.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	repo, err := s.uow.InvoiceRepository()
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

// List pages through invoices. Limit defaults to 20 and is capped at 100.
func (s *Service) List(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = 20
	case filter.Limit > 100:
		filter.Limit = 100
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, filter.Status)
	}
	repo, err := s.uow.InvoiceRepository()
	if err != nil {
		return nil, 0, err
	}
	return repo.List(ctx, filter)
}

// Approve moves a pending invoice to approved, folds its items into the
// deal's products, recomputes the deal amount and completes the order, all
// in one transaction. The automation webhook is notified after commit; a
// failed notification does not undo the approval.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	log := s.logger.With("method", "Approve", "invoice_id", id)
	var (
		inv      *invoice.Invoice
		d        *deal.Deal
		products []*deal.Product
	)
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		invoices, err := uow.InvoiceRepository()
		if err != nil {
			return err
		}
		inv, err = invoices.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		now := s.now()
		if err := inv.Approve(now); err != nil {
			return err
		}

		deals, err := uow.DealRepository()
		if err != nil {
			return err
		}
		d, err = deals.Get(ctx, inv.DealID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrDealNotFound
		}
		if err != nil {
			return err
		}
		products, err = reconcile(ctx, deals, d.ID, inv.Items)
		if err != nil {
			return err
		}
		d.Amount = deal.Total(products)
		if err := deals.UpdateAmount(ctx, d.ID, d.Amount); err != nil {
			return err
		}

		orders, err := uow.OrderRepository()
		if err != nil {
			return err
		}
		if err := orders.MarkCompleted(ctx, inv.OrderID, now); err != nil {
			return err
		}
		return invoices.UpdateStatus(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	log.Info("Invoice approved", "deal_id", d.ID, "deal_amount", d.Amount.StringFixed(2))

	if err := s.notifier.Notify(ctx, s.secondInvoice(ctx, inv, d, products)); err != nil {
		log.Error("Automation notification failed", "error", err)
	}
	return inv, nil
}

// reconcile creates or updates a deal product for every invoice item,
// matching by normalised name, and returns the resulting product set.
func reconcile(ctx context.Context, deals repository.DealRepository, dealID uuid.UUID, items []*invoice.Item) ([]*deal.Product, error) {
	existing, err := deals.ListProducts(ctx, dealID)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]*deal.Product, len(existing))
	for _, p := range existing {
		byKey[deal.ProductKey(p.Name)] = p
	}
	for _, it := range items {
		if p, ok := byKey[deal.ProductKey(it.Name)]; ok {
			p.Quantity = it.Quantity
			p.UnitPrice = it.UnitPrice
			if err := deals.UpdateProduct(ctx, p); err != nil {
				return nil, err
			}
			continue
		}
		p := &deal.Product{
			ID:        uuid.New(),
			DealID:    dealID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
		if err := deals.CreateProduct(ctx, p); err != nil {
			return nil, err
		}
		existing = append(existing, p)
		byKey[deal.ProductKey(p.Name)] = p
	}
	return existing, nil
}

func (s *Service) secondInvoice(ctx context.Context, inv *invoice.Invoice, d *deal.Deal, products []*deal.Product) *automation.Notification {
	n := &automation.Notification{
		Event:     automation.EventSecondInvoice,
		InvoiceID: inv.ID,
		Deal: automation.Deal{
			ID:            d.ID,
			Amount:        money.Float(d.Amount),
			Currency:      d.Currency,
			CountryCode:   d.CountryCode,
			PipelineStage: d.PipelineStage,
		},
		LineItems: make([]automation.LineItem, 0, len(products)),
	}
	for _, p := range products {
		n.LineItems = append(n.LineItems, automation.LineItem{
			Name:     p.Name,
			Quantity: p.Quantity,
			Price:    money.Float(p.UnitPrice),
		})
	}
	if d.CustomerID == uuid.Nil {
		return n
	}
	customers, err := s.uow.CustomerRepository()
	if err != nil {
		return n
	}
	c, err := customers.Get(ctx, d.CustomerID)
	if err != nil {
		s.logger.Warn("Customer lookup failed, notifying without contact", "customer_id", d.CustomerID, "error", err)
		return n
	}
	n.Contact = &automation.Contact{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone}
	return n
}

// Reject moves a pending invoice to rejected and emails the technician.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) (*invoice.Invoice, error) {
	var inv *invoice.Invoice
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		invoices, err := uow.InvoiceRepository()
		if err != nil {
			return err
		}
		inv, err = invoices.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := inv.Reject(s.now(), reason); err != nil {
			return err
		}
		return invoices.UpdateStatus(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Invoice rejected", "invoice_id", id)

	body := fmt.Sprintf("Your invoice %s was rejected.", inv.Number)
	if reason != "" {
		body += "\n\nReason: " + reason
	}
	s.notifyTechnician(ctx, inv.TechnicianID, "Invoice "+inv.Number+" rejected", body)
	return inv, nil
}

// PayResult is returned by Pay.
type PayResult struct {
	Invoice     *invoice.Invoice
	Payment     *payment.TechnicianPayment
	Transaction *payment.WiseTransaction
}

// Pay sends the technician's share of an approved invoice and then marks
// it paid together with its TechnicianPayment row. A paid invoice fails
// with domain.ErrInvoiceAlreadyPaid before any payout. When an earlier call
// sent the money but could not mark the invoice paid, Pay finishes that
// payment without sending again; a payout whose outcome was never recorded
// fails with domain.ErrPayoutInProgress until it is reconciled.
func (s *Service) Pay(ctx context.Context, id uuid.UUID) (*PayResult, error) {
	log := s.logger.With("method", "Pay", "invoice_id", id)

	release, err := s.locker.Obtain(ctx, "invoice-pay:"+id.String(), payLockTTL)
	if errors.Is(err, lock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: payment already running", domain.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = release(context.WithoutCancel(ctx)) }()

	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := inv.CanPay(); err != nil {
		return nil, err
	}

	wtx, err := s.payer.ActivePayout(ctx, inv.ID)
	switch {
	case err == nil && wtx.Settled():
		log.Warn("Payout already sent, finishing invoice", "wise_transaction_id", wtx.ID)
		return s.finishPayment(ctx, log, inv, wtx, percentOf(wtx.Amount, inv.Price))
	case err == nil:
		return nil, fmt.Errorf("%w: wise transaction %s is %s", domain.ErrPayoutInProgress, wtx.ID, wtx.Status)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	acc, err := s.payer.DefaultRecipient(ctx, inv.TechnicianID)
	if err != nil {
		return nil, err
	}
	pct, ok := s.salary.Percentage(acc.CountryCode)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSalaryPercentMissing, acc.CountryCode)
	}
	percent := decimal.NewFromFloat(pct)
	amount := money.Share(inv.Price, percent)

	wtx, err = s.payer.SendMoneyToTechnician(ctx, salary.Request{
		TechnicianID: inv.TechnicianID,
		InvoiceID:    inv.ID,
		Amount:       amount,
		Currency:     inv.Currency,
		Reference:    "Invoice " + inv.Number,
	})
	if err != nil {
		return nil, err
	}
	return s.finishPayment(ctx, log, inv, wtx, percent)
}

// finishPayment marks the locked invoice paid and records the
// TechnicianPayment for an accepted payout.
func (s *Service) finishPayment(ctx context.Context, log *slog.Logger, inv *invoice.Invoice, wtx *payment.WiseTransaction, percent decimal.Decimal) (*PayResult, error) {
	tp := &payment.TechnicianPayment{
		ID:                uuid.New(),
		InvoiceID:         inv.ID,
		TechnicianID:      inv.TechnicianID,
		InvoicePrice:      inv.Price,
		SalaryPercent:     percent,
		SalaryAmount:      wtx.Amount,
		Currency:          wtx.Currency,
		WiseTransactionID: wtx.ID,
	}
	var paid *invoice.Invoice
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		invoices, err := uow.InvoiceRepository()
		if err != nil {
			return err
		}
		paid, err = invoices.GetForUpdate(ctx, inv.ID)
		if err != nil {
			return err
		}
		if err := paid.MarkPaid(s.now()); err != nil {
			return err
		}
		if err := invoices.UpdateStatus(ctx, paid); err != nil {
			return err
		}
		payments, err := uow.TechnicianPaymentRepository()
		if err != nil {
			return err
		}
		return payments.Create(ctx, tp)
	})
	if err != nil {
		// The WiseTransaction stays settled, so calling Pay again only finishes the invoice.
		log.Error("Payout sent but invoice not marked paid", "wise_transaction_id", wtx.ID, "error", err)
		return nil, err
	}
	log.Info("Invoice paid", "salary_amount", wtx.Amount.StringFixed(2), "percent", percent.String())

	s.notifyTechnician(ctx, paid.TechnicianID, "Invoice "+paid.Number+" paid",
		fmt.Sprintf("We have sent %s %s for invoice %s.", wtx.Amount.StringFixed(2), wtx.Currency, paid.Number))
	return &PayResult{Invoice: paid, Payment: tp, Transaction: wtx}, nil
}

// percentOf returns part as a percentage of whole, rounded to two places.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(decimal.NewFromInt(100)).Div(whole).Round(2)
}

func (s *Service) notifyTechnician(ctx context.Context, technicianID uuid.UUID, subject, body string) {
	repo, err := s.uow.TechnicianRepository()
	if err != nil {
		return
	}
	tech, err := repo.Get(ctx, technicianID)
	if err != nil || tech.Email == "" {
		s.logger.Warn("No technician email, skipping notification", "technician_id", technicianID, "error", err)
		return
	}
	if err := s.mailer.Send(ctx, tech.Email, subject, body); err != nil {
		s.logger.Error("Technician email failed", "technician_id", technicianID, "error", err)
	}
}
