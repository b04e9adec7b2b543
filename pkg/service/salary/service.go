// Package salary pays technicians through the payments provider.
package salary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/domain/jar"
	"github.com/tapevault/backoffice/pkg/domain/payment"
	"github.com/tapevault/backoffice/pkg/domain/recipient"
	"github.com/tapevault/backoffice/pkg/provider/payout"
	"github.com/tapevault/backoffice/pkg/repository"
)

// Request describes one salary payout. Currency is the source currency and
// defaults to the recipient account's currency. A non-nil InvoiceID allows
// a single active payout for that invoice.
type Request struct {
	TechnicianID uuid.UUID
	InvoiceID    uuid.UUID
	Amount       decimal.Decimal
	Currency     string
	Reference    string
}

type Service struct {
	uow     repository.UnitOfWork
	payouts payout.Registry
	logger  *slog.Logger
}

func New(uow repository.UnitOfWork, payouts payout.Registry, logger *slog.Logger) *Service {
	return &Service{uow: uow, payouts: payouts, logger: logger}
}

// DefaultRecipient returns the technician's default payout account.
func (s *Service) DefaultRecipient(ctx context.Context, technicianID uuid.UUID) (*recipient.Account, error) {
	repo, err := s.uow.RecipientRepository()
	if err != nil {
		return nil, err
	}
	acc, err := repo.GetDefault(ctx, technicianID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrDefaultRecipientNotFound
	}
	return acc, err
}

// SendMoneyToTechnician runs quote, transfer and fund against the default
// recipient account. The WiseTransaction row is claimed as PENDING before the
// provider is called and updated with the outcome afterwards; failures are
// recorded as FAILED and returned wrapped in domain.ErrSendMoneyFailed. A row
// whose outcome cannot be written stays PENDING and blocks another payout
// for the same invoice.
func (s *Service) SendMoneyToTechnician(ctx context.Context, req Request) (*payment.WiseTransaction, error) {
	log := s.logger.With("method", "SendMoneyToTechnician", "technician_id", req.TechnicianID)
	if req.InvoiceID != uuid.Nil {
		log = log.With("invoice_id", req.InvoiceID)
	}
	if !req.Amount.IsPositive() {
		return nil, domain.ErrAmountMustBePositive
	}

	acc, err := s.DefaultRecipient(ctx, req.TechnicianID)
	if err != nil {
		return nil, err
	}
	client, err := s.payouts.ForCountry(acc.CountryCode)
	if err != nil {
		return nil, err
	}

	source := req.Currency
	if source == "" {
		source = acc.Currency
	}
	tx := &payment.WiseTransaction{
		ID:                 uuid.New(),
		TechnicianID:       req.TechnicianID,
		RecipientAccountID: acc.ID,
		Amount:             req.Amount,
		Currency:           source,
		Status:             jar.StatusPending,
		Reference:          req.Reference,
	}
	if req.InvoiceID != uuid.Nil {
		id := req.InvoiceID
		tx.InvoiceID = &id
	}
	if err := s.claim(ctx, tx); err != nil {
		return nil, err
	}

	status, sendErr := s.send(ctx, client, acc, tx)
	if sendErr != nil {
		tx.Status = jar.StatusFailed
		tx.ErrorMessage = payout.Message(sendErr)
		log.Error("Salary payout failed", "quote_id", tx.QuoteID, "transfer_id", tx.TransferID, "error", sendErr)
	} else {
		tx.Status = status
	}

	if err := s.settle(ctx, tx); err != nil {
		log.Error("Wise transaction left pending", "wise_transaction_id", tx.ID, "status", tx.Status, "transfer_id", tx.TransferID, "error", err)
		if sendErr == nil {
			return tx, fmt.Errorf("payout sent but not recorded: %w", err)
		}
	}
	if sendErr != nil {
		return tx, fmt.Errorf("%w: %w", domain.ErrSendMoneyFailed, sendErr)
	}
	log.Info("Salary payout sent", "amount", req.Amount.StringFixed(2), "currency", source, "transfer_id", tx.TransferID)
	return tx, nil
}

// ActivePayout returns the invoice's payout attempt that is not FAILED,
// or domain.ErrNotFound.
func (s *Service) ActivePayout(ctx context.Context, invoiceID uuid.UUID) (*payment.WiseTransaction, error) {
	repo, err := s.uow.WiseTransactionRepository()
	if err != nil {
		return nil, err
	}
	return repo.FindActiveByInvoice(ctx, invoiceID)
}

func (s *Service) send(ctx context.Context, client payout.Client, acc *recipient.Account, tx *payment.WiseTransaction) (jar.TransferStatus, error) {
	quote, err := client.CreateQuote(ctx, &payout.QuoteRequest{
		SourceCurrency: tx.Currency,
		TargetCurrency: acc.Currency,
		SourceAmount:   tx.Amount,
		TargetAccount:  acc.WiseRecipientID,
		PayOut:         payout.PayOutBankTransfer,
	})
	if err != nil {
		return "", err
	}
	tx.QuoteID = quote.ID

	transfer, err := client.CreateTransfer(ctx, &payout.TransferRequest{
		QuoteID:               quote.ID,
		TargetAccount:         acc.WiseRecipientID,
		Reference:             tx.Reference,
		CustomerTransactionID: tx.ID,
	})
	if err != nil {
		return "", err
	}
	tx.TransferID = transfer.ID

	funding, err := client.FundTransfer(ctx, transfer.ID)
	if err != nil {
		return "", err
	}
	return jar.ParseStatus(funding.Status), nil
}

func (s *Service) claim(ctx context.Context, tx *payment.WiseTransaction) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.WiseTransactionRepository()
		if err != nil {
			return err
		}
		if tx.InvoiceID != nil {
			active, err := repo.FindActiveByInvoice(ctx, *tx.InvoiceID)
			switch {
			case err == nil:
				return activeConflict(active)
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}
		}
		err = repo.Create(ctx, tx)
		if errors.Is(err, domain.ErrAlreadyExists) && tx.InvoiceID != nil {
			return fmt.Errorf("%w: invoice %s", domain.ErrPayoutInProgress, *tx.InvoiceID)
		}
		return err
	})
}

func (s *Service) settle(ctx context.Context, tx *payment.WiseTransaction) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.WiseTransactionRepository()
		if err != nil {
			return err
		}
		return repo.UpdateResult(ctx, tx)
	})
}

func activeConflict(active *payment.WiseTransaction) error {
	if active.Settled() {
		return fmt.Errorf("%w: wise transaction %s", domain.ErrInvoiceAlreadyPaid, active.ID)
	}
	return fmt.Errorf("%w: wise transaction %s is %s", domain.ErrPayoutInProgress, active.ID, active.Status)
}
