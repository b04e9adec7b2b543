// Package dealpayment records verified customer payments against deals.
package dealpayment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/provider/payment"
	"github.com/tapevault/backoffice/pkg/repository"
)

type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
	now    func() time.Time
}

func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{uow: uow, logger: logger.With("service", "deal_payment"), now: time.Now}
}

// RecordPayment marks the event's deal as paid. Events that do not confirm
// a payment and deals already paid are acknowledged without a write; the
// returned flag is true only when the deal changed.
func (s *Service) RecordPayment(ctx context.Context, ev *payment.Event) (bool, error) {
	if ev == nil {
		return false, fmt.Errorf("%w: missing event", domain.ErrValidation)
	}
	log := s.logger.With("event_id", ev.ID, "type", ev.Type, "country", ev.Country)
	if !ev.Succeeded() {
		log.Info("Ignoring payment event")
		return false, nil
	}
	if ev.DealID == uuid.Nil {
		return false, fmt.Errorf("%w: event carries no deal_id metadata", domain.ErrValidation)
	}

	recorded := false
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		deals, err := uow.DealRepository()
		if err != nil {
			return err
		}
		d, err := deals.Get(ctx, ev.DealID)
		if err != nil {
			return err
		}
		if d.IsPaid() {
			return nil
		}
		if err := deals.MarkPaid(ctx, d.ID, ev.Reference, s.now()); err != nil {
			return err
		}
		recorded = true
		return nil
	})
	if err != nil {
		log.Error("Failed to record deal payment", "deal_id", ev.DealID, "error", err)
		return false, err
	}
	if recorded {
		log.Info("Deal payment recorded", "deal_id", ev.DealID, "reference", ev.Reference, "amount", ev.Amount)
	} else {
		log.Info("Deal already paid", "deal_id", ev.DealID)
	}
	return recorded, nil
}
