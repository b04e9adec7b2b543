// Package recipient manages technician payout accounts. Every write runs
// in one transaction so a technician always has at most one default.
package recipient

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/domain/recipient"
	"github.com/tapevault/backoffice/pkg/money"
	"github.com/tapevault/backoffice/pkg/repository"
)

type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{uow: uow, logger: logger}
}

type Input struct {
	CountryCode       string
	Currency          string
	WiseRecipientID   int64
	AccountHolderName string
	MakeDefault       bool
}

func (s *Service) List(ctx context.Context, technicianID uuid.UUID) ([]*recipient.Account, error) {
	repo, err := s.uow.RecipientRepository()
	if err != nil {
		return nil, err
	}
	return repo.ListByTechnician(ctx, technicianID)
}

// Create registers an account. The technician's first account always
// becomes the default.
func (s *Service) Create(ctx context.Context, technicianID uuid.UUID, in Input) (*recipient.Account, error) {
	currency, err := money.ParseCode(in.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if strings.TrimSpace(in.CountryCode) == "" {
		return nil, domain.ErrCountryRequired
	}
	if in.WiseRecipientID <= 0 || strings.TrimSpace(in.AccountHolderName) == "" {
		return nil, fmt.Errorf("%w: recipient id and account holder are required", domain.ErrValidation)
	}
	acc := &recipient.Account{
		ID:                uuid.New(),
		TechnicianID:      technicianID,
		CountryCode:       strings.ToUpper(strings.TrimSpace(in.CountryCode)),
		Currency:          currency.String(),
		WiseRecipientID:   in.WiseRecipientID,
		AccountHolderName: strings.TrimSpace(in.AccountHolderName),
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		techs, err := uow.TechnicianRepository()
		if err != nil {
			return err
		}
		if _, err := techs.Get(ctx, technicianID); err != nil {
			return err
		}
		repo, err := uow.RecipientRepository()
		if err != nil {
			return err
		}
		existing, err := repo.ListByTechnician(ctx, technicianID)
		if err != nil {
			return err
		}
		acc.IsDefault = in.MakeDefault || len(existing) == 0
		if acc.IsDefault {
			if err := repo.ClearDefault(ctx, technicianID); err != nil {
				return err
			}
		}
		return repo.Create(ctx, acc)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Recipient account created", "technician_id", technicianID, "account_id", acc.ID, "default", acc.IsDefault)
	return acc, nil
}

// SetDefault makes id the technician's only default account.
func (s *Service) SetDefault(ctx context.Context, technicianID, id uuid.UUID) error {
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.RecipientRepository()
		if err != nil {
			return err
		}
		acc, err := owned(ctx, repo, technicianID, id)
		if err != nil {
			return err
		}
		if acc.IsDefault {
			return nil
		}
		if err := repo.ClearDefault(ctx, technicianID); err != nil {
			return err
		}
		return repo.SetDefault(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Default recipient changed", "technician_id", technicianID, "account_id", id)
	return nil
}

// Delete tombstones a non-default account.
func (s *Service) Delete(ctx context.Context, technicianID, id uuid.UUID) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.RecipientRepository()
		if err != nil {
			return err
		}
		acc, err := owned(ctx, repo, technicianID, id)
		if err != nil {
			return err
		}
		if acc.IsDefault {
			return domain.ErrDefaultRecipientDelete
		}
		return repo.Delete(ctx, id)
	})
}

func owned(ctx context.Context, repo repository.RecipientRepository, technicianID, id uuid.UUID) (*recipient.Account, error) {
	acc, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if acc.TechnicianID != technicianID {
		return nil, domain.ErrRecipientNotFound
	}
	return acc, nil
}
