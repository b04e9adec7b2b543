// Package jar manages jar configuration. Writes are checked against the
// 100 percent ceiling while the country is locked.
package jar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/domain/jar"
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

// Input carries the editable jar fields.
type Input struct {
	Name            string
	CountryCode     string
	Currency        string
	BalanceID       int64
	TransferPercent decimal.Decimal
	IsActive        bool
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if strings.TrimSpace(in.CountryCode) == "" {
		return domain.ErrCountryRequired
	}
	if _, err := money.ParseCode(in.Currency); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if in.BalanceID <= 0 {
		return fmt.Errorf("%w: balance id is required", domain.ErrValidation)
	}
	return jar.ValidatePercent(in.TransferPercent)
}

// List returns the jars of a country, including inactive ones.
func (s *Service) List(ctx context.Context, country string) ([]*jar.Jar, error) {
	repo, err := s.uow.JarRepository()
	if err != nil {
		return nil, err
	}
	return repo.ListByCountry(ctx, strings.ToUpper(strings.TrimSpace(country)), false)
}

func (s *Service) Create(ctx context.Context, in Input) (*jar.Jar, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	j := &jar.Jar{
		ID:              uuid.New(),
		Name:            strings.TrimSpace(in.Name),
		CountryCode:     strings.ToUpper(strings.TrimSpace(in.CountryCode)),
		Currency:        strings.ToUpper(in.Currency),
		BalanceID:       in.BalanceID,
		TransferPercent: in.TransferPercent,
		IsActive:        in.IsActive,
	}
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.JarRepository()
		if err != nil {
			return err
		}
		if err := checkAllocation(ctx, repo, j); err != nil {
			return err
		}
		return repo.Create(ctx, j)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Jar created", "jar_id", j.ID, "country", j.CountryCode, "percent", j.TransferPercent.String())
	return j, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*jar.Jar, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var j *jar.Jar
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.JarRepository()
		if err != nil {
			return err
		}
		j, err = repo.Get(ctx, id)
		if err != nil {
			return err
		}
		oldCountry := j.CountryCode
		j.Name = strings.TrimSpace(in.Name)
		j.CountryCode = strings.ToUpper(strings.TrimSpace(in.CountryCode))
		j.Currency = strings.ToUpper(in.Currency)
		j.BalanceID = in.BalanceID
		j.TransferPercent = in.TransferPercent
		j.IsActive = in.IsActive

		if oldCountry != j.CountryCode {
			if _, err := repo.LockCountry(ctx, oldCountry); err != nil {
				return err
			}
		}
		if err := checkAllocation(ctx, repo, j); err != nil {
			return err
		}
		return repo.Update(ctx, j)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Jar updated", "jar_id", j.ID, "country", j.CountryCode, "percent", j.TransferPercent.String())
	return j, nil
}

// Delete tombstones a jar. Ledger rows keep pointing at it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	repo, err := s.uow.JarRepository()
	if err != nil {
		return err
	}
	if err := repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Jar deleted", "jar_id", id)
	return nil
}

// checkAllocation locks the country and verifies the candidate
// keeps active allocation within 100 percent.
func checkAllocation(ctx context.Context, repo repository.JarRepository, candidate *jar.Jar) error {
	current, err := repo.LockCountry(ctx, candidate.CountryCode)
	if err != nil {
		return err
	}
	next := jar.ReplaceOrAppend(current, candidate)
	if err := jar.ValidateAllocation(next); err != nil {
		return fmt.Errorf("%w: %s would allocate %s%%", err, candidate.CountryCode, jar.TotalPercent(next).String())
	}
	return nil
}
