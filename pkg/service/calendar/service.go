// Package calendar stores Google OAuth tokens and keeps the refresh
// scheduler in step with them.
package calendar

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/domain/calendar"
	"github.com/tapevault/backoffice/pkg/repository"
	"golang.org/x/oauth2"
)

// Scheduler is the subset of the token refresher the service drives.
type Scheduler interface {
	Schedule(u *calendar.User) error
	Cancel(userID uuid.UUID)
}

type Service struct {
	uow       repository.UnitOfWork
	scheduler Scheduler
	logger    *slog.Logger
}

func New(uow repository.UnitOfWork, scheduler Scheduler, logger *slog.Logger) *Service {
	return &Service{uow: uow, scheduler: scheduler, logger: logger.With("service", "calendar")}
}

// Connect stores tok for the user and schedules its refresh.
func (s *Service) Connect(ctx context.Context, userID uuid.UUID, tok *oauth2.Token) (*calendar.User, error) {
	if tok == nil || tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: access token is required", domain.ErrValidation)
	}
	if tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required", domain.ErrValidation)
	}
	raw, err := calendar.EncodeToken(tok)
	if err != nil {
		return nil, err
	}
	var u *calendar.User
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.CalendarUserRepository()
		if err != nil {
			return err
		}
		if u, err = repo.Get(ctx, userID); err != nil {
			return err
		}
		if err := repo.UpdateToken(ctx, userID, raw); err != nil {
			return err
		}
		u.GoogleToken = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.scheduler.Schedule(u); err != nil {
		s.logger.Warn("Token stored but not scheduled", "user_id", userID, "error", err)
	}
	s.logger.Info("Calendar connected", "user_id", userID, "expiry", tok.Expiry)
	return u, nil
}

// Disconnect clears the stored token and drops the pending refresh.
func (s *Service) Disconnect(ctx context.Context, userID uuid.UUID) error {
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.CalendarUserRepository()
		if err != nil {
			return err
		}
		if _, err := repo.Get(ctx, userID); err != nil {
			return err
		}
		return repo.UpdateToken(ctx, userID, nil)
	})
	if err != nil {
		return err
	}
	s.scheduler.Cancel(userID)
	s.logger.Info("Calendar disconnected", "user_id", userID)
	return nil
}
