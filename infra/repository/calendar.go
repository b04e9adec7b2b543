package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/domain/calendar"
	"github.com/tapevault/backoffice/pkg/repository"
	"gorm.io/gorm"
)

type calendarUserRepository struct {
	db *gorm.DB
}

func NewCalendarUserRepository(db *gorm.DB) repository.CalendarUserRepository {
	return &calendarUserRepository{db: db}
}

func (r *calendarUserRepository) Get(ctx context.Context, id uuid.UUID) (*calendar.User, error) {
	var m CalendarUser
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrCalendarUserNotFound)
	}
	return mapCalendarUser(&m), nil
}

func (r *calendarUserRepository) ListConnected(ctx context.Context) ([]*calendar.User, error) {
	var rows []CalendarUser
	if err := r.db.WithContext(ctx).Where("google_token IS NOT NULL").Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*calendar.User, 0, len(rows))
	for i := range rows {
		out = append(out, mapCalendarUser(&rows[i]))
	}
	return out, nil
}

func (r *calendarUserRepository) UpdateToken(ctx context.Context, id uuid.UUID, token json.RawMessage) error {
	var value *string
	if len(token) > 0 {
		s := string(token)
		value = &s
	}
	res := r.db.WithContext(ctx).Model(&CalendarUser{}).Where("id = ?", id).Update("google_token", value)
	return requireAffected(res, domain.ErrCalendarUserNotFound)
}

func mapCalendarUser(m *CalendarUser) *calendar.User {
	u := &calendar.User{ID: m.ID, Email: m.Email, UpdatedAt: m.UpdatedAt}
	if m.GoogleToken != nil {
		u.GoogleToken = json.RawMessage(*m.GoogleToken)
	}
	return u
}
