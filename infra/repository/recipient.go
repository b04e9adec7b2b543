package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/domain/recipient"
	"github.com/tapevault/backoffice/pkg/repository"
	"gorm.io/gorm"
)

type recipientRepository struct {
	db *gorm.DB
}

func NewRecipientRepository(db *gorm.DB) repository.RecipientRepository {
	return &recipientRepository{db: db}
}

func (r *recipientRepository) Get(ctx context.Context, id uuid.UUID) (*recipient.Account, error) {
	var m RecipientAccount
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrRecipientNotFound)
	}
	return mapRecipient(&m), nil
}

func (r *recipientRepository) ListByTechnician(ctx context.Context, technicianID uuid.UUID) ([]*recipient.Account, error) {
	var rows []RecipientAccount
	err := r.db.WithContext(ctx).
		Where("technician_id = ?", technicianID).
		Order("is_default DESC, created_at").
		Find(&rows).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*recipient.Account, 0, len(rows))
	for i := range rows {
		out = append(out, mapRecipient(&rows[i]))
	}
	return out, nil
}

func (r *recipientRepository) GetDefault(ctx context.Context, technicianID uuid.UUID) (*recipient.Account, error) {
	var m RecipientAccount
	err := r.db.WithContext(ctx).
		Where("technician_id = ? AND is_default = ?", technicianID, true).
		First(&m).Error
	if err != nil {
		return nil, notFoundAs(err, domain.ErrDefaultRecipientNotFound)
	}
	return mapRecipient(&m), nil
}

func (r *recipientRepository) Create(ctx context.Context, acc *recipient.Account) error {
	m := RecipientAccount{
		Model:             Model{ID: acc.ID},
		TechnicianID:      acc.TechnicianID,
		CountryCode:       acc.CountryCode,
		Currency:          acc.Currency,
		WiseRecipientID:   acc.WiseRecipientID,
		AccountHolderName: acc.AccountHolderName,
		IsDefault:         acc.IsDefault,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return MapGormErrorToDomain(err)
	}
	acc.ID, acc.CreatedAt = m.ID, m.CreatedAt
	return nil
}

func (r *recipientRepository) ClearDefault(ctx context.Context, technicianID uuid.UUID) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).
			Model(&RecipientAccount{}).
			Where("technician_id = ? AND is_default = ?", technicianID, true).
			Update("is_default", false).Error
	})
}

func (r *recipientRepository) SetDefault(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&RecipientAccount{}).Where("id = ?", id).Update("is_default", true)
	return requireAffected(res, domain.ErrRecipientNotFound)
}

func (r *recipientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&RecipientAccount{})
	return requireAffected(res, domain.ErrRecipientNotFound)
}

func mapRecipient(m *RecipientAccount) *recipient.Account {
	return &recipient.Account{
		ID:                m.ID,
		TechnicianID:      m.TechnicianID,
		CountryCode:       m.CountryCode,
		Currency:          m.Currency,
		WiseRecipientID:   m.WiseRecipientID,
		AccountHolderName: m.AccountHolderName,
		IsDefault:         m.IsDefault,
		CreatedAt:         m.CreatedAt,
	}
}
