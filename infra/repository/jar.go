package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/domain/jar"
	"github.com/tapevault/backoffice/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type jarRepository struct {
	db *gorm.DB
}

func NewJarRepository(db *gorm.DB) repository.JarRepository {
	return &jarRepository{db: db}
}

func (r *jarRepository) Get(ctx context.Context, id uuid.UUID) (*jar.Jar, error) {
	var m Jar
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrJarNotFound)
	}
	return mapJar(&m), nil
}

func (r *jarRepository) ListByCountry(ctx context.Context, country string, activeOnly bool) ([]*jar.Jar, error) {
	q := r.db.WithContext(ctx).Where("country_code = ?", country)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var rows []Jar
	if err := q.Order("created_at").Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapJars(rows), nil
}

// LockCountry takes a transaction scoped advisory lock on the country before
// row locking its jars, so writers queue even when the country has no jars.
func (r *jarRepository) LockCountry(ctx context.Context, country string) ([]*jar.Jar, error) {
	db := r.db.WithContext(ctx)
	if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "jars:"+country).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	var rows []Jar
	err := db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("country_code = ?", country).
		Find(&rows).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapJars(rows), nil
}

func (r *jarRepository) Create(ctx context.Context, j *jar.Jar) error {
	m := toJarModel(j)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return MapGormErrorToDomain(err)
	}
	j.ID, j.CreatedAt, j.UpdatedAt = m.ID, m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *jarRepository) Update(ctx context.Context, j *jar.Jar) error {
	res := r.db.WithContext(ctx).Model(&Jar{}).Where("id = ?", j.ID).Updates(map[string]any{
		"name":             j.Name,
		"country_code":     j.CountryCode,
		"currency":         j.Currency,
		"balance_id":       j.BalanceID,
		"transfer_percent": j.TransferPercent,
		"is_active":        j.IsActive,
	})
	return requireAffected(res, domain.ErrJarNotFound)
}

func (r *jarRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Jar{})
	return requireAffected(res, domain.ErrJarNotFound)
}

func toJarModel(j *jar.Jar) Jar {
	return Jar{
		Model:           Model{ID: j.ID},
		Name:            j.Name,
		CountryCode:     j.CountryCode,
		Currency:        j.Currency,
		BalanceID:       j.BalanceID,
		TransferPercent: j.TransferPercent,
		IsActive:        j.IsActive,
	}
}

func mapJar(m *Jar) *jar.Jar {
	return &jar.Jar{
		ID:              m.ID,
		Name:            m.Name,
		CountryCode:     m.CountryCode,
		Currency:        m.Currency,
		BalanceID:       m.BalanceID,
		TransferPercent: m.TransferPercent,
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func mapJars(rows []Jar) []*jar.Jar {
	out := make([]*jar.Jar, 0, len(rows))
	for i := range rows {
		out = append(out, mapJar(&rows[i]))
	}
	return out
}

type jarTransactionRepository struct {
	db *gorm.DB
}

func NewJarTransactionRepository(db *gorm.DB) repository.JarTransactionRepository {
	return &jarTransactionRepository{db: db}
}

func (r *jarTransactionRepository) Create(ctx context.Context, tx *jar.Transaction) error {
	m := JarTransaction{
		Model:      Model{ID: tx.ID},
		DealID:     tx.DealID,
		JarID:      tx.JarID,
		Amount:     tx.Amount,
		Currency:   tx.Currency,
		QuoteID:    tx.QuoteID,
		TransferID: tx.TransferID,
		Status:     string(tx.Status),
		Reference:  tx.Reference,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return MapGormErrorToDomain(err)
	}
	tx.ID, tx.CreatedAt = m.ID, m.CreatedAt
	return nil
}

func (r *jarTransactionRepository) UpdateResult(ctx context.Context, tx *jar.Transaction) error {
	res := r.db.WithContext(ctx).Model(&JarTransaction{}).Where("id = ?", tx.ID).Updates(map[string]any{
		"quote_id":    tx.QuoteID,
		"transfer_id": tx.TransferID,
		"status":      string(tx.Status),
		"reference":   tx.Reference,
	})
	return requireAffected(res, domain.ErrNotFound)
}

func (r *jarTransactionRepository) ListByDeal(ctx context.Context, dealID uuid.UUID) ([]*jar.Transaction, error) {
	var rows []JarTransaction
	err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*jar.Transaction, 0, len(rows))
	for i := range rows {
		m := &rows[i]
		out = append(out, &jar.Transaction{
			ID:         m.ID,
			DealID:     m.DealID,
			JarID:      m.JarID,
			Amount:     m.Amount,
			Currency:   m.Currency,
			QuoteID:    m.QuoteID,
			TransferID: m.TransferID,
			Status:     jar.TransferStatus(m.Status),
			Reference:  m.Reference,
			CreatedAt:  m.CreatedAt,
		})
	}
	return out, nil
}
