package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/domain/jar"
	"github.com/tapevault/backoffice/pkg/domain/payment"
	"github.com/tapevault/backoffice/pkg/domain/technician"
	"github.com/tapevault/backoffice/pkg/repository"
	"gorm.io/gorm"
)

type wiseTransactionRepository struct {
	db *gorm.DB
}

func NewWiseTransactionRepository(db *gorm.DB) repository.WiseTransactionRepository {
	return &wiseTransactionRepository{db: db}
}

func (r *wiseTransactionRepository) Create(ctx context.Context, tx *payment.WiseTransaction) error {
	m := WiseTransaction{
		Model:              Model{ID: tx.ID},
		InvoiceID:          tx.InvoiceID,
		TechnicianID:       tx.TechnicianID,
		RecipientAccountID: tx.RecipientAccountID,
		Amount:             tx.Amount,
		Currency:           tx.Currency,
		QuoteID:            tx.QuoteID,
		TransferID:         tx.TransferID,
		Status:             string(tx.Status),
		Reference:          tx.Reference,
		ErrorMessage:       tx.ErrorMessage,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return MapGormErrorToDomain(err)
	}
	tx.ID, tx.CreatedAt = m.ID, m.CreatedAt
	return nil
}

func (r *wiseTransactionRepository) UpdateResult(ctx context.Context, tx *payment.WiseTransaction) error {
	res := r.db.WithContext(ctx).Model(&WiseTransaction{}).Where("id = ?", tx.ID).Updates(map[string]any{
		"quote_id":      tx.QuoteID,
		"transfer_id":   tx.TransferID,
		"status":        string(tx.Status),
		"error_message": tx.ErrorMessage,
	})
	return requireAffected(res, domain.ErrNotFound)
}

func (r *wiseTransactionRepository) FindActiveByInvoice(ctx context.Context, invoiceID uuid.UUID) (*payment.WiseTransaction, error) {
	var m WiseTransaction
	err := r.db.WithContext(ctx).
		Where("invoice_id = ? AND status <> ?", invoiceID, string(jar.StatusFailed)).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		return nil, notFoundAs(err, domain.ErrNotFound)
	}
	return &payment.WiseTransaction{
		ID:                 m.ID,
		InvoiceID:          m.InvoiceID,
		TechnicianID:       m.TechnicianID,
		RecipientAccountID: m.RecipientAccountID,
		Amount:             m.Amount,
		Currency:           m.Currency,
		QuoteID:            m.QuoteID,
		TransferID:         m.TransferID,
		Status:             jar.TransferStatus(m.Status),
		Reference:          m.Reference,
		ErrorMessage:       m.ErrorMessage,
		CreatedAt:          m.CreatedAt,
	}, nil
}

type technicianPaymentRepository struct {
	db *gorm.DB
}

func NewTechnicianPaymentRepository(db *gorm.DB) repository.TechnicianPaymentRepository {
	return &technicianPaymentRepository{db: db}
}

func (r *technicianPaymentRepository) Create(ctx context.Context, p *payment.TechnicianPayment) error {
	m := TechnicianPayment{
		Model:             Model{ID: p.ID},
		InvoiceID:         p.InvoiceID,
		TechnicianID:      p.TechnicianID,
		InvoicePrice:      p.InvoicePrice,
		SalaryPercent:     p.SalaryPercent,
		SalaryAmount:      p.SalaryAmount,
		Currency:          p.Currency,
		WiseTransactionID: p.WiseTransactionID,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return MapGormErrorToDomain(err)
	}
	p.ID, p.CreatedAt = m.ID, m.CreatedAt
	return nil
}

func (r *technicianPaymentRepository) GetByInvoice(ctx context.Context, invoiceID uuid.UUID) (*payment.TechnicianPayment, error) {
	var m TechnicianPayment
	if err := r.db.WithContext(ctx).First(&m, "invoice_id = ?", invoiceID).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrNotFound)
	}
	return &payment.TechnicianPayment{
		ID:                m.ID,
		InvoiceID:         m.InvoiceID,
		TechnicianID:      m.TechnicianID,
		InvoicePrice:      m.InvoicePrice,
		SalaryPercent:     m.SalaryPercent,
		SalaryAmount:      m.SalaryAmount,
		Currency:          m.Currency,
		WiseTransactionID: m.WiseTransactionID,
		CreatedAt:         m.CreatedAt,
	}, nil
}

type technicianRepository struct {
	db *gorm.DB
}

func NewTechnicianRepository(db *gorm.DB) repository.TechnicianRepository {
	return &technicianRepository{db: db}
}

func (r *technicianRepository) Get(ctx context.Context, id uuid.UUID) (*technician.Technician, error) {
	var m Technician
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrTechnicianNotFound)
	}
	return &technician.Technician{ID: m.ID, Name: m.Name, Email: m.Email, CountryCode: m.CountryCode}, nil
}
