package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/domain/invoice"
	"github.com/tapevault/backoffice/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) repository.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Get(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	var m TechnicianInvoice
	if err := r.db.WithContext(ctx).Preload("Items").First(&m, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrInvoiceNotFound)
	}
	return mapInvoice(&m), nil
}

func (r *invoiceRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	var m TechnicianInvoice
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, notFoundAs(err, domain.ErrInvoiceNotFound)
	}
	return mapInvoice(&m), nil
}

func (r *invoiceRepository) List(ctx context.Context, f invoice.ListFilter) ([]*invoice.Invoice, int64, error) {
	q := r.db.WithContext(ctx).Model(&TechnicianInvoice{})
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.TechnicianID != nil {
		q = q.Where("technician_id = ?", *f.TechnicianID)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("number ILIKE ? OR notes ILIKE ?", like, like)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, MapGormErrorToDomain(err)
	}

	var rows []TechnicianInvoice
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset(f.Offset()).
		Limit(f.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, MapGormErrorToDomain(err)
	}
	out := make([]*invoice.Invoice, 0, len(rows))
	for i := range rows {
		out = append(out, mapInvoice(&rows[i]))
	}
	return out, total, nil
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	m := TechnicianInvoice{
		Model:        Model{ID: inv.ID},
		TechnicianID: inv.TechnicianID,
		OrderID:      inv.OrderID,
		DealID:       inv.DealID,
		Number:       inv.Number,
		Price:        inv.Price,
		Currency:     inv.Currency,
		Status:       string(inv.Status),
		Notes:        inv.Notes,
	}
	for _, it := range inv.Items {
		m.Items = append(m.Items, InvoiceItem{
			Model:     Model{ID: it.ID},
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return MapGormErrorToDomain(err)
	}
	inv.ID, inv.CreatedAt, inv.UpdatedAt = m.ID, m.CreatedAt, m.UpdatedAt
	for i := range inv.Items {
		inv.Items[i].ID = m.Items[i].ID
		inv.Items[i].InvoiceID = m.ID
	}
	return nil
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, inv *invoice.Invoice) error {
	res := r.db.WithContext(ctx).Model(&TechnicianInvoice{}).Where("id = ?", inv.ID).Updates(map[string]any{
		"status":      string(inv.Status),
		"approved_at": inv.ApprovedAt,
		"rejected_at": inv.RejectedAt,
		"paid_at":     inv.PaidAt,
		"notes":       inv.Notes,
	})
	return requireAffected(res, domain.ErrInvoiceNotFound)
}

func mapInvoice(m *TechnicianInvoice) *invoice.Invoice {
	inv := &invoice.Invoice{
		ID:           m.ID,
		TechnicianID: m.TechnicianID,
		OrderID:      m.OrderID,
		DealID:       m.DealID,
		Number:       m.Number,
		Price:        m.Price,
		Currency:     m.Currency,
		Status:       invoice.Status(m.Status),
		Notes:        m.Notes,
		ApprovedAt:   m.ApprovedAt,
		RejectedAt:   m.RejectedAt,
		PaidAt:       m.PaidAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	for i := range m.Items {
		it := &m.Items[i]
		inv.Items = append(inv.Items, &invoice.Item{
			ID:        it.ID,
			InvoiceID: it.InvoiceID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return inv
}
