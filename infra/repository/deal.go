package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/domain/deal"
	"github.com/tapevault/backoffice/pkg/repository"
	"gorm.io/gorm"
)

type dealRepository struct {
	db *gorm.DB
}

func NewDealRepository(db *gorm.DB) repository.DealRepository {
	return &dealRepository{db: db}
}

func (r *dealRepository) Get(ctx context.Context, id uuid.UUID) (*deal.Deal, error) {
	var m Deal
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrDealNotFound)
	}
	return mapDeal(&m), nil
}

func (r *dealRepository) UpdateAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&Deal{}).Where("id = ?", id).Update("amount", amount)
	return requireAffected(res, domain.ErrDealNotFound)
}

func (r *dealRepository) MarkPaid(ctx context.Context, id uuid.UUID, reference string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&Deal{}).Where("id = ?", id).Updates(map[string]any{
		"payment_status":   string(deal.PaymentPaid),
		"paid_at":          at,
		"stripe_reference": reference,
	})
	return requireAffected(res, domain.ErrDealNotFound)
}

func (r *dealRepository) ListProducts(ctx context.Context, dealID uuid.UUID) ([]*deal.Product, error) {
	var rows []DealProduct
	if err := r.db.WithContext(ctx).Where("deal_id = ?", dealID).Order("created_at").Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*deal.Product, 0, len(rows))
	for i := range rows {
		out = append(out, mapDealProduct(&rows[i]))
	}
	return out, nil
}

func (r *dealRepository) CreateProduct(ctx context.Context, p *deal.Product) error {
	m := DealProduct{
		Model:     Model{ID: p.ID},
		DealID:    p.DealID,
		Name:      p.Name,
		Quantity:  p.Quantity,
		UnitPrice: p.UnitPrice,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return MapGormErrorToDomain(err)
	}
	p.ID = m.ID
	return nil
}

func (r *dealRepository) UpdateProduct(ctx context.Context, p *deal.Product) error {
	res := r.db.WithContext(ctx).Model(&DealProduct{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":       p.Name,
		"quantity":   p.Quantity,
		"unit_price": p.UnitPrice,
	})
	return requireAffected(res, domain.ErrNotFound)
}

func mapDeal(m *Deal) *deal.Deal {
	return &deal.Deal{
		ID:              m.ID,
		Amount:          m.Amount,
		Currency:        m.Currency,
		CountryCode:     m.CountryCode,
		CustomerID:      m.CustomerID,
		TechnicianID:    m.TechnicianID,
		PipelineStage:   m.PipelineStage,
		PaymentStatus:   deal.PaymentStatus(m.PaymentStatus),
		PaidAt:          m.PaidAt,
		StripeReference: m.StripeReference,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func mapDealProduct(m *DealProduct) *deal.Product {
	return &deal.Product{
		ID:        m.ID,
		DealID:    m.DealID,
		Name:      m.Name,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
	}
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Get(ctx context.Context, id uuid.UUID) (*deal.Order, error) {
	var m Order
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrOrderNotFound)
	}
	return &deal.Order{
		ID:           m.ID,
		DealID:       m.DealID,
		TechnicianID: m.TechnicianID,
		CustomerID:   m.CustomerID,
		Status:       deal.OrderStatus(m.Status),
		CompletedAt:  m.CompletedAt,
	}, nil
}

func (r *orderRepository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&Order{}).Where("id = ?", id).Updates(map[string]any{
		"status":       string(deal.OrderCompleted),
		"completed_at": at,
	})
	return requireAffected(res, domain.ErrOrderNotFound)
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Get(ctx context.Context, id uuid.UUID) (*deal.Customer, error) {
	var m Customer
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrNotFound)
	}
	return &deal.Customer{ID: m.ID, Name: m.Name, Email: m.Email, Phone: m.Phone}, nil
}
