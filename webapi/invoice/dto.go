package invoice

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tapevault/backoffice/pkg/domain/invoice"
	invoicesvc "github.com/tapevault/backoffice/pkg/service/invoice"
)

//revive:disable

type ItemRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

// SubmitRequest is the body of /new. TechnicianID is only read when the
// token carries no technician claim.
type SubmitRequest struct {
	TechnicianID string        `json:"technician_id" validate:"omitempty,uuid"`
	OrderID      string        `json:"order_id" validate:"required,uuid"`
	Number       string        `json:"number" validate:"omitempty,max=50"`
	Notes        string        `json:"notes" validate:"omitempty,max=2000"`
	Items        []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=2000"`
}

type ItemDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

type InvoiceDTO struct {
	ID           string     `json:"id"`
	Number       string     `json:"number"`
	TechnicianID string     `json:"technician_id"`
	OrderID      string     `json:"order_id"`
	DealID       string     `json:"deal_id"`
	Price        float64    `json:"price"`
	Currency     string     `json:"currency"`
	Status       string     `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	Items        []ItemDTO  `json:"items,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	RejectedAt   *time.Time `json:"rejected_at,omitempty"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type ListDTO struct {
	Invoices []InvoiceDTO `json:"invoices"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	Limit    int          `json:"limit"`
}

type PaymentDTO struct {
	Invoice           InvoiceDTO `json:"invoice"`
	SalaryPercent     float64    `json:"salary_percent"`
	SalaryAmount      float64    `json:"salary_amount"`
	Currency          string     `json:"currency"`
	WiseTransactionID string     `json:"wise_transaction_id"`
	TransferID        string     `json:"transfer_id,omitempty"`
	TransferStatus    string     `json:"transfer_status,omitempty"`
}

//revive:enable

func (r *SubmitRequest) items() []invoicesvc.SubmitItem {
	out := make([]invoicesvc.SubmitItem, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, invoicesvc.SubmitItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: decimal.NewFromFloat(it.UnitPrice),
		})
	}
	return out
}

func toDTO(inv *invoice.Invoice) InvoiceDTO {
	out := InvoiceDTO{
		ID:           inv.ID.String(),
		Number:       inv.Number,
		TechnicianID: inv.TechnicianID.String(),
		OrderID:      inv.OrderID.String(),
		DealID:       inv.DealID.String(),
		Price:        inv.Price.InexactFloat64(),
		Currency:     inv.Currency,
		Status:       string(inv.Status),
		Notes:        inv.Notes,
		ApprovedAt:   inv.ApprovedAt,
		RejectedAt:   inv.RejectedAt,
		PaidAt:       inv.PaidAt,
		CreatedAt:    inv.CreatedAt,
	}
	for _, it := range inv.Items {
		out.Items = append(out.Items, ItemDTO{
			ID:        it.ID.String(),
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.InexactFloat64(),
			Total:     it.Total().InexactFloat64(),
		})
	}
	return out
}

func toPaymentDTO(r *invoicesvc.PayResult) PaymentDTO {
	out := PaymentDTO{
		Invoice:           toDTO(r.Invoice),
		SalaryPercent:     r.Payment.SalaryPercent.InexactFloat64(),
		SalaryAmount:      r.Payment.SalaryAmount.InexactFloat64(),
		Currency:          r.Payment.Currency,
		WiseTransactionID: r.Payment.WiseTransactionID.String(),
	}
	if r.Transaction != nil {
		out.TransferID = r.Transaction.TransferID
		out.TransferStatus = string(r.Transaction.Status)
	}
	return out
}
