package deal

import (
	"time"

	"github.com/google/uuid"
	"github.com/tapevault/backoffice/pkg/domain/jar"
	"github.com/tapevault/backoffice/pkg/service/distribution"
)

//revive:disable

// TransferRequest is the optional body of a jar transfer call.
type TransferRequest struct {
	Reference string `json:"reference" validate:"omitempty,max=140"`
	Force     bool   `json:"force"`
}

type JarTransferDTO struct {
	JarID         string  `json:"jar_id"`
	JarName       string  `json:"jar_name"`
	Percent       float64 `json:"percent"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
	QuoteID       string  `json:"quote_id,omitempty"`
	TransferID    string  `json:"transfer_id,omitempty"`
	TransactionID string  `json:"transaction_id,omitempty"`
	Error         string  `json:"error,omitempty"`
	Unrecorded    bool    `json:"unrecorded,omitempty"`
}

type SummaryDTO struct {
	TotalPercentageUsed float64 `json:"total_percentage_used"`
	JarCount            int     `json:"jar_count"`
	SuccessCount        int     `json:"success_count"`
	FailedCount         int     `json:"failed_count"`
	UnrecordedCount     int     `json:"unrecorded_count"`
}

type TransferResultDTO struct {
	DealID             string           `json:"deal_id"`
	AlreadyTransferred bool             `json:"already_transferred"`
	Success            bool             `json:"success"`
	Currency           string           `json:"currency,omitempty"`
	DealAmount         float64          `json:"deal_amount"`
	TotalTransferred   float64          `json:"total_transferred"`
	RemainingAmount    float64          `json:"remaining_amount"`
	Transfers          []JarTransferDTO `json:"transfers"`
	Summary            SummaryDTO       `json:"summary"`
	Existing           *StatusDTO       `json:"existing,omitempty"`
}

type LedgerRowDTO struct {
	ID         string    `json:"id"`
	JarID      string    `json:"jar_id"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	QuoteID    string    `json:"quote_id,omitempty"`
	TransferID string    `json:"transfer_id,omitempty"`
	Reference  string    `json:"reference"`
	CreatedAt  time.Time `json:"created_at"`
}

type StatusDTO struct {
	DealID           string         `json:"deal_id"`
	HasTransfers     bool           `json:"has_transfers"`
	Successful       []LedgerRowDTO `json:"successful"`
	Failed           []LedgerRowDTO `json:"failed"`
	TotalTransferred float64        `json:"total_transferred"`
	TotalFailed      float64        `json:"total_failed"`
	LastTransferAt   *time.Time     `json:"last_transfer_at,omitempty"`
}

//revive:enable

func toResultDTO(r *distribution.Result) TransferResultDTO {
	out := TransferResultDTO{
		DealID:             r.DealID.String(),
		AlreadyTransferred: r.AlreadyTransferred,
		Success:            r.Success,
		Currency:           r.Currency,
		DealAmount:         r.DealAmount.InexactFloat64(),
		TotalTransferred:   r.TotalTransferred.InexactFloat64(),
		RemainingAmount:    r.RemainingAmount.InexactFloat64(),
		Transfers:          make([]JarTransferDTO, 0, len(r.Transfers)),
		Summary: SummaryDTO{
			TotalPercentageUsed: r.Summary.TotalPercentageUsed.InexactFloat64(),
			JarCount:            r.Summary.JarCount,
			SuccessCount:        r.Summary.SuccessCount,
			FailedCount:         r.Summary.FailedCount,
			UnrecordedCount:     r.Summary.UnrecordedCount,
		},
	}
	for _, t := range r.Transfers {
		dto := JarTransferDTO{
			JarID:      t.JarID.String(),
			JarName:    t.JarName,
			Percent:    t.Percent.InexactFloat64(),
			Amount:     t.Amount.InexactFloat64(),
			Currency:   t.Currency,
			Status:     string(t.Status),
			QuoteID:    t.QuoteID,
			TransferID: t.TransferID,
			Error:      t.Error,
			Unrecorded: t.Unrecorded,
		}
		if t.TransactionID != uuid.Nil {
			dto.TransactionID = t.TransactionID.String()
		}
		out.Transfers = append(out.Transfers, dto)
	}
	if r.Existing != nil {
		s := toStatusDTO(r.Existing)
		out.Existing = &s
	}
	return out
}

func toStatusDTO(s *distribution.LedgerStatus) StatusDTO {
	return StatusDTO{
		DealID:           s.DealID.String(),
		HasTransfers:     s.HasTransfers,
		Successful:       toRows(s.Successful),
		Failed:           toRows(s.Failed),
		TotalTransferred: s.TotalTransferred.InexactFloat64(),
		TotalFailed:      s.TotalFailed.InexactFloat64(),
		LastTransferAt:   s.LastTransferAt,
	}
}

func toRows(rows []*jar.Transaction) []LedgerRowDTO {
	out := make([]LedgerRowDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, LedgerRowDTO{
			ID:         r.ID.String(),
			JarID:      r.JarID.String(),
			Amount:     r.Amount.InexactFloat64(),
			Currency:   r.Currency,
			Status:     string(r.Status),
			QuoteID:    r.QuoteID,
			TransferID: r.TransferID,
			Reference:  r.Reference,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out
}
