package jar

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferStatus is the provider state recorded on a ledger row.
type TransferStatus string

const (
	StatusPending    TransferStatus = "PENDING"
	StatusCompleted  TransferStatus = "COMPLETED"
	StatusProcessing TransferStatus = "PROCESSING"
	StatusFailed     TransferStatus = "FAILED"
)

// SuccessfulStatuses are the states that count as "already transferred".
var SuccessfulStatuses = []TransferStatus{StatusCompleted, StatusPending, StatusProcessing}

// IsSuccessful reports whether s counts towards the idempotency guard.
func (s TransferStatus) IsSuccessful() bool {
	switch s {
	case StatusCompleted, StatusPending, StatusProcessing:
		return true
	}
	return false
}

// ParseStatus maps a provider status string onto a TransferStatus.
// Unknown non-empty values are treated as in flight.
func ParseStatus(s string) TransferStatus {
	switch TransferStatus(s) {
	case StatusCompleted, "COMPLETE", "completed", "outgoing_payment_sent":
		return StatusCompleted
	case StatusFailed, "REJECTED", "CANCELLED", "failed", "cancelled", "bounced_back":
		return StatusFailed
	case StatusPending, "":
		return StatusPending
	default:
		return StatusProcessing
	}
}

// Transaction is one ledger row: a single attempted movement of a deal's
// share into one jar. Rows are append only.
type Transaction struct {
	ID         uuid.UUID
	DealID     uuid.UUID
	JarID      uuid.UUID
	Amount     decimal.Decimal
	Currency   string
	QuoteID    string
	TransferID string
	Status     TransferStatus
	Reference  string
	CreatedAt  time.Time
}
