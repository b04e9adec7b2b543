// Package recipient models the payout bank accounts registered for a technician.
package recipient

import (
	"time"

	"github.com/google/uuid"
)

// Account is a provider recipient a technician can be paid into. Exactly
// one account per technician is the default.
type Account struct {
	ID                uuid.UUID
	TechnicianID      uuid.UUID
	CountryCode       string
	Currency          string
	WiseRecipientID   int64
	AccountHolderName string
	IsDefault         bool
	CreatedAt         time.Time
}
