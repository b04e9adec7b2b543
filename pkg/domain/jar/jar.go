// Package jar models percentage-allocated destination sub-accounts and the
// ledger of fund movements made into them.
package jar

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tapevault/backoffice/pkg/domain"
)

// MaxAllocation is the ceiling for the sum of active jar percentages per country.
var MaxAllocation = decimal.NewFromInt(100)

// Jar is a named provider balance that receives a fixed share of every deal
// for its country.
type Jar struct {
	ID              uuid.UUID
	Name            string
	CountryCode     string
	Currency        string
	BalanceID       int64
	TransferPercent decimal.Decimal
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Receives reports whether the jar takes part in distribution.
func (j *Jar) Receives() bool {
	return j.IsActive && j.TransferPercent.IsPositive()
}

// ValidatePercent checks 0 <= p <= 100.
func ValidatePercent(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(MaxAllocation) {
		return domain.ErrInvalidPercent
	}
	return nil
}

// TotalPercent sums the percentages of active jars.
func TotalPercent(jars []*Jar) decimal.Decimal {
	total := decimal.Zero
	for _, j := range jars {
		if j.IsActive {
			total = total.Add(j.TransferPercent)
		}
	}
	return total
}

// ValidateAllocation fails with ErrAllocationExceeded when active jars
// allocate more than 100 percent.
func ValidateAllocation(jars []*Jar) error {
	if TotalPercent(jars).GreaterThan(MaxAllocation) {
		return domain.ErrAllocationExceeded
	}
	return nil
}

// ReplaceOrAppend returns jars with the entry matching candidate.ID replaced,
// or candidate appended when absent. Used to check a pending write against
// the stored set.
func ReplaceOrAppend(jars []*Jar, candidate *Jar) []*Jar {
	out := make([]*Jar, 0, len(jars)+1)
	replaced := false
	for _, j := range jars {
		if j.ID == candidate.ID {
			out = append(out, candidate)
			replaced = true
			continue
		}
		out = append(out, j)
	}
	if !replaced {
		out = append(out, candidate)
	}
	return out
}
