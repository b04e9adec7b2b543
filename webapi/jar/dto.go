package jar

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tapevault/backoffice/pkg/domain/jar"
	jarsvc "github.com/tapevault/backoffice/pkg/service/jar"
)

//revive:disable

// JarRequest is the body of /new; /edit also carries the id.
type JarRequest struct {
	ID              string  `json:"id" validate:"omitempty,uuid"`
	Name            string  `json:"name" validate:"required,max=100"`
	CountryCode     string  `json:"country_code" validate:"required,len=2,alpha"`
	Currency        string  `json:"currency" validate:"required,len=3,alpha"`
	BalanceID       int64   `json:"balance_id" validate:"required,gt=0"`
	TransferPercent float64 `json:"transfer_percent" validate:"gte=0,lte=100"`
	IsActive        *bool   `json:"is_active"`
}

type DeleteRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

type JarDTO struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	CountryCode     string    `json:"country_code"`
	Currency        string    `json:"currency"`
	BalanceID       int64     `json:"balance_id"`
	TransferPercent float64   `json:"transfer_percent"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ListDTO struct {
	Jars            []JarDTO `json:"jars"`
	TotalPercentage float64  `json:"total_percentage"`
}

//revive:enable

func (r *JarRequest) input() jarsvc.Input {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return jarsvc.Input{
		Name:            r.Name,
		CountryCode:     r.CountryCode,
		Currency:        r.Currency,
		BalanceID:       r.BalanceID,
		TransferPercent: decimal.NewFromFloat(r.TransferPercent).Round(2),
		IsActive:        active,
	}
}

func toDTO(j *jar.Jar) JarDTO {
	return JarDTO{
		ID:              j.ID.String(),
		Name:            j.Name,
		CountryCode:     j.CountryCode,
		Currency:        j.Currency,
		BalanceID:       j.BalanceID,
		TransferPercent: j.TransferPercent.InexactFloat64(),
		IsActive:        j.IsActive,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
}

func toListDTO(jars []*jar.Jar) ListDTO {
	out := ListDTO{Jars: make([]JarDTO, 0, len(jars))}
	for _, j := range jars {
		out.Jars = append(out.Jars, toDTO(j))
	}
	out.TotalPercentage = jar.TotalPercent(jars).InexactFloat64()
	return out
}
