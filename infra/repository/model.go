package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Model is embedded in every table. DeletedAt makes GORM tombstone rows on
// Delete and hide them from every query.
type Model struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// BeforeCreate assigns an id when the caller did not.
func (m *Model) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type Customer struct {
	Model
	Name  string `gorm:"size:255;not null"`
	Email string `gorm:"size:255"`
	Phone string `gorm:"size:50"`
}

type Technician struct {
	Model
	Name        string `gorm:"size:255;not null"`
	Email       string `gorm:"size:255;uniqueIndex"`
	CountryCode string `gorm:"type:varchar(2);not null"`
}

type Deal struct {
	Model
	Amount          decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	Currency        string          `gorm:"type:varchar(3);not null"`
	CountryCode     string          `gorm:"type:varchar(2);not null;index"`
	CustomerID      uuid.UUID       `gorm:"type:uuid"`
	TechnicianID    uuid.UUID       `gorm:"type:uuid"`
	PipelineStage   string          `gorm:"size:64"`
	PaymentStatus   string          `gorm:"type:varchar(16);not null;default:'unpaid'"`
	PaidAt          *time.Time
	StripeReference string `gorm:"size:255"`
	Products        []DealProduct
}

type DealProduct struct {
	Model
	DealID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name      string          `gorm:"size:255;not null"`
	Quantity  int             `gorm:"not null;default:1"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(14,2);not null"`
}

type Order struct {
	Model
	DealID       uuid.UUID `gorm:"type:uuid;not null;index"`
	TechnicianID uuid.UUID `gorm:"type:uuid"`
	CustomerID   uuid.UUID `gorm:"type:uuid"`
	Status       string    `gorm:"type:varchar(16);not null;default:'open'"`
	CompletedAt  *time.Time
}

type Jar struct {
	Model
	Name            string          `gorm:"size:255;not null"`
	CountryCode     string          `gorm:"type:varchar(2);not null;index"`
	Currency        string          `gorm:"type:varchar(3);not null"`
	BalanceID       int64           `gorm:"not null"`
	TransferPercent decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	IsActive        bool            `gorm:"not null;default:true"`
}

type JarTransaction struct {
	Model
	DealID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	JarID      uuid.UUID       `gorm:"type:uuid;not null"`
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Currency   string          `gorm:"type:varchar(3);not null"`
	QuoteID    string          `gorm:"size:64"`
	TransferID string          `gorm:"size:64"`
	Status     string          `gorm:"type:varchar(16);not null"`
	Reference  string          `gorm:"type:text"`
}

type TechnicianInvoice struct {
	Model
	TechnicianID uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null"`
	DealID       uuid.UUID       `gorm:"type:uuid;not null"`
	Number       string          `gorm:"size:64;not null"`
	Price        decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Currency     string          `gorm:"type:varchar(3);not null"`
	Status       string          `gorm:"type:varchar(16);not null;default:'pending'"`
	Notes        string          `gorm:"type:text"`
	ApprovedAt   *time.Time
	RejectedAt   *time.Time
	PaidAt       *time.Time
	Items        []InvoiceItem `gorm:"foreignKey:InvoiceID"`
}

type InvoiceItem struct {
	Model
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name      string          `gorm:"size:255;not null"`
	Quantity  int             `gorm:"not null;default:1"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(14,2);not null"`
}

type TechnicianPayment struct {
	Model
	InvoiceID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	TechnicianID      uuid.UUID       `gorm:"type:uuid;not null"`
	InvoicePrice      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	SalaryPercent     decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	SalaryAmount      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Currency          string          `gorm:"type:varchar(3);not null"`
	WiseTransactionID uuid.UUID       `gorm:"type:uuid"`
}

type RecipientAccount struct {
	Model
	TechnicianID      uuid.UUID `gorm:"type:uuid;not null;index"`
	CountryCode       string    `gorm:"type:varchar(2);not null"`
	Currency          string    `gorm:"type:varchar(3);not null"`
	WiseRecipientID   int64     `gorm:"not null"`
	AccountHolderName string    `gorm:"size:255;not null"`
	IsDefault         bool      `gorm:"not null;default:false"`
}

type WiseTransaction struct {
	Model
	InvoiceID          *uuid.UUID      `gorm:"type:uuid"`
	TechnicianID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	RecipientAccountID uuid.UUID       `gorm:"type:uuid"`
	Amount             decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Currency           string          `gorm:"type:varchar(3);not null"`
	QuoteID            string          `gorm:"size:64"`
	TransferID         string          `gorm:"size:64"`
	Status             string          `gorm:"type:varchar(16);not null"`
	Reference          string          `gorm:"type:text"`
	ErrorMessage       string          `gorm:"type:text"`
}

type CalendarUser struct {
	Model
	Email       string  `gorm:"size:255;uniqueIndex"`
	GoogleToken *string `gorm:"type:jsonb"`
}
