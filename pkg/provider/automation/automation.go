// Package automation describes notifications pushed to the CRM automation webhook.
package automation

import (
	"context"

	"github.com/google/uuid"
)

// EventSecondInvoice is sent once an approved invoice has been reconciled into its deal.
const EventSecondInvoice = "second_invoice"

type Contact struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone,omitempty"`
}

type LineItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type Deal struct {
	ID            uuid.UUID `json:"id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	CountryCode   string    `json:"country_code"`
	PipelineStage string    `json:"pipeline_stage,omitempty"`
}

// Notification is the JSON body posted to the webhook.
type Notification struct {
	Event     string     `json:"event"`
	InvoiceID uuid.UUID  `json:"invoice_id"`
	Deal      Deal       `json:"deal"`
	Contact   *Contact   `json:"contact,omitempty"`
	LineItems []LineItem `json:"line_items"`
}

// Notifier delivers notifications to the automation platform.
type Notifier interface {
	Notify(ctx context.Context, n *Notification) error
}
