// Package payment defines how customer payment notifications reach the service.
package payment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType represents the type of payment event.
type EventType string

const (
	// EventCheckoutCompleted is emitted when a checkout session is paid.
	EventCheckoutCompleted EventType = "checkout.session.completed"
	// EventPaymentIntentSucceeded is emitted when a payment intent succeeds.
	EventPaymentIntentSucceeded EventType = "payment_intent.succeeded"
	// EventPaymentIntentFailed is emitted when a payment intent fails.
	EventPaymentIntentFailed EventType = "payment_intent.payment_failed"
)

// Event is a verified payment notification for a deal. DealID is taken
// from the deal_id metadata key; it is uuid.Nil when absent.
type Event struct {
	ID        string
	Type      EventType
	Country   string
	DealID    uuid.UUID
	Reference string
	Amount    decimal.Decimal
	Currency  string
}

// Succeeded reports whether the event confirms a payment.
func (e *Event) Succeeded() bool {
	return e.Type == EventCheckoutCompleted || e.Type == EventPaymentIntentSucceeded
}

// WebhookVerifier checks a webhook signature against the country's secret
// and decodes the event. Unknown countries fail with domain.ErrUnsupportedCountry.
type WebhookVerifier interface {
	ParseEvent(country string, payload []byte, signature string) (*Event, error)
}
