// Package stripepayment verifies per-country Stripe webhooks.
package stripepayment

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/provider/payment"
)

// metadataDealID is the checkout metadata key carrying the deal id.
const metadataDealID = "deal_id"

// Verifier implements payment.WebhookVerifier with one signing secret per country.
type Verifier struct {
	secrets  map[string]string
	logger   *slog.Logger
	handlers map[stripe.EventType]eventHandler
}

type eventHandler func(stripe.Event) (*payment.Event, error)

// New creates a Verifier from the configured signing secrets.
func New(cfg *config.Stripe, logger *slog.Logger) *Verifier {
	secrets := make(map[string]string)
	if cfg != nil {
		for country, secret := range cfg.SigningSecrets {
			secrets[strings.ToUpper(strings.TrimSpace(country))] = secret
		}
	}
	v := &Verifier{secrets: secrets, logger: logger}
	v.handlers = map[stripe.EventType]eventHandler{
		stripe.EventType(payment.EventCheckoutCompleted):      v.handleCheckoutSession,
		stripe.EventType(payment.EventPaymentIntentSucceeded): v.handlePaymentIntent,
		stripe.EventType(payment.EventPaymentIntentFailed):    v.handlePaymentIntent,
	}
	return v
}

// ParseEvent verifies the signature against the country's secret on the raw
// payload and decodes the supported event types.
func (v *Verifier) ParseEvent(country string, payload []byte, signature string) (*payment.Event, error) {
	cc := strings.ToUpper(strings.TrimSpace(country))
	log := v.logger.With("method", "ParseEvent", "country", cc)

	secret, ok := v.secrets[cc]
	if !ok || secret == "" {
		return nil, fmt.Errorf("%w: no stripe signing secret for %s", domain.ErrUnsupportedCountry, cc)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		log.Warn("Webhook signature verification failed", "error", err)
		return nil, fmt.Errorf("%w: webhook signature verification failed: %v", domain.ErrUnauthorized, err)
	}

	handler, ok := v.handlers[event.Type]
	if !ok {
		log.Info("Ignoring unhandled event type", "type", event.Type, "id", event.ID)
		return &payment.Event{ID: event.ID, Type: payment.EventType(event.Type), Country: cc}, nil
	}

	out, err := handler(event)
	if err != nil {
		log.Error("Failed to decode webhook event", "type", event.Type, "error", err)
		return nil, err
	}
	out.Country = cc
	log.Info("Received webhook event", "type", event.Type, "id", event.ID, "deal_id", out.DealID)
	return out, nil
}

func (v *Verifier) handleCheckoutSession(event stripe.Event) (*payment.Event, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: error parsing checkout session: %v", domain.ErrValidation, err)
	}
	ref := session.ID
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		ref = session.PaymentIntent.ID
	}
	return &payment.Event{
		ID:        event.ID,
		Type:      payment.EventType(event.Type),
		DealID:    dealID(session.Metadata),
		Reference: ref,
		Amount:    minorToDecimal(session.AmountTotal),
		Currency:  strings.ToUpper(string(session.Currency)),
	}, nil
}

func (v *Verifier) handlePaymentIntent(event stripe.Event) (*payment.Event, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: error parsing payment intent: %v", domain.ErrValidation, err)
	}
	return &payment.Event{
		ID:        event.ID,
		Type:      payment.EventType(event.Type),
		DealID:    dealID(pi.Metadata),
		Reference: pi.ID,
		Amount:    minorToDecimal(pi.Amount),
		Currency:  strings.ToUpper(string(pi.Currency)),
	}, nil
}

func dealID(meta map[string]string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(meta[metadataDealID]))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// minorToDecimal converts Stripe's smallest currency unit to a two place decimal.
func minorToDecimal(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}
