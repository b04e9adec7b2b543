// Package payment receives customer payment webhooks.
package payment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/provider/payment"
	"github.com/tapevault/backoffice/webapi/common"
)

// Recorder applies a verified event to its deal.
type Recorder interface {
	RecordPayment(ctx context.Context, ev *payment.Event) (bool, error)
}

// StripeWebhookHandler verifies the signature against the secret of the
// :country path parameter and records the payment. Events without a deal
// reference are acknowledged so the sender stops retrying them.
func StripeWebhookHandler(verifier payment.WebhookVerifier, recorder Recorder, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		signature := c.Get("Stripe-Signature")
		if signature == "" {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid webhook", "missing Stripe-Signature header")
		}
		payload := c.Body()
		if len(payload) == 0 {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid webhook", "empty request body")
		}
		country := c.Params("country")
		log := logger.With("country", country)

		ev, err := verifier.ParseEvent(country, payload, signature)
		if err != nil {
			log.Warn("Rejected webhook", "error", err)
			return common.ProblemDetailsJSON(c, "Invalid webhook", err)
		}
		recorded, err := recorder.RecordPayment(c.UserContext(), ev)
		switch {
		case errors.Is(err, domain.ErrValidation):
			log.Warn("Webhook ignored", "event_id", ev.ID, "error", err)
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Event ignored", fiber.Map{"event_id": ev.ID})
		case err != nil:
			return common.ProblemDetailsJSON(c, "Failed to record payment", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Event processed", fiber.Map{
			"event_id": ev.ID,
			"type":     ev.Type,
			"recorded": recorded,
		})
	}
}

// StripeWebhookRoutes sets up the Stripe webhook route.
func StripeWebhookRoutes(app *fiber.App, verifier payment.WebhookVerifier, recorder Recorder, logger *slog.Logger) {
	app.Post("/api/v1/webhooks/stripe/:country", StripeWebhookHandler(verifier, recorder, logger))
}
