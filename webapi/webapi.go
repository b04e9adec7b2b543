// Package webapi wires the HTTP surface of the back office. Each domain
// has its own sub-package:
// - deal: jar distribution transfers and their status
// - jar: jar configuration per country
// - invoice: technician invoices and salary payouts
// - recipient: technician payout accounts
// - calendar: Google token connect and disconnect
// - payment: Stripe webhooks
package webapi

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tapevault/backoffice/pkg/app"
	"github.com/tapevault/backoffice/pkg/config"
	calendarweb "github.com/tapevault/backoffice/webapi/calendar"
	"github.com/tapevault/backoffice/webapi/common"
	dealweb "github.com/tapevault/backoffice/webapi/deal"
	invoiceweb "github.com/tapevault/backoffice/webapi/invoice"
	jarweb "github.com/tapevault/backoffice/webapi/jar"
	"github.com/tapevault/backoffice/webapi/payment"
	recipientweb "github.com/tapevault/backoffice/webapi/recipient"
)

// HealthDTO is returned by GET /health.
type HealthDTO struct {
	Status string `json:"status"`
	Env    string `json:"env"`
}

// SetupApp builds the Fiber app with middleware and every route.
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Request failed", err)
		},
	})

	rl := a.Config.RateLimit
	if rl == nil {
		rl = &config.RateLimit{MaxRequests: 100}
	}
	fiberApp.Use(limiter.New(limiter.Config{
		Max:          rl.MaxRequests,
		Expiration:   rl.Window,
		KeyGenerator: clientKey,
		// Provider callbacks arrive from a handful of IPs and must not be throttled.
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/v1/webhooks/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	fiberApp.Get("/health", func(c *fiber.Ctx) error {
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Service is healthy", HealthDTO{
			Status: "ok",
			Env:    a.Config.Env,
		})
	})

	auth := a.Config.Auth
	log := a.Deps.Logger
	dealweb.Routes(fiberApp, a.Distribution, auth, log)
	jarweb.Routes(fiberApp, a.Jars, auth)
	invoiceweb.Routes(fiberApp, a.Invoices, auth, log)
	recipientweb.Routes(fiberApp, a.Recipients, auth)
	calendarweb.Routes(fiberApp, a.Calendar, auth)
	payment.StripeWebhookRoutes(fiberApp, a.Deps.Webhooks, a.DealPayments, log)
	return fiberApp
}

// clientKey prefers the first X-Forwarded-For hop, then X-Real-IP, so the
// limiter sees real clients behind the load balancer.
func clientKey(c *fiber.Ctx) string {
	if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}
