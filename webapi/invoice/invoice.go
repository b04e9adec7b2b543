// Package invoice exposes the technician invoice workflow.
package invoice

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/pkg/domain/invoice"
	"github.com/tapevault/backoffice/pkg/middleware"
	invoicesvc "github.com/tapevault/backoffice/pkg/service/invoice"
	"github.com/tapevault/backoffice/webapi/common"
)

// Service is the part of invoicesvc.Service the handlers use.
type Service interface {
	Submit(ctx context.Context, in invoicesvc.SubmitInput) (*invoice.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error)
	List(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, int64, error)
	Approve(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*invoice.Invoice, error)
	Pay(ctx context.Context, id uuid.UUID) (*invoicesvc.PayResult, error)
}

// Routes registers the invoice endpoints under /api/v1/invoices.
//   - GET  /             : page through invoices (page, limit, search, status).
//   - GET  /:id          : one invoice with items.
//   - POST /new          : technician submits an invoice for an order.
//   - POST /:id/approve  : approve and reconcile into the deal.
//   - POST /:id/reject   : reject with an optional reason.
//   - POST /:id/pay      : pay the technician's salary share.
func Routes(app *fiber.App, svc Service, cfg *config.Auth, logger *slog.Logger) {
	g := app.Group("/api/v1/invoices", middleware.JwtProtected(cfg.Jwt))
	g.Get("/", middleware.RequirePermission("invoices.read"), List(svc))
	g.Post("/new", middleware.RequirePermission("invoices.create"), Submit(svc))
	g.Get("/:id", middleware.RequirePermission("invoices.read"), Get(svc))
	g.Post("/:id/approve", middleware.RequirePermission("invoices.approve"), Approve(svc))
	g.Post("/:id/reject", middleware.RequirePermission("invoices.approve"), Reject(svc))
	g.Post("/:id/pay", middleware.RequirePermission("invoices.pay"), Pay(svc, logger))
}

func List(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := common.ParsePagination(c)
		filter := invoice.ListFilter{
			Page:   p.Page,
			Limit:  p.Limit,
			Search: p.Search,
			Status: invoice.Status(strings.ToLower(c.Query("status"))),
		}
		if raw := c.Query("technician_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid query", "technician_id must be a valid UUID")
			}
			filter.TechnicianID = &id
		}
		// Technician tokens only see their own invoices.
		if techID, ok := middleware.TechnicianID(c); ok {
			filter.TechnicianID = &techID
		}
		invoices, total, err := svc.List(c.UserContext(), filter)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list invoices", err)
		}
		out := ListDTO{Invoices: make([]InvoiceDTO, 0, len(invoices)), Total: total, Page: max(p.Page, 1), Limit: p.Limit}
		if out.Limit <= 0 {
			out.Limit = 20
		}
		for _, inv := range invoices {
			out.Invoices = append(out.Invoices, toDTO(inv))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Invoices", out)
	}
}

func Get(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		inv, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load invoice", err)
		}
		if techID, ok := middleware.TechnicianID(c); ok && techID != inv.TechnicianID {
			return common.ErrorResponseJSON(c, fiber.StatusNotFound, "Failed to load invoice", "invoice not found")
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Invoice", toDTO(inv))
	}
}

func Submit(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := common.BindAndValidate[SubmitRequest](c)
		if in == nil {
			return err
		}
		techID, ok := middleware.TechnicianID(c)
		if !ok {
			if techID, err = uuid.Parse(in.TechnicianID); err != nil {
				return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Validation failed", "technician_id is required")
			}
		}
		inv, err := svc.Submit(c.UserContext(), invoicesvc.SubmitInput{
			TechnicianID: techID,
			OrderID:      uuid.MustParse(in.OrderID),
			Number:       in.Number,
			Notes:        in.Notes,
			Items:        in.items(),
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to submit invoice", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Invoice submitted", toDTO(inv))
	}
}

func Approve(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		inv, err := svc.Approve(c.UserContext(), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to approve invoice", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Invoice approved", toDTO(inv))
	}
}

func Reject(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		in := &RejectRequest{}
		if len(c.Body()) > 0 {
			if in, err = common.BindAndValidate[RejectRequest](c); in == nil {
				return err
			}
		}
		inv, err := svc.Reject(c.UserContext(), id, in.Reason)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to reject invoice", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Invoice rejected", toDTO(inv))
	}
}

func Pay(svc Service, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		res, err := svc.Pay(c.UserContext(), id)
		if err != nil {
			logger.Error("Invoice payment failed", "invoice_id", id, "error", err)
			return common.ProblemDetailsJSON(c, "Failed to pay invoice", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Invoice paid", toPaymentDTO(res))
	}
}
