// Package deal exposes the jar distribution of deal revenue.
package deal

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/pkg/middleware"
	"github.com/tapevault/backoffice/pkg/service/distribution"
	"github.com/tapevault/backoffice/webapi/common"
)

// TransferService is the part of distribution.Service the handlers use.
type TransferService interface {
	TransferDeal(ctx context.Context, dealID uuid.UUID, reference string, force bool) (*distribution.Result, error)
	CheckDealTransferStatus(ctx context.Context, dealID uuid.UUID) (*distribution.LedgerStatus, error)
}

// Routes registers:
//   - POST /api/v1/deals/:id/jar-transfers        : distribute the deal amount over the jars.
//   - GET  /api/v1/deals/:id/jar-transfers/status : ledger state for the deal.
func Routes(app *fiber.App, svc TransferService, cfg *config.Auth, logger *slog.Logger) {
	g := app.Group("/api/v1/deals", middleware.JwtProtected(cfg.Jwt))
	g.Post("/:id/jar-transfers", middleware.RequirePermission("deals.transfer"), TransferToJars(svc, logger))
	g.Get("/:id/jar-transfers/status", middleware.RequirePermission("deals.read"), TransferStatus(svc))
}

// TransferToJars runs the jar distribution for a deal. Partial failures
// are reported in the body with a 200; only request-level failures are errors.
func TransferToJars(svc TransferService, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dealID, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		in := &TransferRequest{}
		if len(c.Body()) > 0 {
			if in, err = common.BindAndValidate[TransferRequest](c); in == nil {
				return err
			}
		}
		res, err := svc.TransferDeal(c.UserContext(), dealID, in.Reference, in.Force)
		if err != nil {
			logger.Error("Jar transfer failed", "deal_id", dealID, "error", err)
			return common.ProblemDetailsJSON(c, "Failed to transfer deal to jars", err)
		}
		msg := "Deal transferred to jars"
		switch {
		case res.AlreadyTransferred:
			msg = "Deal already transferred to jars"
		case !res.Success:
			msg = "Deal transferred to jars with failures"
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, msg, toResultDTO(res))
	}
}

// TransferStatus returns the ledger partition for a deal.
func TransferStatus(svc TransferService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dealID, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		status, err := svc.CheckDealTransferStatus(c.UserContext(), dealID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load transfer status", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transfer status", toStatusDTO(status))
	}
}
