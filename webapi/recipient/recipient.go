// Package recipient exposes technician payout accounts.
package recipient

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/pkg/domain/recipient"
	"github.com/tapevault/backoffice/pkg/middleware"
	recipientsvc "github.com/tapevault/backoffice/pkg/service/recipient"
	"github.com/tapevault/backoffice/webapi/common"
)

//revive:disable

type CreateRequest struct {
	CountryCode       string `json:"country_code" validate:"required,len=2,alpha"`
	Currency          string `json:"currency" validate:"required,len=3,alpha"`
	WiseRecipientID   int64  `json:"wise_recipient_id" validate:"required,gt=0"`
	AccountHolderName string `json:"account_holder_name" validate:"required,max=200"`
	MakeDefault       bool   `json:"make_default"`
}

type AccountRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

type AccountDTO struct {
	ID                string    `json:"id"`
	TechnicianID      string    `json:"technician_id"`
	CountryCode       string    `json:"country_code"`
	Currency          string    `json:"currency"`
	WiseRecipientID   int64     `json:"wise_recipient_id"`
	AccountHolderName string    `json:"account_holder_name"`
	IsDefault         bool      `json:"is_default"`
	CreatedAt         time.Time `json:"created_at"`
}

//revive:enable

// Service is the part of recipientsvc.Service the handlers use.
type Service interface {
	List(ctx context.Context, technicianID uuid.UUID) ([]*recipient.Account, error)
	Create(ctx context.Context, technicianID uuid.UUID, in recipientsvc.Input) (*recipient.Account, error)
	SetDefault(ctx context.Context, technicianID, id uuid.UUID) error
	Delete(ctx context.Context, technicianID, id uuid.UUID) error
}

// Routes registers the recipient endpoints under /api/v1/technicians/:id/recipients.
func Routes(app *fiber.App, svc Service, cfg *config.Auth) {
	g := app.Group("/api/v1/technicians/:id/recipients", middleware.JwtProtected(cfg.Jwt), ownTechnician)
	g.Get("/", middleware.RequirePermission("recipients.read"), List(svc))
	g.Post("/new", middleware.RequirePermission("recipients.manage"), Create(svc))
	g.Post("/default", middleware.RequirePermission("recipients.manage"), SetDefault(svc))
	g.Post("/delete", middleware.RequirePermission("recipients.manage"), Delete(svc))
}

// ownTechnician keeps technician tokens on their own accounts.
func ownTechnician(c *fiber.Ctx) error {
	techID, err := common.ParseID(c, "id")
	if err != nil {
		return err
	}
	if own, ok := middleware.TechnicianID(c); ok && own != techID {
		return common.ErrorResponseJSON(c, fiber.StatusForbidden, "Forbidden", "technician tokens may only manage their own accounts")
	}
	c.Locals("technician_id", techID)
	return c.Next()
}

func technicianID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals("technician_id").(uuid.UUID)
	return id
}

func List(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accounts, err := svc.List(c.UserContext(), technicianID(c))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list recipient accounts", err)
		}
		out := make([]AccountDTO, 0, len(accounts))
		for _, a := range accounts {
			out = append(out, toDTO(a))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Recipient accounts", out)
	}
}

func Create(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := common.BindAndValidate[CreateRequest](c)
		if in == nil {
			return err
		}
		acc, err := svc.Create(c.UserContext(), technicianID(c), recipientsvc.Input{
			CountryCode:       in.CountryCode,
			Currency:          in.Currency,
			WiseRecipientID:   in.WiseRecipientID,
			AccountHolderName: in.AccountHolderName,
			MakeDefault:       in.MakeDefault,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create recipient account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Recipient account created", toDTO(acc))
	}
}

func SetDefault(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := common.BindAndValidate[AccountRequest](c)
		if in == nil {
			return err
		}
		if err := svc.SetDefault(c.UserContext(), technicianID(c), uuid.MustParse(in.ID)); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to set default recipient account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Default recipient account set", nil)
	}
}

func Delete(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := common.BindAndValidate[AccountRequest](c)
		if in == nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), technicianID(c), uuid.MustParse(in.ID)); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to delete recipient account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Recipient account deleted", nil)
	}
}

func toDTO(a *recipient.Account) AccountDTO {
	return AccountDTO{
		ID:                a.ID.String(),
		TechnicianID:      a.TechnicianID.String(),
		CountryCode:       a.CountryCode,
		Currency:          a.Currency,
		WiseRecipientID:   a.WiseRecipientID,
		AccountHolderName: a.AccountHolderName,
		IsDefault:         a.IsDefault,
		CreatedAt:         a.CreatedAt,
	}
}
