// Package calendar exposes Google token connect and disconnect.
package calendar

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/pkg/domain/calendar"
	"github.com/tapevault/backoffice/pkg/middleware"
	"github.com/tapevault/backoffice/webapi/common"
	"golang.org/x/oauth2"
)

//revive:disable

// TokenRequest carries the token obtained by the OAuth consent flow.
type TokenRequest struct {
	AccessToken  string    `json:"access_token" validate:"required"`
	RefreshToken string    `json:"refresh_token" validate:"required"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
	ExpiresIn    int64     `json:"expires_in" validate:"gte=0"`
}

type UserDTO struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Connected   bool       `json:"connected"`
	TokenExpiry *time.Time `json:"token_expiry,omitempty"`
}

//revive:enable

// Service is the part of the calendar service the handlers use.
type Service interface {
	Connect(ctx context.Context, userID uuid.UUID, tok *oauth2.Token) (*calendar.User, error)
	Disconnect(ctx context.Context, userID uuid.UUID) error
}

// Routes registers the calendar endpoints under /api/v1/calendar/users/:id.
func Routes(app *fiber.App, svc Service, cfg *config.Auth) {
	g := app.Group("/api/v1/calendar/users", middleware.JwtProtected(cfg.Jwt), middleware.RequirePermission("calendar.manage"))
	g.Post("/:id/token", Connect(svc))
	g.Post("/:id/disconnect", Disconnect(svc))
}

// Connect stores a token and schedules its refresh. expires_in is used
// when expiry is absent.
func Connect(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		in, err := common.BindAndValidate[TokenRequest](c)
		if in == nil {
			return err
		}
		tok := &oauth2.Token{
			AccessToken:  in.AccessToken,
			RefreshToken: in.RefreshToken,
			TokenType:    in.TokenType,
			Expiry:       in.Expiry,
		}
		if tok.Expiry.IsZero() && in.ExpiresIn > 0 {
			tok.Expiry = time.Now().Add(time.Duration(in.ExpiresIn) * time.Second)
		}
		u, err := svc.Connect(c.UserContext(), id, tok)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to connect calendar", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Calendar connected", toDTO(u))
	}
}

func Disconnect(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.Disconnect(c.UserContext(), id); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to disconnect calendar", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Calendar disconnected", nil)
	}
}

func toDTO(u *calendar.User) UserDTO {
	out := UserDTO{ID: u.ID.String(), Email: u.Email}
	if tok, err := u.Token(); err == nil && tok != nil {
		out.Connected = true
		if !tok.Expiry.IsZero() {
			exp := tok.Expiry
			out.TokenExpiry = &exp
		}
	}
	return out
}
