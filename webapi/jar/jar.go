// Package jar exposes jar configuration.
package jar

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/pkg/domain/jar"
	"github.com/tapevault/backoffice/pkg/middleware"
	jarsvc "github.com/tapevault/backoffice/pkg/service/jar"
	"github.com/tapevault/backoffice/webapi/common"
)

// Service is the part of jarsvc.Service the handlers use.
type Service interface {
	List(ctx context.Context, country string) ([]*jar.Jar, error)
	Create(ctx context.Context, in jarsvc.Input) (*jar.Jar, error)
	Update(ctx context.Context, id uuid.UUID, in jarsvc.Input) (*jar.Jar, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Routes registers the jar endpoints under /api/v1/jars.
func Routes(app *fiber.App, svc Service, cfg *config.Auth) {
	g := app.Group("/api/v1/jars", middleware.JwtProtected(cfg.Jwt))
	g.Get("/", middleware.RequirePermission("jars.read"), List(svc))
	g.Post("/new", middleware.RequirePermission("jars.manage"), Create(svc))
	g.Post("/edit", middleware.RequirePermission("jars.manage"), Update(svc))
	g.Post("/delete", middleware.RequirePermission("jars.manage"), Delete(svc))
}

// List returns a country's jars with their active allocation.
func List(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		country := c.Query("country")
		if country == "" {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid query", "country is required")
		}
		jars, err := svc.List(c.UserContext(), country)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list jars", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Jars", toListDTO(jars))
	}
}

func Create(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := common.BindAndValidate[JarRequest](c)
		if in == nil {
			return err
		}
		j, err := svc.Create(c.UserContext(), in.input())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create jar", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Jar created", toDTO(j))
	}
}

func Update(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := common.BindAndValidate[JarRequest](c)
		if in == nil {
			return err
		}
		id, err := uuid.Parse(in.ID)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Validation failed", "id is required")
		}
		j, err := svc.Update(c.UserContext(), id, in.input())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update jar", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Jar updated", toDTO(j))
	}
}

// Delete soft deletes a jar.
func Delete(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := common.BindAndValidate[DeleteRequest](c)
		if in == nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), uuid.MustParse(in.ID)); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to delete jar", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Jar deleted", nil)
	}
}
