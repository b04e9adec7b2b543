// Package middleware holds the Fiber handlers that guard the API.
package middleware

import (
	"errors"
	"slices"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/webapi/common"
)

const (
	// ClaimPermissions lists the permissions granted to the bearer.
	ClaimPermissions = "permissions"
	// ClaimUserID identifies the bearer.
	ClaimUserID = "user_id"
	// ClaimTechnicianID is set on tokens issued to technicians.
	ClaimTechnicianID = "technician_id"

	// PermissionAll grants every permission.
	PermissionAll = "*"

	userLocal = "user"
)

// JwtProtected verifies the bearer token and stores it in c.Locals("user").
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.Secret)},
		ContextKey:   userLocal,
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		return problem(c, fiber.StatusBadRequest, "Missing or malformed JWT")
	}
	return problem(c, fiber.StatusUnauthorized, "Invalid or expired JWT")
}

// RequirePermission rejects tokens that do not carry perm.
func RequirePermission(perm string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := Claims(c)
		if !ok {
			return problem(c, fiber.StatusUnauthorized, "Missing authentication")
		}
		if !hasPermission(claims, perm) {
			return problem(c, fiber.StatusForbidden, "Missing permission "+perm)
		}
		return c.Next()
	}
}

// Claims returns the verified token claims, if any.
func Claims(c *fiber.Ctx) (jwt.MapClaims, bool) {
	token, ok := c.Locals(userLocal).(*jwt.Token)
	if !ok || token == nil {
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	return claims, ok
}

// TechnicianID returns the technician the token was issued to.
func TechnicianID(c *fiber.Ctx) (uuid.UUID, bool) {
	return uuidClaim(c, ClaimTechnicianID)
}

// UserID returns the bearer's user id.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	return uuidClaim(c, ClaimUserID)
}

func uuidClaim(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	claims, ok := Claims(c)
	if !ok {
		return uuid.Nil, false
	}
	raw, ok := claims[name].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	return id, err == nil
}

func hasPermission(claims jwt.MapClaims, perm string) bool {
	var granted []string
	switch v := claims[ClaimPermissions].(type) {
	case []any:
		for _, p := range v {
			if s, ok := p.(string); ok {
				granted = append(granted, s)
			}
		}
	case []string:
		granted = v
	case string:
		granted = []string{v}
	}
	return slices.Contains(granted, perm) || slices.Contains(granted, PermissionAll)
}

func problem(c *fiber.Ctx, status int, detail string) error {
	return common.ErrorResponseJSON(c, status, utils.StatusMessage(status), detail)
}
