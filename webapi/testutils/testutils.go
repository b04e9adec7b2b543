// Package testutils builds Fiber apps and signed requests for handler tests.
package testutils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/pkg/middleware"
	"github.com/tapevault/backoffice/webapi/common"
)

// Jwt is the signing configuration handler tests share.
var Jwt = &config.Jwt{Secret: "handler-test-secret", Expiry: time.Hour}

// Auth wraps Jwt for route registration.
var Auth = &config.Auth{Jwt: Jwt}

// NewApp returns an app with the production error handler.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Request failed", err)
		},
	})
}

// Token signs a token granting perms. An optional technician id is added
// as the technician claim.
func Token(t *testing.T, perms []string, technicianID ...uuid.UUID) string {
	t.Helper()
	claims := jwt.MapClaims{
		middleware.ClaimUserID:      uuid.NewString(),
		middleware.ClaimPermissions: perms,
		"exp":                       time.Now().Add(Jwt.Expiry).Unix(),
	}
	if len(technicianID) > 0 {
		claims[middleware.ClaimTechnicianID] = technicianID[0].String()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(Jwt.Secret))
	require.NoError(t, err)
	return s
}

// MakeRequest runs a JSON request through app.
func MakeRequest(t *testing.T, app *fiber.App, method, path, body, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// Decode reads the success envelope and unmarshals its data into T.
func Decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var env struct {
		Status  int             `json:"status"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	var out T
	if len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, &out))
	}
	return out
}

// Problem reads an RFC 9457 problem body.
func Problem(t *testing.T, resp *http.Response) common.ProblemDetails {
	t.Helper()
	var pd common.ProblemDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	return pd
}
