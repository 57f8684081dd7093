package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"rentalhub/pkg/errors"
	"rentalhub/pkg/response"
)

// ContextKeyUID is where the authenticated user ID is stored on the echo context.
const ContextKeyUID = "uid"

// TokenVerifier turns a bearer token into a user ID.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c)
		if !ok {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		uid, err := m.verifier.VerifyToken(c.Request().Context(), token)
		if err != nil || uid == "" {
			return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
		}

		c.Set(ContextKeyUID, uid)
		return next(c)
	}
}

// OptionalAuthenticate sets the user ID when a valid token is present and lets anonymous requests through.
func (m *AuthMiddleware) OptionalAuthenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if token, ok := bearerToken(c); ok {
			if uid, err := m.verifier.VerifyToken(c.Request().Context(), token); err == nil && uid != "" {
				c.Set(ContextKeyUID, uid)
			}
		}
		return next(c)
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// WebSocket upgrades, so ?token= is accepted as well.
func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		token := c.QueryParam("token")
		return token, token != ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// UID returns the authenticated user ID, or "" for anonymous requests.
func UID(c echo.Context) string {
	uid, _ := c.Get(ContextKeyUID).(string)
	return uid
}
