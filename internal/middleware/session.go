package middleware // reusable HTTP middleware for the auth core

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/airops/auth-service/internal/respond"
	"github.com/airops/auth-service/internal/token"
)

// AccessCookie is the cookie interactive sessions carry their access token
// in. The cookie wins over the Authorization header when both are present.
const AccessCookie = "accessToken"

// PrincipalKey is the context key Session stores the principal under.
const PrincipalKey = "principal"

// Session returns middleware that authenticates every request it wraps. The
// access token is read from the accessToken cookie, falling back to an
// `Authorization: Bearer` header for machine callers. The verified principal
// is attached to the request context for downstream handlers; the 401 body
// tells an expired token (client should try the refresh endpoint) apart from
// an invalid one (client must log in again).
func Session(tokens *token.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := ""
			if ck, err := c.Cookie(AccessCookie); err == nil {
				raw = ck.Value
			}
			if raw == "" {
				if h := c.Request().Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
					raw = strings.TrimPrefix(h, "Bearer ")
				}
			}
			if raw == "" {
				return respond.Error(c, http.StatusUnauthorized, "token_missing", "Access token required")
			}

			p, err := tokens.Verify(raw, token.Access)
			if errors.Is(err, token.ErrExpired) {
				return respond.Error(c, http.StatusUnauthorized, "token_expired", "Access token expired")
			}
			if err != nil {
				return respond.Error(c, http.StatusUnauthorized, "token_invalid", "Invalid access token")
			}

			c.Set(PrincipalKey, p)
			c.Set("user_id", p.UserID)
			c.Set("role", string(p.Role))
			return next(c)
		}
	}
}

// PrincipalFrom extracts the principal stored by Session. The second return
// is false on routes Session never ran on.
func PrincipalFrom(c echo.Context) (token.Principal, bool) {
	p, ok := c.Get(PrincipalKey).(token.Principal)
	return p, ok
}
