package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/airops/auth-service/internal/model"
	"github.com/airops/auth-service/internal/repository"
	"github.com/airops/auth-service/internal/respond"
)

// RequireRole enforces that the authenticated user currently holds one of
// the given roles. The user row is re-fetched on every request instead of
// trusting the role baked into the token: a role change or deactivation
// takes effect immediately, token blacklist not needed. Must run after
// Session.
func RequireRole(users repository.UserStore, roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok || p.UserID == "" {
				return respond.Error(c, http.StatusUnauthorized, "unauthenticated", "Unauthenticated")
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.FindByID(ctx, p.UserID)
			if errors.Is(err, repository.ErrNotFound) {
				return respond.Error(c, http.StatusNotFound, "account_not_found", "User not found")
			}
			if err != nil {
				c.Logger().Errorf("role gate: load user %s: %v", p.UserID, err)
				return respond.Error(c, http.StatusInternalServerError, "internal", "Server error")
			}
			if !u.IsActive {
				return respond.Error(c, http.StatusForbidden, "deactivated", "You're deactivated by the admin. Please contact admin to login.")
			}
			if !u.Role.In(roles...) {
				return respond.Error(c, http.StatusForbidden, "forbidden", "You don't have permission")
			}
			return next(c)
		}
	}
}
