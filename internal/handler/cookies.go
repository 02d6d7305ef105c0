package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RefreshCookie carries the refresh token; only the refresh and logout
// endpoints ever read it.
const RefreshCookie = "refreshToken"

// setTokenCookie scopes a token cookie the same way for both kinds:
// HTTP-only, secure, strict same-site, max-age mirroring the token lifetime.
func setTokenCookie(c echo.Context, name, value string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearTokenCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
