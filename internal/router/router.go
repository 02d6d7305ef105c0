// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/airops/auth-service/internal/config"
	"github.com/airops/auth-service/internal/handler"
	"github.com/airops/auth-service/internal/middleware"
	"github.com/airops/auth-service/internal/model"
	"github.com/airops/auth-service/internal/repository"
	"github.com/airops/auth-service/internal/token"
)

// Register mounts all routes. Credential-accepting endpoints sit behind the
// Redis rate limiter; protected endpoints run the session middleware and,
// where required, the role gate. The response cache wraps only the user
// listing and only inside the auth chain, so a cached body can never leak
// past an unauthenticated request.
func Register(e *echo.Echo, a *handler.AuthHandler, u *handler.UserHandler,
	users repository.UserStore, tokens *token.Manager, rdb *redis.Client) {

	e.GET("/healthz", handler.Health)

	limiter := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)
	cache := middleware.CacheJSON(config.LoadCacheConfig(), rdb)
	session := middleware.Session(tokens)

	api := e.Group("/api")

	// token-producing entry points
	api.POST("/login", a.Login, limiter)
	api.POST("/refresh_token", a.Refresh)
	api.POST("/access_token", a.GetAccessToken, limiter)

	// protected surface
	api.POST("/logout", a.Logout, session)
	api.GET("/me", a.Me, session)
	api.POST("/client", a.CreateClient, session,
		middleware.RequireRole(users, model.RoleSuperAdmin))
	api.GET("/all_users", u.GetAllUsers, session,
		middleware.RequireRole(users, model.RoleSuperAdmin, model.RoleAdmin), cache)
}
