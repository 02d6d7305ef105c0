package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/airops/auth-service/internal/model"
	"github.com/airops/auth-service/internal/repository"
	"github.com/airops/auth-service/internal/respond"
)

// UserHandler serves the user listing consumed by the admin UI.
type UserHandler struct {
	Users repository.UserStore
}

func NewUserHandler(users repository.UserStore) *UserHandler {
	return &UserHandler{Users: users}
}

// GetAllUsers returns every non-deleted user in sanitized form.
func (h *UserHandler) GetAllUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		c.Logger().Errorf("list users: %v", err)
		return respond.Error(c, http.StatusInternalServerError, "internal", "Internal Server Error")
	}

	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return respond.Results(c, http.StatusOK, "Users fetched successfully", out)
}
