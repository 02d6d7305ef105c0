package repository

import (
	"context"

	"github.com/airops/auth-service/internal/model"
)

// UserStore is the account lookup surface the auth core consumes. The MySQL
// UserRepo implements it; tests substitute in-memory fakes.
type UserStore interface {
	// FindByEmail returns the non-deleted user with the given email or
	// ErrNotFound.
	FindByEmail(ctx context.Context, email string) (model.User, error)
	// FindByID returns the non-deleted user with the given id or ErrNotFound.
	FindByID(ctx context.Context, id string) (model.User, error)
	// List returns all non-deleted users.
	List(ctx context.Context) ([]model.User, error)
}

// ClientStore is the machine-credential lookup surface.
type ClientStore interface {
	// FindByID returns the non-deleted client with the given id or
	// ErrNotFound. When includeUser is true the delegated user row is
	// eager-loaded into AssociateUser (nil if that user is deleted).
	FindByID(ctx context.Context, id string, includeUser bool) (model.Client, error)
	// Create inserts a new client, enforcing case-insensitive name
	// uniqueness (ErrNameExists) and returning the stored row.
	Create(ctx context.Context, c model.Client) (model.Client, error)
}
