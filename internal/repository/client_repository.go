package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/airops/auth-service/internal/model"
)

// ClientRepo reads and writes the 'clients' table.
type ClientRepo struct{ DB *sql.DB }

func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{DB: db} }

// FindByID fetches a client by id. With includeUser the delegated user row
// is joined in; a deleted user leaves AssociateUser nil so callers can treat
// it the same as an inactive one.
func (r *ClientRepo) FindByID(ctx context.Context, id string, includeUser bool) (model.Client, error) {
	var c model.Client
	row := r.DB.QueryRowContext(ctx,
		"SELECT id,name,secret_hash,associate_user_id,created_by,updated_by,deleted_by,created_at,updated_at,deleted_at"+
			" FROM clients WHERE id=? AND deleted_at IS NULL LIMIT 1", id)
	err := row.Scan(&c.ID, &c.Name, &c.SecretHash, &c.AssociateUserID,
		&c.CreatedBy, &c.UpdatedBy, &c.DeletedBy,
		&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Client{}, ErrNotFound
	}
	if err != nil {
		return model.Client{}, err
	}

	if includeUser {
		users := UserRepo{DB: r.DB}
		u, err := users.FindByID(ctx, c.AssociateUserID)
		switch {
		case errors.Is(err, ErrNotFound):
			// associated account deleted; leave AssociateUser nil
		case err != nil:
			return model.Client{}, err
		default:
			c.AssociateUser = &u
		}
	}
	return c, nil
}

// Create inserts a client with a fresh UUID, rejecting duplicate names
// case-insensitively among non-deleted clients.
func (r *ClientRepo) Create(ctx context.Context, c model.Client) (model.Client, error) {
	var exists int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM clients WHERE LOWER(name)=? AND deleted_at IS NULL LIMIT 1",
		strings.ToLower(strings.TrimSpace(c.Name))).Scan(&exists)
	if err == nil {
		return model.Client{}, ErrNameExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Client{}, err
	}

	c.ID = uuid.NewString()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO clients (id,name,secret_hash,associate_user_id,created_by,updated_by) VALUES (?,?,?,?,?,?)",
		c.ID, c.Name, c.SecretHash, c.AssociateUserID, c.CreatedBy, c.UpdatedBy)
	if err != nil {
		// unique index on LOWER(name) backs up the pre-check under races
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.Client{}, ErrNameExists
		}
		return model.Client{}, err
	}
	return r.FindByID(ctx, c.ID, false)
}
