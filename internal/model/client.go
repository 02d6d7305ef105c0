package model

import (
	"database/sql"
	"time"
)

// Client is a registered machine caller from the `clients` table. A client
// always delegates authority to exactly one user (AssociateUserID); tokens
// minted for a client carry that user's identity plus the client id. Names
// are unique case-insensitively among non-deleted rows.
type Client struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	SecretHash      string         `json:"-"`
	AssociateUserID string         `json:"associate_user_id"`
	CreatedBy       sql.NullString `json:"-"`
	UpdatedBy       sql.NullString `json:"-"`
	DeletedBy       sql.NullString `json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       sql.NullTime   `json:"-"`

	// AssociateUser is populated when the lookup eager-loads the delegated
	// user row. Nil when not requested or when the user has been deleted.
	AssociateUser *User `json:"associate_user,omitempty"`
}
