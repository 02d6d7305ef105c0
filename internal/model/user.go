package model

import (
	"database/sql"
	"time"
)

// User represents a row in the `users` table. IDs are UUID strings assigned
// by the database. Audit columns record which user performed the last
// create/update/delete; DeletedAt marks a soft delete — deleted accounts are
// excluded from every lookup and must never authenticate.
//
// Fields:
//  ID           – users.id (UUID, primary key).
//  Name         – display name.
//  Email        – unique among non-deleted rows.
//  Phone        – contact number.
//  PasswordHash – bcrypt hash of the password; never serialized.
//  Photo        – avatar path, may be empty.
//  Role         – one of the model.Role constants.
//  IsVerified   – email verification flag; unverified users cannot log in.
//  IsActive     – deactivation flag; deactivated users cannot log in.
type User struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	PasswordHash string         `json:"-"`
	Photo        string         `json:"photo"`
	Role         Role           `json:"role"`
	IsVerified   bool           `json:"is_verified"`
	IsActive     bool           `json:"is_active"`
	CreatedBy    sql.NullString `json:"-"`
	UpdatedBy    sql.NullString `json:"-"`
	DeletedBy    sql.NullString `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    sql.NullTime   `json:"-"`
}

// PublicUser is the sanitized shape returned to clients after login and in
// user listings. It carries no credential or audit columns.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Photo string `json:"photo"`
}

// Public projects the user into its client-facing shape.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Photo: u.Photo}
}
