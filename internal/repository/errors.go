// Package repository provides storage access for users and API clients and
// the sentinel errors higher layers match on. Handlers and middleware only
// see these sentinels; driver errors never cross the package boundary except
// wrapped as plain errors for logging.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no non-deleted row.
var ErrNotFound = errors.New("not found")

// ErrNameExists is returned when creating a client whose name is already
// taken (case-insensitive) by a non-deleted client.
var ErrNameExists = errors.New("name already exists")
