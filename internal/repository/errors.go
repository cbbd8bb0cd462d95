package repository

import "errors"

// ErrNotFound is returned when a requested record is not found in the repository.
// This abstracts away the underlying storage implementation (SQLite, Postgres)
// from the service layer.
var ErrNotFound = errors.New("record not found")

// ErrInvalidKey is returned when a draft key has an empty kind or id
var ErrInvalidKey = errors.New("invalid draft key")
