package repository

import "errors"

var (
	// ErrNotFound is returned when no user matches the lookup
	ErrNotFound = errors.New("user not found")

	// ErrInvalidID is returned when an ID is not a valid ObjectID
	ErrInvalidID = errors.New("invalid user ID format")

	// ErrDuplicateEmail is returned when the email is already registered
	ErrDuplicateEmail = errors.New("email already registered")
)
