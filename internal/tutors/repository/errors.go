package repository

import "errors"

var (
	ErrNotFound  = errors.New("tutor profile not found")
	ErrInvalidID = errors.New("invalid tutor profile ID format")

	// ErrDuplicate is returned when the tutor already has a profile
	ErrDuplicate = errors.New("tutor profile already exists")

	// ErrStatusChanged is returned when a conditional status update matched
	// nothing because the stored status is no longer the expected one
	ErrStatusChanged = errors.New("tutor profile status changed concurrently")
)
