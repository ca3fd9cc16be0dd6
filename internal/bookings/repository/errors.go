package repository

import "errors"

var (
	ErrNotFound  = errors.New("booking not found")
	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusChanged is returned when a conditional status update matched
	// nothing because another request moved the booking first
	ErrStatusChanged = errors.New("booking status changed concurrently")

	// ErrLocked is returned when another request holds the tutor's calendar lock
	ErrLocked = errors.New("booking lock is held")
)
