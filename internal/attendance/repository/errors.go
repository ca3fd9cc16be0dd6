package repository

import "errors"

var (
	ErrNotFound  = errors.New("attendance record not found")
	ErrInvalidID = errors.New("invalid attendance ID format")
)
