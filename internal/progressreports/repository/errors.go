package repository

import "errors"

var (
	ErrNotFound  = errors.New("progress report not found")
	ErrInvalidID = errors.New("invalid progress report ID format")
)
