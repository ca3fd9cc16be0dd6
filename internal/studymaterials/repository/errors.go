package repository

import "errors"

var (
	ErrNotFound  = errors.New("study material not found")
	ErrInvalidID = errors.New("invalid study material ID format")
)
