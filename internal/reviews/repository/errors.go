package repository

import "errors"

var (
	ErrNotFound  = errors.New("review not found")
	ErrInvalidID = errors.New("invalid review ID format")
	ErrDuplicate = errors.New("review already exists for booking")
)
