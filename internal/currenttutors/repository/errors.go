package repository

import "errors"

var (
	ErrNotFound  = errors.New("current tutor relationship not found")
	ErrInvalidID = errors.New("invalid current tutor ID format")
)
