package repository

import "errors"

var (
	ErrNotFound      = errors.New("session feedback not found")
	ErrInvalidID     = errors.New("invalid session feedback ID format")
	ErrDuplicate     = errors.New("session feedback already exists for booking")
	ErrStatusChanged = errors.New("homework status changed")
	ErrModified      = errors.New("session feedback modified since it was read")
)
