package repository

import "errors"

var (
	ErrNotFound  = errors.New("favorite not found")
	ErrDuplicate = errors.New("tutor is already a favorite")
)
