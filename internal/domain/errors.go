package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrClosed   = errors.New("already closed")
)
