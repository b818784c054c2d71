package stock

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidAdjustment = errors.New("invalid adjustment")
	ErrDuplicateCode     = errors.New("duplicate code")
	ErrUnknownCategory   = errors.New("category not found")
)
