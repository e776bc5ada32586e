package errors

import "errors"

var (
	ErrNotFound  = errors.New("truck not found")
	ErrInvalidID = errors.New("invalid truck ID format")
	// ErrDuplicatePlate surfaces the unique index on number_plate.
	ErrDuplicatePlate = errors.New("number plate already registered")
)
