package repository

import "errors"

var (
	// ErrNotFound no record matches the lookup
	ErrNotFound = errors.New("record not found")

	// ErrStatusConflict a conditional transition found the order in a
	// different status than expected; the caller lost the race
	ErrStatusConflict = errors.New("order status conflict")

	// ErrInvalidData the supplied identifier or payload is malformed
	ErrInvalidData = errors.New("invalid data")
)
