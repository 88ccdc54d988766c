// Package apperrors defines the sentinel errors shared across service and
// handler layers. Handlers translate these into HTTP status codes; anything
// else surfaces as a generic internal error.
package apperrors

import "errors"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("invitation expired")
	ErrValidation   = errors.New("validation failed")
)
