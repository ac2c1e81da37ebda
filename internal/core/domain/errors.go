package domain

import "errors"

// ErrNotFound is returned when a requested route does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation wraps every input validation failure (bad coordinates,
// missing route name, threshold out of range, ...).
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when creating a route whose ID is already taken.
var ErrConflict = errors.New("conflict")

// ErrUnauthorized is returned when a catalog mutation lacks a valid admin token.
var ErrUnauthorized = errors.New("unauthorized")
