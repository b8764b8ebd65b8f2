package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Recovery code exchange failures.
var (
	ErrMalformedToken = errors.New("malformed token")
	ErrUnknownChannel = fmt.Errorf("unknown channel: %w", ErrMalformedToken)
	ErrInvalidCode    = errors.New("invalid code")
	ErrCodeExpired    = errors.New("code expired")
	ErrPersistence    = errors.New("persistence failure")
)
