package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or conflicting input.
	ErrValidation = errors.New("validation failed")

	// Not found errors
	ErrRoleNotFound     = errors.New("role not found")
	ErrActorNotFound    = errors.New("actor not found")
	ErrDocumentNotFound = errors.New("document not found")

	// Authorization errors
	ErrAccessDenied = errors.New("access denied")
	ErrUnauthorized = errors.New("unauthorized")

	// Token errors
	ErrTokenGeneration = errors.New("token generation failed")
	ErrInvalidToken    = errors.New("invalid token")
	ErrExpiredToken    = errors.New("token has expired")
)

// AccessDeniedError carries the attempted scope and required level of a denied check.
type AccessDeniedError struct {
	Scope    Scope
	Required AccessLevel
	RoleID   string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: scope %s requires %s", e.Scope, e.Required)
}

// Is makes errors.Is(err, ErrAccessDenied) hold.
func (e *AccessDeniedError) Is(target error) bool {
	return target == ErrAccessDenied
}

// IsNotFound reports whether err is one of the not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRoleNotFound) ||
		errors.Is(err, ErrActorNotFound) ||
		errors.Is(err, ErrDocumentNotFound)
}
