package site

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("site: validation failed")

	// ErrTablesMissing means the localization tables have not been created.
	ErrTablesMissing = errors.New("site: localization tables do not exist")

	// ErrDomainLocaleMissing marks a domain row whose locale cannot be
	// joined.
	ErrDomainLocaleMissing = errors.New("site: domain locale is empty")

	// ErrNotFound is returned by single-row lookups.
	ErrNotFound = errors.New("site: record not found")

	// ErrPasswordMismatch is returned by Rehash when the password does not
	// match the stored hash.
	ErrPasswordMismatch = errors.New("site: password does not match")
)

// ValidationError names the offending field and is caller-correctable.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("site: %s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
