// internal/locale/locale.go
//
// Two-letter locale codes.
//
// Context
// -------
// Every locale the system stores, resolves, or uses as a translation key is
// a Code: exactly two lower-case ASCII letters ("en", "cs", "de").  Region
// variants are not tracked separately, so "cs-CZ" and "cs_CZ" both collapse
// to "cs" during normalisation.  The region part must be exactly two ASCII
// letters; "en-USA", "en-419", and "en-1" are rejected.
//
// Notes
// -----
//   - Normalize is pure and idempotent.
//   - The zero Code ("") means "no locale" and never passes Valid().
package locale

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFormat is the sentinel wrapped by every FormatError.
var ErrInvalidFormat = errors.New("invalid locale format")

// FormatError reports the raw input that failed normalisation.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("locale %q is invalid, because it must be 2 [a-z] characters; "+
		"use an alphabet locale like \"en\", \"de\", \"cs\"", e.Input)
}

func (e *FormatError) Unwrap() error { return ErrInvalidFormat }

// Code is a validated two-letter locale identifier.
type Code string

func (c Code) String() string { return string(c) }

// Valid reports whether c matches ^[a-z]{2}$.
func (c Code) Valid() bool { return isTwoLower(string(c)) }

// Normalize lower-cases and trims input, accepts "xx", "xx-YY" or "xx_YY",
// and returns the bare "xx" code.
func Normalize(input string) (Code, error) {
	s := strings.ToLower(strings.TrimSpace(input))

	if i := strings.IndexAny(s, "-_"); i != -1 {
		region := s[i+1:]
		s = s[:i]
		if !isTwoLower(region) {
			return "", &FormatError{Input: input}
		}
	}

	if !isTwoLower(s) {
		return "", &FormatError{Input: input}
	}
	return Code(s), nil
}

// MustNormalize panics on invalid input.  Reserved for literals in wiring
// code and tests.
func MustNormalize(input string) Code {
	c, err := Normalize(input)
	if err != nil {
		panic(err)
	}
	return c
}

// NormalizeAll normalises every element, stopping at the first failure.
func NormalizeAll(inputs []string) ([]Code, error) {
	out := make([]Code, 0, len(inputs))
	for _, in := range inputs {
		c, err := Normalize(in)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func isTwoLower(s string) bool {
	return len(s) == 2 &&
		s[0] >= 'a' && s[0] <= 'z' &&
		s[1] >= 'a' && s[1] <= 'z'
}
