package resolver

import (
	"errors"
	"fmt"

	"github.com/yanizio/adept-locale/internal/locale"
)

var (
	// ErrResolutionFailed is wrapped by every ResolutionError.
	ErrResolutionFailed = errors.New("can not resolve current locale")

	// ErrNotInitialised is returned by Default before SetDefault.
	ErrNotInitialised = errors.New("resolver: default resolver has not been set")
)

// ResolutionError lists the inputs that were inspected.  An empty Code
// prints as "null".  The resolver only fails when all three are empty, but
// the fields are kept so the message shape is stable.
type ResolutionError struct {
	Defined locale.Code
	Query   locale.Code
	Domain  locale.Code
	Host    string

	// ContextEmpty is set when the context fallback was requested but no
	// context locale had been set.
	ContextEmpty bool

	// Cause is an optional underlying condition, e.g. a domain row without
	// a locale.
	Cause error
}

func (e *ResolutionError) Error() string {
	head := ErrResolutionFailed.Error()
	if e.ContextEmpty {
		head = "context locale is empty"
	}
	msg := fmt.Sprintf("%s; explored inputs: defined: %q, URL parameter: %q, domain: %q",
		head, orNull(e.Defined), orNull(e.Query), orNull(e.Domain))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrResolutionFailed}
	}
	return []error{ErrResolutionFailed, e.Cause}
}

func orNull(c locale.Code) string {
	if c == "" {
		return "null"
	}
	return string(c)
}
