package resolver

import "sync/atomic"

var defaultResolver atomic.Pointer[Resolver]

// SetDefault installs the process-wide background Resolver.  It exists for
// code with no request to hand, such as scheduled jobs; request code uses
// FromContext.
func SetDefault(r *Resolver) { defaultResolver.Store(r) }

// Default returns the Resolver installed by SetDefault.
func Default() (*Resolver, error) {
	r := defaultResolver.Load()
	if r == nil {
		return nil, ErrNotInitialised
	}
	return r, nil
}
