package resolver

import (
	"context"

	"github.com/yanizio/adept-locale/internal/locale"
)

// Bridge feeds a message translator.  It prefers its own context locale,
// then the resolved request locale, and yields "" rather than an error so a
// translator can apply its own default.
type Bridge struct {
	Resolver      *Resolver
	ContextLocale locale.Code
}

// Resolve returns the locale the translator should use, or "".
func (b *Bridge) Resolve(ctx context.Context) locale.Code {
	if b.ContextLocale != "" {
		return b.ContextLocale
	}
	if b.Resolver == nil {
		return ""
	}
	c, err := b.Resolver.ResolveLocale(ctx, false)
	if err != nil {
		return ""
	}
	return c
}
