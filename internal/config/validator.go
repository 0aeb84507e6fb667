// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `Load` calls `validateStruct` immediately after it unmarshals the merged
// Koanf tree into a `Config`.  Any failure aborts startup, so the binary
// never runs with partial or malformed configuration.
//
// Two rules run after the tag checks: `Database.GlobalDSN` may contain at
// most one `%s` verb, the slot for the password, and every code under
// `localization.fallbacks` must normalise.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = validator.New()

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s failed %q rule", fe.Namespace(), fe.Tag())
		}
		return err
	}
	if n := strings.Count(c.Database.GlobalDSN, "%s"); n > 1 {
		return fmt.Errorf("config: database.global_dsn has %d %%s verbs, want at most one", n)
	}
	if _, err := c.Localization.FallbackChains(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
