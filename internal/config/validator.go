// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch or validation error aborts startup, ensuring the binary never
// runs with partial, malformed, or missing configuration.
//
// Custom rules
// ------------
//   • sqlident – lower-case SQL identifier, used for the profile table name
//     because it is interpolated into queries.
//
// Cross-field checks that tags cannot express live in `crossCheck`.

package config

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var (
	v       = validator.New(validator.WithRequiredStructEnabled())
	identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

func init() {
	_ = v.RegisterValidation("sqlident", func(fl validator.FieldLevel) bool {
		return identRe.MatchString(fl.Field().String())
	})
}

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	if err := v.Struct(c); err != nil {
		return err
	}
	return crossCheck(c)
}

// crossCheck enforces rules spanning sections.
func crossCheck(c *Config) error {
	if (c.Profiles.Backend == "sql" || c.Database.Migrate) && c.Database.DSN == "" {
		return errors.New("database.dsn is required when profiles.backend is sql or database.migrate is set")
	}
	return nil
}
