// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree and resolves secrets.  Any error aborts
// startup (or, on Reload, keeps the previous config live).
//
// Besides the field tags, one struct-level rule lives here: the Redis
// backend needs an address.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import "github.com/go-playground/validator/v10"

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterStructValidation(cacheRules, Cache{})
	return val
}

func cacheRules(sl validator.StructLevel) {
	c := sl.Current().Interface().(Cache)
	if c.Backend == "redis" && c.Redis.Addr == "" {
		sl.ReportError(c.Redis.Addr, "Redis.Addr", "Addr", "required_with_redis", "")
	}
}

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
