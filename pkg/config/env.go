package config

import (
	"fmt"
	"strconv"
)

// Environment variables that override file settings.
const (
	EnvGenerativeTests      = "CONTRACTD_GENERATIVE_TESTS"
	EnvSchemaExampleDefault = "CONTRACTD_SCHEMA_EXAMPLE_DEFAULT"
	EnvExtensibleSchema     = "CONTRACTD_EXTENSIBLE_SCHEMA"
	EnvFilter               = "CONTRACTD_FILTER"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg from the environment.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	flags := []struct {
		name   string
		target *bool
	}{
		{EnvGenerativeTests, &cfg.GenerativeTests},
		{EnvSchemaExampleDefault, &cfg.SchemaExampleDefault},
		{EnvExtensibleSchema, &cfg.Test.AllowExtensibleSchema},
	}
	for _, f := range flags {
		raw, ok := lookup(f.name)
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, f.name, raw)
		}
		*f.target = v
	}
	if raw, ok := lookup(EnvFilter); ok {
		cfg.Filter = raw
	}
	return nil
}
