// Package config loads contractd settings.
//
// Settings come from a YAML or JSON file and are then overridden by
// environment variables:
//
//	CONTRACTD_GENERATIVE_TESTS        true enables positive and negative generated tests
//	CONTRACTD_SCHEMA_EXAMPLE_DEFAULT  true makes generation use declared examples
//	CONTRACTD_EXTENSIBLE_SCHEMA       true tolerates keys a contract does not declare
//	CONTRACTD_FILTER                  scenario filter, see package filter
//
// The file itself may reference variables with ${NAME} or ${NAME:-default}.
//
//	cfg := config.LoadOrDefault("contractd.yaml", logger)
//	resolver = cfg.Strategies().Update(resolver)
package config
