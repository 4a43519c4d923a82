// Package cli implements the contractd command line.
//
// Contracts are JSON files in pattern notation (see contract.ParseFeature).
// Every command accepts --config, --overlay and --filter, which are
// applied in that order before the contract is used:
//
//	contractd generate pets.json
//	contractd match pets.json request.json
//	contractd test pets.json --base-url http://localhost:8080
//	contractd compat pets-v1.json pets-v2.json
//	contractd examples pets.json 'examples/**/*.json'
//	contractd stub pets.json --port 9000 --stateful
package cli
