package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "contractd-config.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func configSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("failed to add config schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// SchemaError lists the places where a document breaks the config schema.
type SchemaError struct {
	Problems []SchemaProblem
}

// SchemaProblem is one schema violation.
type SchemaProblem struct {
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		path := p.Path
		if path == "" {
			path = "/"
		}
		msgs = append(msgs, path+": "+p.Message)
	}
	return "config does not match schema: " + strings.Join(msgs, "; ")
}

func (e *SchemaError) Unwrap() error { return ErrInvalidConfig }

// validateDocument checks a decoded document against the schema. doc is
// round-tripped through JSON so YAML scalars have JSON types.
func validateDocument(doc any) error {
	schema, err := configSchema()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var normalized any
	if err := dec.Decode(&normalized); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	err = schema.Validate(normalized)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	se := &SchemaError{}
	collectProblems(verr, se)
	return se
}

func collectProblems(err *jsonschema.ValidationError, se *SchemaError) {
	if len(err.Causes) == 0 {
		se.Problems = append(se.Problems, SchemaProblem{Path: err.InstanceLocation, Message: err.Message})
		return
	}
	for _, c := range err.Causes {
		collectProblems(c, se)
	}
}
