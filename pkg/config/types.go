package config

import (
	"github.com/getmockd/contractd/pkg/filter"
	"github.com/getmockd/contractd/pkg/pattern"
)

// CurrentVersion is the configuration format written by this release.
const CurrentVersion = 2

// Resiliency test levels.
const (
	ResiliencyAll          = "all"
	ResiliencyPositiveOnly = "positiveOnly"
	ResiliencyNone         = "none"
)

// Config is the contractd configuration file.
type Config struct {
	Version                   int                       `yaml:"version" json:"version"`
	Test                      TestConfig                `yaml:"test,omitempty" json:"test,omitempty"`
	Stub                      StubConfig                `yaml:"stub,omitempty" json:"stub,omitempty"`
	Examples                  []string                  `yaml:"examples,omitempty" json:"examples,omitempty"`
	AttributeSelectionPattern AttributeSelectionPattern `yaml:"attributeSelectionPattern,omitempty" json:"attributeSelectionPattern,omitempty"`
	SchemaExampleDefault      bool                      `yaml:"schemaExampleDefault,omitempty" json:"schemaExampleDefault,omitempty"`
	GenerativeTests           bool                      `yaml:"generativeTests,omitempty" json:"generativeTests,omitempty"`
	IgnoreInlineExamples      bool                      `yaml:"ignoreInlineExamples,omitempty" json:"ignoreInlineExamples,omitempty"`
	Filter                    string                    `yaml:"filter,omitempty" json:"filter,omitempty"`
}

// TestConfig controls contract test generation.
type TestConfig struct {
	AllowExtensibleSchema bool            `yaml:"allowExtensibleSchema,omitempty" json:"allowExtensibleSchema,omitempty"`
	ResiliencyTests       ResiliencyTests `yaml:"resiliencyTests,omitempty" json:"resiliencyTests,omitempty"`
}

// ResiliencyTests selects generated variants: all, positiveOnly or none.
type ResiliencyTests struct {
	Enable string `yaml:"enable,omitempty" json:"enable,omitempty"`
}

// StubConfig controls the stub server.
type StubConfig struct {
	Strict    bool  `yaml:"strict,omitempty" json:"strict,omitempty"`
	DelayInMs int64 `yaml:"delayInMs,omitempty" json:"delayInMs,omitempty"`
}

// AttributeSelectionPattern names the query parameter that selects list
// columns on the stateful stub, and the fields always returned.
type AttributeSelectionPattern struct {
	DefaultFields []string `yaml:"defaultFields,omitempty" json:"defaultFields,omitempty"`
	QueryParamKey string   `yaml:"queryParamKey,omitempty" json:"queryParamKey,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Test: TestConfig{
			ResiliencyTests: ResiliencyTests{Enable: ResiliencyNone},
		},
		AttributeSelectionPattern: AttributeSelectionPattern{
			DefaultFields: []string{"id"},
			QueryParamKey: "columns",
		},
	}
}

// Generation maps the resiliency level to a generation strategy. Without
// an all or positiveOnly level the generativeTests switch decides.
func (c *Config) Generation() pattern.GenerationStrategy {
	switch c.Test.ResiliencyTests.Enable {
	case ResiliencyAll:
		return pattern.GenerativeTests
	case ResiliencyPositiveOnly:
		return pattern.GenerativePositiveTests
	}
	if c.GenerativeTests {
		return pattern.GenerativeTests
	}
	return pattern.NonGenerativeTests
}

// Strategies returns the resolver strategies the configuration selects.
func (c *Config) Strategies() pattern.ResolverStrategies {
	s := pattern.DefaultStrategies()
	if c.SchemaExampleDefault {
		s.DefaultExampleResolver = pattern.UseDefaultExample{}
	}
	s.Generation = c.Generation()
	if c.Test.AllowExtensibleSchema {
		s.UnexpectedKeyCheck = pattern.IgnoreUnexpectedKeys
	}
	return s
}

// ScenarioFilter parses the configured filter. An empty filter selects
// every scenario.
func (c *Config) ScenarioFilter() (filter.Filter, error) {
	if c.Filter == "" {
		return filter.All{}, nil
	}
	return filter.Parse(c.Filter)
}
