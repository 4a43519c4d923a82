package filter

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Expression is a boolean expr-lang filter over scenario metadata. The
// environment exposes METHOD, PATH, STATUS, HEADERS, QUERY and
// EXAMPLE_NAME.
type Expression struct {
	source  string
	program *vm.Program
}

var (
	programMu    sync.RWMutex
	programCache = map[string]*vm.Program{}
)

// NewExpression compiles text. Compiled programs are cached by source.
func NewExpression(text string) (*Expression, error) {
	program, err := compile(text)
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", text, err)
	}
	return &Expression{source: text, program: program}, nil
}

func compile(text string) (*vm.Program, error) {
	programMu.RLock()
	program, ok := programCache[text]
	programMu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(text, expr.Env(env(ScenarioMetadata{})), expr.AsBool())
	if err != nil {
		return nil, err
	}

	programMu.Lock()
	programCache[text] = program
	programMu.Unlock()
	return program, nil
}

func env(m ScenarioMetadata) map[string]any {
	headers := m.Header
	if headers == nil {
		headers = []string{}
	}
	query := m.Query
	if query == nil {
		query = []string{}
	}
	return map[string]any{
		"METHOD":       strings.ToUpper(m.Method),
		"PATH":         m.Path,
		"STATUS":       m.StatusCode,
		"HEADERS":      headers,
		"QUERY":        query,
		"EXAMPLE_NAME": m.ExampleName,
	}
}

// String returns the expression source.
func (e *Expression) String() string { return e.source }

// Evaluate runs the expression against m.
func (e *Expression) Evaluate(m ScenarioMetadata) (bool, error) {
	out, err := expr.Run(e.program, env(m))
	if err != nil {
		return false, fmt.Errorf("eval filter %q: %w", e.source, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %T, not bool", e.source, out)
	}
	return b, nil
}

// Matches reports whether m is selected. Evaluation errors select nothing.
func (e *Expression) Matches(m ScenarioMetadata) bool {
	ok, err := e.Evaluate(m)
	return err == nil && ok
}
