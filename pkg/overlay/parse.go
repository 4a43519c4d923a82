package overlay

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ohler55/ojg/jp"
	"gopkg.in/yaml.v3"
)

// Parse reads an overlay from YAML or JSON. Blank input is an empty
// overlay.
func Parse(data []byte) (*Overlay, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return &Overlay{}, nil
	}
	var o Overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, &ParseError{Cause: err}
	}
	o.Actions = normalizeActions(o.Actions)
	return &o, nil
}

// ParseFile reads the overlay at path.
func ParseFile(path string) (*Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}
	o, err := Parse(data)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
		}
		return nil, err
	}
	return o, nil
}

// normalizeActions converts yaml.v3 map values with non-string keys so
// JSONPath can walk them.
func normalizeActions(actions []Action) []Action {
	for i := range actions {
		actions[i].Update = normalize(actions[i].Update)
	}
	return actions
}

func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	default:
		return v
	}
}

// Validate reports every structural problem in o.
func Validate(o *Overlay) []ValidationError {
	var errs []ValidationError
	for i, a := range o.Actions {
		path := fmt.Sprintf("actions[%d]", i)
		if a.Target == "" {
			errs = append(errs, ValidationError{Path: path + ".target", Message: "target is required"})
		} else if _, err := jp.ParseString(a.Target); err != nil {
			errs = append(errs, ValidationError{Path: path + ".target", Message: "invalid JSONPath: " + err.Error()})
		}
		if !a.Remove && a.Update == nil {
			errs = append(errs, ValidationError{Path: path, Message: "action must have update or remove"})
		}
	}
	return errs
}
