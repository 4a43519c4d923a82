package overlay

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// Applier applies overlays to generic documents (the output of decoding
// JSON or YAML into any).
type Applier struct {
	// StrictTargets makes an action that matches no nodes an error.
	StrictTargets bool
}

// NewApplier returns a lenient Applier.
func NewApplier() *Applier { return &Applier{} }

// Apply runs the actions of o in order against a copy of doc.
func (a *Applier) Apply(doc any, o *Overlay) (*Result, error) {
	if errs := Validate(o); len(errs) > 0 {
		return nil, errs[0]
	}

	res := &Result{Document: deepCopy(doc)}
	for i, action := range o.Actions {
		updated, change, err := a.applyAction(res.Document, action, i)
		if err != nil {
			if a.StrictTargets {
				return nil, err
			}
			res.Warnings = append(res.Warnings, Warning{ActionIndex: i, Target: action.Target, Message: "action failed", Cause: err})
			res.ActionsSkipped++
			continue
		}
		if change.MatchCount == 0 {
			if a.StrictTargets {
				return nil, fmt.Errorf("overlay: action[%d] target %q matched no nodes", i, action.Target)
			}
			res.Warnings = append(res.Warnings, Warning{ActionIndex: i, Target: action.Target, Message: "target matched no nodes"})
			res.ActionsSkipped++
			continue
		}
		res.Document = updated
		res.Changes = append(res.Changes, change)
		res.ActionsApplied++
	}
	return res, nil
}

// Apply applies o to doc with a lenient Applier.
func Apply(doc any, o *Overlay) (*Result, error) {
	return NewApplier().Apply(doc, o)
}

func (a *Applier) applyAction(doc any, action Action, index int) (any, Change, error) {
	change := Change{ActionIndex: index, Target: action.Target}
	x, err := jp.ParseString(action.Target)
	if err != nil {
		return doc, change, &ApplyError{ActionIndex: index, Target: action.Target, Cause: fmt.Errorf("invalid JSONPath: %w", err)}
	}

	change.MatchCount = len(x.Get(doc))
	if change.MatchCount == 0 {
		return doc, change, nil
	}

	if action.Remove {
		change.Operation = OpRemove
		out, err := x.Remove(doc)
		if err != nil {
			return doc, change, &ApplyError{ActionIndex: index, Target: action.Target, Cause: err}
		}
		return out, change, nil
	}

	out, err := x.Modify(doc, func(elem any) (any, bool) {
		switch target := elem.(type) {
		case map[string]any:
			if update, ok := action.Update.(map[string]any); ok {
				change.Operation = OpUpdate
				return mergeDeep(target, deepCopy(update).(map[string]any)), true
			}
			change.Operation = OpReplace
			return deepCopy(action.Update), true
		case []any:
			change.Operation = OpAppend
			return append(target, deepCopy(action.Update)), true
		default:
			change.Operation = OpReplace
			return deepCopy(action.Update), true
		}
	})
	if err != nil {
		return doc, change, &ApplyError{ActionIndex: index, Target: action.Target, Cause: err}
	}
	return out, change, nil
}

// mergeDeep merges source into target. Nested objects merge, everything
// else is replaced.
func mergeDeep(target, source map[string]any) map[string]any {
	for key, srcVal := range source {
		if targetMap, ok := target[key].(map[string]any); ok {
			if srcMap, ok := srcVal.(map[string]any); ok {
				mergeDeep(targetMap, srcMap)
				continue
			}
		}
		target[key] = srcVal
	}
	return target
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}
