package overlay

import "fmt"

// Overlay is a parsed overlay document.
type Overlay struct {
	Version string   `yaml:"overlay" json:"overlay"`
	Info    Info     `yaml:"info" json:"info"`
	Extends string   `yaml:"extends,omitempty" json:"extends,omitempty"`
	Actions []Action `yaml:"actions" json:"actions"`
}

// Info identifies an overlay.
type Info struct {
	Title   string `yaml:"title" json:"title"`
	Version string `yaml:"version" json:"version"`
}

// Action is one transformation. Remove takes precedence over Update.
type Action struct {
	Target      string `yaml:"target" json:"target"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Update      any    `yaml:"update,omitempty" json:"update,omitempty"`
	Remove      bool   `yaml:"remove,omitempty" json:"remove,omitempty"`
}

// IsEmpty reports whether the overlay has nothing to apply.
func (o *Overlay) IsEmpty() bool { return o == nil || len(o.Actions) == 0 }

// Operation names recorded in a Change.
const (
	OpUpdate  = "update"
	OpReplace = "replace"
	OpAppend  = "append"
	OpRemove  = "remove"
)

// Change records one applied action.
type Change struct {
	ActionIndex int
	Target      string
	Operation   string
	MatchCount  int
}

// Warning is a non-fatal problem with one action.
type Warning struct {
	ActionIndex int
	Target      string
	Message     string
	Cause       error
}

func (w Warning) String() string {
	if w.Cause != nil {
		return fmt.Sprintf("action[%d] %s: %s: %v", w.ActionIndex, w.Target, w.Message, w.Cause)
	}
	return fmt.Sprintf("action[%d] %s: %s", w.ActionIndex, w.Target, w.Message)
}

// Result is the outcome of applying an overlay.
type Result struct {
	Document       any
	ActionsApplied int
	ActionsSkipped int
	Changes        []Change
	Warnings       []Warning
}

// HasWarnings reports whether any action was skipped with a warning.
func (r *Result) HasWarnings() bool { return len(r.Warnings) > 0 }
