// Package output formats command results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// Printer writes results as text or, in JSON mode, only as JSON.
type Printer struct {
	Out  io.Writer
	Err  io.Writer
	JSON bool
}

// Result writes data as indented JSON in JSON mode, and calls text
// otherwise.
func (p Printer) Result(data any, text func(w io.Writer)) error {
	if p.JSON {
		return JSON(p.Out, data)
	}
	text(p.Out)
	return nil
}

// Table returns an aligned writer on Out. Call Flush when done.
func (p Printer) Table() *tabwriter.Writer {
	return tabwriter.NewWriter(p.Out, 0, 0, 2, ' ', 0)
}

// Warn writes a warning to Err.
func (p Printer) Warn(format string, args ...any) {
	fmt.Fprintf(p.Err, "Warning: "+format+"\n", args...)
}

// JSON writes indented JSON to w.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
