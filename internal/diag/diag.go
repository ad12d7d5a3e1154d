// Package diag carries the two error channels of model construction: soft
// diagnostics, collected as hcl.Diagnostics and never aborting a parse, and
// hard errors, returned as positioned Go errors.
package diag

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// Collector accumulates soft diagnostics in source order.
type Collector struct {
	diags hcl.Diagnostics
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Warn records a WARNING diagnostic.
func (c *Collector) Warn(rng hcl.Range, summary, detail string) {
	c.add(hcl.DiagWarning, rng, summary, detail)
}

// Severe records a SEVERE diagnostic. It is still soft: parsing continues.
func (c *Collector) Severe(rng hcl.Range, summary, detail string) {
	c.add(hcl.DiagError, rng, summary, detail)
}

func (c *Collector) add(sev hcl.DiagnosticSeverity, rng hcl.Range, summary, detail string) {
	d := &hcl.Diagnostic{
		Severity: sev,
		Summary:  summary,
		Detail:   detail,
	}
	if rng.Filename != "" || rng.Start.Line > 0 {
		subject := rng
		d.Subject = &subject
	}
	c.diags = append(c.diags, d)
}

// Append adds already-built diagnostics, e.g. from an HCL parameter file.
func (c *Collector) Append(diags hcl.Diagnostics) {
	c.diags = append(c.diags, diags...)
}

// Diagnostics returns everything collected so far.
func (c *Collector) Diagnostics() hcl.Diagnostics {
	return c.diags
}

// Len is the number of collected diagnostics.
func (c *Collector) Len() int {
	return len(c.diags)
}

// Error is a hard error tied to a source range. It aborts the surrounding
// rule, init block or model.
type Error struct {
	Range hcl.Range
	Err   error
}

// Errorf builds a positioned hard error. A %w verb in format keeps the
// wrapped sentinel reachable through errors.Is.
func Errorf(rng hcl.Range, format string, args ...any) *Error {
	return &Error{Range: rng, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a range to err unless err already carries one.
func Wrap(rng hcl.Range, err error) error {
	if err == nil {
		return nil
	}
	var positioned *Error
	if errors.As(err, &positioned) {
		return err
	}
	return &Error{Range: rng, Err: err}
}

func (e *Error) Error() string {
	if e.Range.Filename == "" && e.Range.Start.Line == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s:%d,%d: %v", e.Range.Filename, e.Range.Start.Line, e.Range.Start.Column, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Diagnostic converts the error into a SEVERE diagnostic for reporting.
func (e *Error) Diagnostic() *hcl.Diagnostic {
	subject := e.Range
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Model construction failed",
		Detail:   e.Err.Error(),
		Subject:  &subject,
	}
}
