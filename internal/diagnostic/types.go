package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Codes used across the planner.
const (
	CodeEmptyRequest    = "empty_request"
	CodeMalformedField  = "malformed_field"
	CodeUncastable      = "uncastable"
	CodeUnreachable     = "unreachable"
	CodeAmbiguous       = "ambiguous"
	CodeConfig          = "config"
	CodeCycle           = "cycle"
	CodeUnusedPrefer    = "unused_prefer"
	CodeUnusedDissector = "unused_dissector"
)

// Diagnostics holds all diagnostic information from planning.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity Severity
	// Code is a unique identifier for this kind of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Field is the TYPE:path this relates to (if any).
	Field string
	// Suggestions are potential fixes or alternatives.
	Suggestions []string
	// Err is the typed error behind the diagnostic (if any).
	Err error
}

//go:generate go tool stringer -type=Severity -linecomment -output=severity_string.go

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota // info
	SeverityWarning              // warning
	SeverityError                // error
)

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, field string) {
	d.Errors = append(d.Errors, Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Message:  message,
		Field:    field,
	})
}

// AddErr records a typed error. Its message becomes the diagnostic message
// and errors.As on the combined Error() still finds it.
func (d *Diagnostics) AddErr(code, field string, err error, suggestions ...string) {
	d.Errors = append(d.Errors, Diagnostic{
		Severity:    SeverityError,
		Code:        code,
		Message:     err.Error(),
		Field:       field,
		Suggestions: suggestions,
		Err:         err,
	})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, field string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  message,
		Field:    field,
	})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, field string) {
	d.Infos = append(d.Infos, Diagnostic{
		Severity: SeverityInfo,
		Code:     code,
		Message:  message,
		Field:    field,
	})
}

func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// Error returns a combined error from all error diagnostics, or nil if valid.
// Typed errors stay reachable through errors.Is and errors.As.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	return &PlanningError{Diagnostics: d.Errors}
}

// PlanningError is the combined failure of a planning run.
type PlanningError struct {
	Diagnostics []Diagnostic
}

func (e *PlanningError) Error() string {
	parts := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		parts = append(parts, d.String())
	}

	return strings.Join(parts, "; ")
}

func (e *PlanningError) Unwrap() []error {
	var errs []error

	for _, d := range e.Diagnostics {
		if d.Err != nil {
			errs = append(errs, d.Err)
		} else {
			errs = append(errs, errors.New(d.Message))
		}
	}

	return errs
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
	}

	if d.Field != "" && d.Err == nil {
		return d.Field + ": " + msg
	}

	return msg
}
