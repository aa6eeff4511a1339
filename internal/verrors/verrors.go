// Package verrors defines vanta's runtime and syntax error taxonomy: a
// typed error carrying a Kind and an optional source location.
package verrors

import (
	"fmt"
	"strings"
)

// Kind identifies which of the fixed error categories an error belongs
// to.
type Kind string

const (
	TypeMismatch       Kind = "TypeMismatch"
	ArityMismatch      Kind = "ArityMismatch"
	UnboundName        Kind = "UnboundName"
	IndexOutOfBounds   Kind = "IndexOutOfBounds"
	DivideByZero       Kind = "DivideByZero"
	BadBranchCondition Kind = "BadBranchCondition"
	UnknownBuiltin     Kind = "UnknownBuiltin"
	Syntax             Kind = "SyntaxError"
)

// Location is the source position an error occurred at, when known.
type Location struct {
	File   string
	Line   int
	Column int
}

// VantaError is the error type every vanta-level failure (lexing,
// parsing, lowering, or execution) is reported as.
type VantaError struct {
	Kind     Kind
	Message  string
	Location Location
	hasLoc   bool
}

func (e *VantaError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s", e.Kind, e.Message))
	if e.hasLoc {
		sb.WriteString(fmt.Sprintf("\n  at %s:%d:%d", e.Location.File, e.Location.Line, e.Location.Column))
	}
	return sb.String()
}

func New(kind Kind, message string) *VantaError {
	return &VantaError{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *VantaError {
	return New(kind, fmt.Sprintf(format, args...))
}

// WithLocation attaches a source location to the error and returns it
// for chaining.
func (e *VantaError) WithLocation(file string, line, column int) *VantaError {
	e.Location = Location{File: file, Line: line, Column: column}
	e.hasLoc = true
	return e
}
