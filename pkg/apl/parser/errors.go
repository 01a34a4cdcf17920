package parser

import (
	"fmt"

	"arbiter-hq/arbiter/pkg/apl/ast"
)

// ParseError describes a syntax error in a policy set file or a rule clause.
// It carries the source location so callers can point at the offending text.
type ParseError struct {
	// Location is the position of the error in the source file.
	Location ast.Location

	// Message describes what went wrong.
	Message string

	// Clause is the rule text being parsed when the error occurred (empty for
	// YAML-level errors).
	Clause string
}

// Error returns the error message with location prefix.
func (e *ParseError) Error() string {
	if e.Clause != "" {
		return fmt.Sprintf("%s: %s in clause %q", e.Location, e.Message, e.Clause)
	}
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}

func newParseError(loc ast.Location, clause, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Location: loc,
		Message:  fmt.Sprintf(format, args...),
		Clause:   clause,
	}
}
