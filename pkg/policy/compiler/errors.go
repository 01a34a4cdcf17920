package compiler

import (
	"fmt"

	"arbiter-hq/arbiter/pkg/apl/ast"
)

// ErrorKind classifies compile failures. Every kind is fatal to the policy
// set version being compiled; the previously published compiled set keeps
// serving (fail-closed on compile).
type ErrorKind string

const (
	// KindUnsafeRule indicates a rule with a variable in its head, a negated
	// atom, or a builtin comparison that is not bound by any positive body atom.
	KindUnsafeRule ErrorKind = "UnsafeRule"

	// KindUnstratifiableRecursion indicates a predicate that transitively
	// depends on its own negation.
	KindUnstratifiableRecursion ErrorKind = "UnstratifiableRecursion"

	// KindDuplicateDecisionAtom indicates a predicate declared with
	// conflicting decision semantics (both permit and prohibit).
	KindDuplicateDecisionAtom ErrorKind = "DuplicateDecisionAtom"
)

// CompileError describes why a policy set was rejected at compile time.
type CompileError struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// PolicySet is the name of the rejected set.
	PolicySet string

	// RuleID identifies the offending rule (empty for set-level failures).
	RuleID string

	// Predicate is the predicate involved in the failure, if any.
	Predicate string

	// Message describes the failure.
	Message string

	// Location points at the offending source, when known.
	Location ast.Location
}

// Error returns the error message.
func (e *CompileError) Error() string {
	prefix := fmt.Sprintf("policy set %q", e.PolicySet)
	if e.RuleID != "" {
		prefix += fmt.Sprintf(" rule %q", e.RuleID)
	}
	if e.Location.IsValid() {
		return fmt.Sprintf("%s: %s: %s (%s)", prefix, e.Kind, e.Message, e.Location)
	}
	return fmt.Sprintf("%s: %s: %s", prefix, e.Kind, e.Message)
}
