// Package ast provides Abstract Syntax Tree (AST) definitions for the Arbiter
// Policy Language (APL).
//
// APL is a function-free Datalog dialect: policy sets are named collections of
// Horn clauses whose heads derive decision atoms (permit, prohibit, obligation)
// from the ground facts supplied with an evaluation request. All AST nodes
// preserve source location information for precise error reporting.
//
// # Core Types
//
// PolicySet: Root AST node containing metadata, decision predicate
// declarations, static facts, and rules
//
// Rule: A single Horn clause `head :- body` with an identifier and priority
//
// Atom: A predicate applied to terms, e.g. role(X, "admin")
//
// Literal: A body element (positive atom, negated atom, or builtin comparison)
//
// Term: An atomic value (string, number, boolean constant, or variable)
//
// Location: Source location (file, line, column)
//
// # Basic Usage
//
// Parse a policy set and traverse the AST:
//
//	set, err := parser.ParseFile("access-control.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, rule := range set.Rules {
//	    fmt.Println("Rule:", rule.ID, "head:", rule.Head.Predicate)
//	}
//
// The AST is consumed by the compiler (pkg/policy/compiler), which validates
// safety and stratification and produces the immutable evaluable form used by
// the engine (pkg/policy/engine).
package ast
